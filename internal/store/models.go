package store

import "time"

// Document is one embedded chunk of text.
// Documents are never mutated in place; inserting the same ID replaces it.
type Document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata describes where a document came from.
// Every field is optional and consumers must tolerate empty values.
type Metadata struct {
	RepoID   string `json:"repo_id,omitempty"`
	RepoName string `json:"repo_name,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Language string `json:"language,omitempty"`
	Type     string `json:"type,omitempty"` // documentation | source
}

// Repository is a scraped GitHub repository record
type Repository struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"` // owner/name, unique
	Name        string    `json:"name"`
	Owner       string    `json:"owner"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	URL         string    `json:"url"`
	Topics      []string  `json:"topics"`
	Readme      string    `json:"readme"`
	PushedAt    time.Time `json:"pushed_at"` // last upstream update

	Files []RepositoryFile `json:"files,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RepositoryFile is a file captured alongside a scraped repository
type RepositoryFile struct {
	RepoID   string `json:"repo_id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Type     string `json:"type"` // file | dir
	Language string `json:"language"`
	Content  string `json:"content"`
}

// BacklogItem is a feature proposed for, or completed in, the project backlog
type BacklogItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Dependencies []string  `json:"dependencies"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"created_at"`
}
