package store

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RepositoryStore provides CRUD operations for scraped repositories.
type RepositoryStore struct {
	db *DB
}

// NewRepositoryStore creates a new repository store.
func NewRepositoryStore(db *DB) *RepositoryStore {
	return &RepositoryStore{db: db}
}

const repositoryColumns = `
	id, full_name, name, owner, description, language, stars, forks,
	url, topics, readme, pushed_at, created_at, updated_at
`

// Upsert inserts or updates a repository keyed by full name, replacing its files.
func (r *RepositoryStore) Upsert(ctx context.Context, repo *Repository) error {
	if repo == nil {
		return fmt.Errorf("repository is nil")
	}
	if repo.FullName == "" {
		if repo.Owner == "" || repo.Name == "" {
			return fmt.Errorf("repository full name is required")
		}
		repo.FullName = repo.Owner + "/" + repo.Name
	}
	if repo.Name == "" {
		repo.Name = repo.FullName[strings.LastIndex(repo.FullName, "/")+1:]
	}
	if repo.ID == "" {
		repo.ID = RepositoryID(repo.FullName)
	}

	now := time.Now().UTC()
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = now
	}
	repo.UpdatedAt = now

	topics, err := json.Marshal(nonNil(repo.Topics))
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	tx, err := r.db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The returned id is the stored one when full_name already existed.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO repositories (`+repositoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_name) DO UPDATE SET
			name = excluded.name,
			owner = excluded.owner,
			description = excluded.description,
			language = excluded.language,
			stars = excluded.stars,
			forks = excluded.forks,
			url = excluded.url,
			topics = excluded.topics,
			readme = excluded.readme,
			pushed_at = excluded.pushed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		repo.ID, repo.FullName, repo.Name, repo.Owner, repo.Description,
		repo.Language, repo.Stars, repo.Forks, repo.URL, string(topics),
		repo.Readme, nullableTime(repo.PushedAt),
		formatTime(repo.CreatedAt), formatTime(repo.UpdatedAt),
	).Scan(&repo.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert repository: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM repository_files WHERE repo_id = ?", repo.ID); err != nil {
		return fmt.Errorf("failed to reset repository files: %w", err)
	}

	if len(repo.Files) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO repository_files (repo_id, path, name, size, type, language, content)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i := range repo.Files {
			f := &repo.Files[i]
			f.RepoID = repo.ID
			if f.Path == "" {
				f.Path = f.Name
			}
			if f.Name == "" {
				f.Name = f.Path[strings.LastIndex(f.Path, "/")+1:]
			}
			if f.Type == "" {
				f.Type = "file"
			}
			if _, err := stmt.ExecContext(ctx, f.RepoID, f.Path, f.Name, f.Size, f.Type, f.Language, f.Content); err != nil {
				return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// GetByFullName retrieves a repository with its files, or nil if absent.
func (r *RepositoryStore) GetByFullName(ctx context.Context, fullName string) (*Repository, error) {
	row := r.db.sqlDB.QueryRowContext(ctx,
		"SELECT "+repositoryColumns+" FROM repositories WHERE full_name = ?", fullName)

	repo, err := scanRepository(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}

	files, err := r.Files(ctx, repo.ID)
	if err != nil {
		return nil, err
	}
	repo.Files = files

	return repo, nil
}

// List returns every repository ordered by stars, without file contents.
func (r *RepositoryStore) List(ctx context.Context) ([]*Repository, error) {
	rows, err := r.db.sqlDB.QueryContext(ctx,
		"SELECT "+repositoryColumns+" FROM repositories ORDER BY stars DESC, full_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	var repos []*Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return repos, nil
}

// Files returns the stored files of a repository ordered by path.
func (r *RepositoryStore) Files(ctx context.Context, repoID string) ([]RepositoryFile, error) {
	rows, err := r.db.sqlDB.QueryContext(ctx, `
		SELECT repo_id, path, name, size, type, language, content
		FROM repository_files WHERE repo_id = ? ORDER BY path
	`, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []RepositoryFile
	for rows.Next() {
		var f RepositoryFile
		if err := rows.Scan(&f.RepoID, &f.Path, &f.Name, &f.Size, &f.Type, &f.Language, &f.Content); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return files, nil
}

func scanRepository(row rowScanner) (*Repository, error) {
	var repo Repository
	var topics string
	var pushedAtValue, createdAtValue, updatedAtValue any

	if err := row.Scan(
		&repo.ID, &repo.FullName, &repo.Name, &repo.Owner, &repo.Description,
		&repo.Language, &repo.Stars, &repo.Forks, &repo.URL, &topics,
		&repo.Readme, &pushedAtValue, &createdAtValue, &updatedAtValue,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(topics), &repo.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}

	var err error
	if repo.PushedAt, err = parseTimeValue(pushedAtValue); err != nil {
		return nil, fmt.Errorf("failed to parse pushed_at: %w", err)
	}
	if repo.CreatedAt, err = parseTimeValue(createdAtValue); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if repo.UpdatedAt, err = parseTimeValue(updatedAtValue); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &repo, nil
}

// RepositoryID derives the stable id of a repository from its full name.
func RepositoryID(fullName string) string {
	hash := sha1.Sum([]byte(strings.ToLower(fullName)))
	return hex.EncodeToString(hash[:])
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
