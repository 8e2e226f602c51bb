// Package relevance ranks GitHub repository candidates against a project's
// tech stack and keywords.
package relevance

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
)

// Score weights.
const (
	techNameWeight        = 0.30
	techDescriptionWeight = 0.20
	techLanguageWeight    = 0.25
	techTopicWeight       = 0.15

	keywordNameWeight        = 0.10
	keywordDescriptionWeight = 0.08

	starsPerPoint = 10000.0
	maxStarsBonus = 0.20

	recencyBonus  = 0.10
	recencyMonths = 6

	maxScore = 1.0
)

// Repository is a repository candidate returned by a search.
type Repository struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	FullName       string    `json:"full_name"`
	Owner          string    `json:"owner"`
	URL            string    `json:"url"`
	Description    string    `json:"description"`
	Language       string    `json:"language"`
	Stars          int       `json:"stars"`
	Topics         []string  `json:"topics"`
	UpdatedAt      time.Time `json:"updated_at"`
	RelevanceScore float64   `json:"relevance_score"`
}

// Query is what repositories are scored against. The project type reaches
// scoring through the keywords ExtractKeywords derives from it.
type Query struct {
	Keywords  []string
	TechStack []string
}

// Dedupe drops repeated repositories, keeping the first occurrence.
// Repositories are identified by ID, or by FullName when ID is empty.
func Dedupe(repos []Repository) []Repository {
	seen := make(map[string]bool, len(repos))
	out := make([]Repository, 0, len(repos))
	for _, repo := range repos {
		key := repo.ID
		if key == "" {
			key = "name:" + strings.ToLower(repo.FullName)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, repo)
	}
	return out
}

// Score dedupes repos, sets RelevanceScore on each and returns them best
// first. Equal scores keep their input order. now anchors the recency bonus.
func Score(repos []Repository, q Query, now time.Time) []Repository {
	scored := Dedupe(repos)

	techStack := lowerAll(q.TechStack)
	keywords := lowerAll(q.Keywords)
	recentSince := now.AddDate(0, -recencyMonths, 0)

	for i := range scored {
		scored[i].RelevanceScore = scoreOne(&scored[i], techStack, keywords, recentSince)
	}

	slices.SortStableFunc(scored, func(a, b Repository) int {
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})
	return scored
}

func scoreOne(repo *Repository, techStack, keywords []string, recentSince time.Time) float64 {
	name := strings.ToLower(repo.Name)
	description := strings.ToLower(repo.Description)
	language := strings.ToLower(repo.Language)
	topics := lowerAll(repo.Topics)

	var score float64

	for _, tech := range techStack {
		if strings.Contains(name, tech) {
			score += techNameWeight
		}
		if strings.Contains(description, tech) {
			score += techDescriptionWeight
		}
		if language != "" && language == tech {
			score += techLanguageWeight
		}
		if slices.ContainsFunc(topics, func(topic string) bool { return strings.Contains(topic, tech) }) {
			score += techTopicWeight
		}
	}

	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			score += keywordNameWeight
		}
		if strings.Contains(description, keyword) {
			score += keywordDescriptionWeight
		}
	}

	score += math.Min(float64(repo.Stars)/starsPerPoint, maxStarsBonus)

	if repo.UpdatedAt.After(recentSince) {
		score += recencyBonus
	}

	return math.Max(0, math.Min(score, maxScore))
}

// lowerAll lower-cases terms and drops empty ones; an empty term would
// match every name.
func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
