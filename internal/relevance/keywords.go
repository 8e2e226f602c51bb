package relevance

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// GenericKeywords are appended to every keyword set.
var GenericKeywords = []string{"nextjs", "fullstack", "typescript", "react", "tailwind", "prisma"}

const (
	maxQueryWords = 5
	minQueryRunes = 4 // words must be longer than 3 characters
)

// Bundles maps a project type to the search keywords it implies.
type Bundles map[string][]string

// DefaultBundles returns the built-in project type keyword bundles.
func DefaultBundles() Bundles {
	return Bundles{
		"quantum-os": {
			"quantum computing", "quantum simulation", "quantum circuits", "Qiskit",
			"quantum algorithms", "quantum machine learning", "ibm quantum", "quantum development",
		},
		"book-writer": {
			"writing assistant", "book generation", "AI writing", "text generation",
			"editor", "markdown", "document processing", "content creation",
		},
		"ai-chatbot": {
			"chatbot", "AI assistant", "conversational AI", "LLM",
			"language model", "chat interface", "RAG",
		},
		"e-commerce": {
			"ecommerce", "shopify", "stripe", "payment",
			"inventory", "product catalog", "shopping cart",
		},
		"dashboard": {
			"analytics", "dashboard", "charts", "visualization",
			"data visualization", "metrics", "reporting",
		},
		"custom": {},
	}
}

// Types lists the known project types in sorted order.
func (b Bundles) Types() []string {
	return slices.Sorted(maps.Keys(b))
}

type bundlesFile struct {
	Version      int                 `yaml:"version"`
	ProjectTypes map[string][]string `yaml:"project_types"`
}

// LoadBundlesFile reads project type overrides and layers them over the
// defaults. A missing file or empty path yields the defaults.
func LoadBundlesFile(path string) (Bundles, error) {
	bundles := DefaultBundles()
	if strings.TrimSpace(path) == "" {
		return bundles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return bundles, nil
		}
		return nil, fmt.Errorf("read project types file: %w", err)
	}

	var file bundlesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse project types file: %w", err)
	}

	for projectType, keywords := range file.ProjectTypes {
		projectType = strings.TrimSpace(projectType)
		if projectType == "" {
			continue
		}
		bundles[projectType] = keywords
	}
	return bundles, nil
}

// ExtractKeywords builds the search keyword list for a project.
//
// Order: tech stack terms, the project type bundle, up to five words from
// the lower-cased query that are longer than three characters, then
// GenericKeywords. Duplicates keep their first position and empty strings
// are dropped. Unknown project types contribute nothing.
func ExtractKeywords(query, projectType string, techStack []string, bundles Bundles) []string {
	candidates := make([]string, 0, len(techStack)+16)
	candidates = append(candidates, techStack...)
	candidates = append(candidates, bundles[projectType]...)

	words := 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if words == maxQueryWords {
			break
		}
		if utf8.RuneCountInString(word) < minQueryRunes {
			continue
		}
		candidates = append(candidates, word)
		words++
	}

	candidates = append(candidates, GenericKeywords...)

	seen := make(map[string]bool, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, k := range candidates {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
	}
	return keywords
}
