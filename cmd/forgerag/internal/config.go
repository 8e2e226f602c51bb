package internal

import (
	"fmt"
	"os"

	"github.com/DreamCats/forgerag/internal/config"
)

// LoadConfig reads the config file at configPath, or the default location
// when configPath is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// PrintConfigExample prints a minimal configuration to stderr.
func PrintConfigExample() {
	configPath, err := config.DefaultPath()
	if err != nil {
		configPath = "~/.forgerag/config/forgerag.yaml"
	}

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

# Embedding service configuration (required for embed, search and RAG)
embedding:
  # Provider: "openai" | "volcengine"
  provider: openai
  api_key: your-openai-api-key
  model: text-embedding-3-small
  batch_size: 10

# For VolcEngine Ark, use:
# embedding:
#   provider: volcengine
#   api_key: your-volcengine-api-key
#   model: doubao-embedding-text-240715

search:
  limit: 10
  threshold: 0.7        # minimum cosine similarity, exclusive

github:
  token: ""             # or set GITHUB_TOKEN

Usage:
  1. Create the config file
  2. Import scraped repositories: forgerag import repos.json
  3. Embed them: forgerag embed
  4. Search: forgerag search "your query"
`, configPath)
}
