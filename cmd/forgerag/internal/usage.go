package internal

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.3.0"

// PrintUsage writes the top-level help to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `forgerag - Repository RAG and relevance scoring

Version: %s

USAGE:
    forgerag [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.forgerag/config/forgerag.yaml)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    import
        Import scraped repository JSON into the local database

    embed
        Chunk and embed imported READMEs and docs

    search
        Semantic search over embedded documents

    stats
        Show database and index statistics

    clear
        Remove embedded documents (or everything with -all)

    repos
        Find and rank repositories for a project

    backlog
        List, propose and complete project features

    mcp
        Run MCP stdio server (tools: forgerag_rag_search, forgerag_score_repos, forgerag_stats)

EXAMPLES:
    # Import repositories scraped from GitHub
    forgerag import repos.json

    # Embed everything that was imported
    forgerag embed

    # Search embedded documents
    forgerag search "streaming chat responses"

    # Rank repositories for an AI chatbot written in TypeScript
    forgerag repos -type ai-chatbot -stack typescript "assistant with memory"

    # Propose the next feature with repository context
    forgerag backlog next -query "authentication"

For detailed help on each command, use:
    forgerag <command> -help
`, Version)
}

// StringList is a flag.Value that collects repeated or comma separated values
type StringList []string

func (s *StringList) String() string {
	return strings.Join(*s, ",")
}

// Set appends value, splitting on commas.
func (s *StringList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}
