package mcpserver

import "fmt"

// formatBytes formats bytes to human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func pickInt(input int, fallback int) int {
	if input > 0 {
		return input
	}
	return fallback
}

// ensureStringSlice keeps empty lists as [] in tool output; the generated
// output schema rejects null arrays.
func ensureStringSlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
