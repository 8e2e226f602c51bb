package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/DreamCats/forgerag/internal/config"
)

// SetupLogging mirrors the standard logger into a per-run file under
// ~/.forgerag/logs. The returned function closes the file.
func SetupLogging(subcommand string) (func(), error) {
	base, err := config.BaseDir()
	if err != nil {
		return nil, err
	}

	logDir := filepath.Join(base, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102-150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("forgerag-%s-%s-%d.log", subcommand, timestamp, os.Getpid()))

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	log.Printf("Log file: %s", logPath)
	return func() {
		log.SetOutput(os.Stderr)
		logFile.Close()
	}, nil
}
