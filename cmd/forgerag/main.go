package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/DreamCats/forgerag/cmd/forgerag/internal"
	"github.com/DreamCats/forgerag/internal/config"
)

// Commands that write a default config template when none exists.
var templateCommands = map[string]bool{
	"import": true,
	"embed":  true,
}

func main() {
	if len(os.Args) < 2 {
		internal.PrintUsage()
		os.Exit(1)
	}

	configPath := ""
	args := os.Args[1:]

	validSubcommands := map[string]bool{
		"import":  true,
		"embed":   true,
		"search":  true,
		"stats":   true,
		"clear":   true,
		"repos":   true,
		"backlog": true,
		"mcp":     true,
	}

	subcommandIndex := -1
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && validSubcommands[arg] {
			subcommandIndex = i
			break
		}
	}

	globalFlags := args
	if subcommandIndex >= 0 {
		globalFlags = args[:subcommandIndex]
	}
	for i := 0; i < len(globalFlags); i++ {
		flag := globalFlags[i]
		switch flag {
		case "-config", "--config":
			if i+1 < len(globalFlags) {
				configPath = globalFlags[i+1]
				i++
			}
		case "-h", "-help", "--help":
			internal.PrintUsage()
			os.Exit(0)
		case "-v", "-version", "--version":
			fmt.Printf("forgerag version %s\n", internal.Version)
			os.Exit(0)
		default:
			if strings.HasPrefix(flag, "-") {
				fmt.Fprintf(os.Stderr, "Error: Unknown global flag: %s\n\n", flag)
				internal.PrintUsage()
				os.Exit(1)
			}
		}
	}

	if subcommandIndex == -1 {
		fmt.Fprintf(os.Stderr, "Error: No subcommand specified\n\n")
		internal.PrintUsage()
		os.Exit(1)
	}

	subcommand := args[subcommandIndex]
	subcommandArgs := args[subcommandIndex+1:]

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		if config.IsConfigNotFound(err) {
			if templateCommands[subcommand] {
				templatePath := configPath
				if templatePath == "" {
					templatePath, _ = config.DefaultPath()
				}
				created, createErr := config.WriteDefaultTemplate(templatePath)
				if createErr != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
					fmt.Fprintf(os.Stderr, "Also failed to create default config at %s: %v\n\n", templatePath, createErr)
					internal.PrintConfigExample()
					os.Exit(1)
				}
				if created {
					fmt.Fprintf(os.Stderr, "Created default config at %s\n", templatePath)
				}
				fmt.Fprintf(os.Stderr, "Please update embedding.api_key in the config file and rerun `forgerag %s`.\n", subcommand)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			internal.PrintConfigExample()
			os.Exit(1)
		}
		log.Fatalf("Failed to load config: %v\n", err)
	}

	closeLog, err := internal.SetupLogging(subcommand)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize log file: %v\n", err)
	} else {
		defer closeLog()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch subcommand {
	case "import":
		runErr = handleImport(ctx, cfg, subcommandArgs)
	case "embed":
		runErr = handleEmbed(ctx, cfg, subcommandArgs)
	case "search":
		runErr = handleSearch(ctx, cfg, subcommandArgs)
	case "stats":
		runErr = handleStats(ctx, cfg, subcommandArgs)
	case "clear":
		runErr = handleClear(ctx, cfg, subcommandArgs)
	case "repos":
		runErr = handleRepos(ctx, cfg, subcommandArgs)
	case "backlog":
		runErr = handleBacklog(ctx, cfg, subcommandArgs)
	case "mcp":
		runErr = handleMCP(ctx, cfg, subcommandArgs)
	}

	if runErr != nil {
		log.Printf("Error: %v", runErr)
		if closeLog != nil {
			closeLog()
		}
		stop()
		os.Exit(1)
	}
}
