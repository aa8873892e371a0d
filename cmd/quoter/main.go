package main

import (
	"fmt"
	"os"

	"github.com/stablebuilds/quoter/internal/config"
	"github.com/stablebuilds/quoter/internal/db"
	"github.com/stablebuilds/quoter/internal/logger"
	"github.com/stablebuilds/quoter/internal/mcp"
	"github.com/stablebuilds/quoter/internal/ops"
	"github.com/stablebuilds/quoter/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"draft": true, "quotation": true, "client": true, "business": true,
	"serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func printBanner() {
	fmt.Println(`
    __ _ _   _  ___ | |_ ___ _ __
   / _' | | | |/ _ \| __/ _ \ '__|
  | (_| | |_| | (_) | ||  __/ |
   \__, |\__,_|\___/ \__\___|_|
      |_|

  Local quotation workbench

  Usage: quoter <command> [options]
         quoter --help

  MCP server mode requires piped input.`)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// --help/--version need no database
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	if env.LogLevel != "" {
		logger.SetLevel(env.LogLevel)
	}
	if env.LogJSON {
		logger.SetJSON()
	}

	database, err := db.Init(env.Home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(env.Home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	svc := ops.NewServices(store.NewSQLiteBackend(database), cfg)

	if isCLIMode() {
		app := newCLIApp(svc)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal: report instead of starting the MCP server
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'quoter --help' for usage.\n")
		os.Exit(1)
	}

	if err := mcp.Run(svc, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
