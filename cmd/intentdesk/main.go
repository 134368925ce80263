package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/intentdesk/internal/client"
	"github.com/hpungsan/intentdesk/internal/config"
	"github.com/hpungsan/intentdesk/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "backend": true, "mcp": true,
	"list": true, "create": true, "update": true, "delete": true,
	"report": true, "jsonld": true, "export": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	// Global flags (--format, --help, --version) → CLI
	return len(arg) > 1 && arg[0] == '-'
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

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _       _             _      _           _
  (_)_ __ | |_ ___ _ __ | |_ __| | ___  ___| | __
  | | '_ \| __/ _ \ '_ \| __/ _' |/ _ \/ __| |/ /
  | | | | | ||  __/ | | | || (_| |  __/\__ \   <
  |_|_| |_|\__\___|_| |_|\__\__,_|\___||___/_|\_\

  Admin console for intents

  Usage: intentdesk <command> [options]
         intentdesk --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Handle --help/--version before config load
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".intentdesk")

	cfg, err := loadConfig(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := &cliEnv{cfg: cfg, baseDir: baseDir, logger: logger}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'intentdesk --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := runMCP(env); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env files, the global and project config files and the
// environment, in increasing precedence.
func loadConfig(baseDir string) (*config.Config, error) {
	if err := config.LoadEnvFiles(".env", filepath.Join(baseDir, ".env")); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMCP(env *cliEnv) error {
	if unknown := mcp.ValidateDisabledTools(env.cfg.DisabledTools); len(unknown) > 0 {
		env.logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	c, err := env.client(nil)
	if err != nil {
		return err
	}
	return mcp.Run(c, env.cfg, Version)
}

// cliEnv carries what commands need once configuration is loaded.
type cliEnv struct {
	cfg     *config.Config
	baseDir string
	logger  *slog.Logger
}

// client builds a backend client from the configuration. metrics may be nil.
func (e *cliEnv) client(metrics *client.Metrics) (*client.Client, error) {
	timeout, err := e.cfg.Timeout()
	if err != nil {
		return nil, err
	}
	return client.New(e.cfg.BackendURL,
		client.WithTimeout(timeout),
		client.WithLogger(e.logger),
		client.WithMetrics(metrics),
	)
}
