package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/intentdesk/internal/client"
	"github.com/hpungsan/intentdesk/internal/db"
	"github.com/hpungsan/intentdesk/internal/devbackend"
	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/export"
	"github.com/hpungsan/intentdesk/internal/intent"
	"github.com/hpungsan/intentdesk/internal/web"
)

// newCLIApp creates the CLI application with all commands. env may be nil
// when only help or version output is needed.
func newCLIApp(env *cliEnv) *cli.App {
	app := &cli.App{
		Name:    "intentdesk",
		Usage:   "Admin console for intents",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|yaml"},
		},
		Commands: []*cli.Command{
			serveCmd(env),
			backendCmd(env),
			mcpCmd(env),
			listCmd(env),
			createCmd(env),
			updateCmd(env),
			deleteCmd(env),
			reportCmd(env),
			jsonldCmd(env),
			exportCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web console",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			loc, err := env.cfg.Location()
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			ttl, err := env.cfg.SessionIdle()
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			backend, err := env.client(client.NewMetrics(reg))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			srv, err := web.NewServer(backend, web.Options{
				Version:    Version,
				Bind:       firstNonEmpty(c.String("bind"), env.cfg.Bind),
				Port:       firstPositive(c.Int("port"), env.cfg.Port),
				Location:   loc,
				SessionTTL: ttl,
				Gatherer:   reg,
				Logger:     env.logger,
			})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			env.logger.Info("using backend", "url", backend.ResourceURL())
			return web.Run(srv, "intentdesk console", env.logger)
		},
	}
}

// backendCmd creates the backend command.
func backendCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "backend",
		Usage: "Run the SQLite development backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default backend_port)"},
			&cli.StringFlag{Name: "db", Usage: "SQLite file (default backend_db_path)"},
		},
		Action: func(c *cli.Context) error {
			path := env.cfg.DBPath(env.baseDir)
			if p := c.String("db"); p != "" {
				path = p
			}

			store, err := db.Init(path)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer store.Close()

			srv := devbackend.NewServer(store, env.logger,
				firstNonEmpty(c.String("bind"), env.cfg.Bind),
				firstPositive(c.Int("port"), env.cfg.BackendPort),
			)
			env.logger.Info("dev backend database", "path", path)
			return web.Run(srv, "intentdesk dev backend", env.logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the intent tools over MCP stdio",
		Action: func(c *cli.Context) error {
			if err := runMCP(env); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// listCmd creates the list command.
func listCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List intents",
		Action: func(c *cli.Context) error {
			backend, err := env.client(nil)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			intents, err := backend.List(c.Context)
			if err != nil {
				return outputError(err)
			}
			if intents == nil {
				intents = []intent.Intent{}
			}
			return output(c, map[string]any{"intents": intents, "count": len(intents)})
		},
	}
}

// createCmd creates the create command.
func createCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an intent (content may be piped via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Author (required)"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Content (or stdin)"},
		},
		Action: func(c *cli.Context) error {
			content, err := contentArg(c)
			if err != nil {
				return outputError(err)
			}
			d := intent.Draft{Author: c.String("author"), Content: content}.Normalize()
			if err := d.Validate(); err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			backend, err := env.client(nil)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			created, err := backend.Create(c.Context, d)
			if err != nil {
				return outputError(err)
			}
			return output(c, map[string]any{"created": true, "intent": created})
		},
	}
}

// updateCmd creates the update command.
func updateCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Replace the content of an intent (content may be piped via stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "New content (or stdin)"},
		},
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			content, err := contentArg(c)
			if err != nil {
				return outputError(err)
			}
			p := intent.Patch{Content: content}.Normalize()
			if err := p.Validate(); err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			backend, err := env.client(nil)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			if err := backend.Update(c.Context, id, p); err != nil {
				return outputError(err)
			}
			return output(c, map[string]any{"updated": true, "id": id})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an intent",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			backend, err := env.client(nil)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			if err := backend.Delete(c.Context, id); err != nil {
				return outputError(err)
			}
			return output(c, map[string]any{"deleted": true, "id": id})
		},
	}
}

// reportCmd creates the report command.
func reportCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Show the report entries of an intent",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			backend, err := env.client(nil)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			entries, err := backend.Report(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			if entries == nil {
				entries = []intent.ReportEntry{}
			}
			return output(c, map[string]any{"id": id, "entries": entries, "count": len(entries)})
		},
	}
}

// jsonldCmd creates the jsonld command.
func jsonldCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "jsonld",
		Usage:     "Show the JSON-LD document of an intent",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			backend, err := env.client(nil)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			doc, err := backend.JSONLD(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return output(c, doc)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export every intent to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Output file (default ~/.intentdesk/exports/intents-<time>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			backend, err := env.client(nil)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			result, err := export.Export(c.Context, backend, export.Input{
				Path:   strings.TrimSpace(c.String("path")),
				Dir:    filepath.Join(env.baseDir, "exports"),
				Source: backend.ResourceURL(),
			})
			if err != nil {
				return outputError(err)
			}
			return output(c, result)
		},
	}
}

// output writes v to the app's writer in the selected --format.
func output(c *cli.Context, v any) error {
	w := c.App.Writer
	if w == nil {
		w = os.Stdout
	}
	switch format := c.String("format"); format {
	case "", "json":
		return outputJSON(w, v)
	case "yaml":
		return outputYAML(w, v)
	default:
		return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want json or yaml)", format)))
	}
}

// outputJSON writes JSON output.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes YAML output. Values go through JSON first so field
// names match the JSON output.
func outputYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// outputError formats error for CLI.
func outputError(err error) error {
	var cErr *errors.ConsoleError
	if stderrors.As(err, &cErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// idArg returns the positional intent ID.
func idArg(c *cli.Context) (intent.ID, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", errors.NewInvalidRequest("intent id is required")
	}
	if c.NArg() > 1 {
		return "", errors.NewInvalidRequest("expected exactly one intent id")
	}
	return intent.ID(id), nil
}

// contentArg returns --content, or piped stdin when the flag is absent.
func contentArg(c *cli.Context) (string, error) {
	if c.IsSet("content") {
		return c.String("content"), nil
	}
	if !stdinHasData() {
		return "", nil
	}
	text, err := readStdin()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return text, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstPositive(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
