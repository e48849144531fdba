// Package cli implements the linkgraph command-line interface.
//
// Commands:
//   - render: load a diagram document, lay it out and write SVG, JSON or TOML
//   - check: load a document and audit the resulting model
//   - serve: run the HTTP API
//
// Settings come from an optional TOML file (--config); flags override it.
// --verbose switches logging to debug level. The logger travels to commands
// through the command context.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgraph/pkg/buildinfo"
	"github.com/matzehuels/linkgraph/pkg/config"
	"github.com/matzehuels/linkgraph/pkg/pipeline"
	"github.com/matzehuels/linkgraph/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName names the cache directory and the binary.
const appName = "linkgraph"

// Log levels for main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI
// =============================================================================

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	out        io.Writer
	configPath string
	verbose    bool
	cfg        config.Config
}

// New creates a CLI that logs to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		cfg:    config.Default(),
	}
}

// SetLogLevel changes the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command summaries (default stdout).
func (c *CLI) SetOutput(w io.Writer) { c.out = w }

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "linkgraph builds and renders node-link diagrams",
		Long:          `linkgraph keeps node-link diagrams (nodes, edges and groups) consistent under edits and renders them as SVG. It works on JSON or TOML diagram documents, from the command line or over HTTP.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(contextWithLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML settings file")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.serveCommand())
	return root
}

// =============================================================================
// Wiring
// =============================================================================

// openStore opens the configured snapshot/artifact store, or a NullStore
// when disabled is set.
func (c *CLI) openStore(ctx context.Context, disabled bool) (store.Store, error) {
	if disabled {
		return store.NewNullStore(), nil
	}
	sc := c.cfg.Store
	dir := sc.Dir
	if sc.Backend == config.BackendFile && dir == "" {
		d, err := cacheDir()
		if err != nil {
			loggerFrom(ctx).Warn("no cache directory, caching disabled", "err", err)
			return store.NewNullStore(), nil
		}
		dir = d
	}
	return store.Open(ctx, store.Options{
		Backend:    sc.Backend,
		Dir:        dir,
		URL:        sc.URL,
		Database:   sc.Database,
		Collection: sc.Collection,
	})
}

func (c *CLI) keyer() store.Keyer {
	if c.cfg.Store.Prefix != "" {
		return store.NewScopedKeyer(nil, c.cfg.Store.Prefix)
	}
	return store.NewDefaultKeyer()
}

// newRunner creates a pipeline runner over the configured store.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	st, err := c.openStore(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(st, c.keyer(), loggerFrom(ctx)), nil
}

// pipelineOptions carries the configured graph options and a profile that
// keeps their cached artifacts apart.
func (c *CLI) pipelineOptions() pipeline.Options {
	data, _ := json.Marshal(struct {
		Defaults config.Defaults
		Layout   config.Layout
	}{c.cfg.Defaults, c.cfg.Layout})
	return pipeline.Options{
		GraphOptions: c.cfg.DiagramOptions(),
		Profile:      store.Hash(data),
	}
}

// cacheDir returns $XDG_CACHE_HOME/linkgraph or ~/.cache/linkgraph.
func cacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
