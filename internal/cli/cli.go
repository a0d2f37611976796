// Package cli implements the ols command-line interface.
//
// The commands browse an Ontology Lookup Service instance: list ontologies
// and their terms, resolve a term by IRI, walk its hierarchy, run full-text
// searches and render a term's neighbourhood graph. The CLI is built with
// cobra and logs through charmbracelet/log; --verbose enables debug output
// including every page fetch.
//
// # Commands
//
//   - ontologies, ontology: list ontologies or show one
//   - terms, term: list the terms of an ontology or resolve one term
//   - relatives: parents, children, ancestors or descendants of a term
//   - search: full-text search, optionally with an interactive picker
//   - graph: a term's neighbourhood as JSON, DOT or SVG
//
// # Configuration
//
// Settings are read from $XDG_CONFIG_HOME/ols/config.toml (or --config)
// and OLS_* environment variables; --site overrides the API root.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/olsclient/internal/config"
	olserrors "github.com/matzehuels/olsclient/pkg/errors"
	"github.com/matzehuels/olsclient/pkg/observability"
	"github.com/matzehuels/olsclient/pkg/ols"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "ols"

// defaultLimit is the number of records listed when --limit is not given.
const defaultLimit = 20

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Out receives command output, Err the spinner and error reports.
	Out io.Writer
	Err io.Writer
	// Progress shows a spinner while remote calls run.
	Progress bool

	configPath string
	site       string
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		Out:      os.Stdout,
		Err:      w,
		Progress: true,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Report prints err for the user, with its OLS error code when it has one.
func (c *CLI) Report(err error) {
	if code := olserrors.GetCode(err); code != "" {
		printError(c.Err, "%s %s", olserrors.UserMessage(err), StyleDim.Render("("+string(code)+")"))
		c.Logger.Debug("command failed", "err", err)
		return
	}
	printError(c.Err, "%s", err)
}

// =============================================================================
// Client Factory
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.site != "" {
		cfg.Site = c.site
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newClient loads the configuration and connects to the API root.
func (c *CLI) newClient(ctx context.Context) (*ols.Client, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", cfg.Path, "site", cfg.Site, "page_size", cfg.PageSize)
	client, err := ols.NewClient(ctx, cfg.ClientOptions(c.Logger)...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Site, err)
	}
	return client, nil
}

// withProgress runs fn behind a spinner that follows page fetches and
// retries.
func (c *CLI) withProgress(ctx context.Context, label string, fn func(context.Context) error) error {
	prog := newProgress(c.Logger)
	if !c.Progress {
		err := fn(ctx)
		prog.done(label, "ok", err == nil)
		return err
	}

	s := newSpinner(ctx, c.Err, label+"...")
	observability.SetCollectionHooks(spinnerHooks{spinner: s, label: label})
	defer observability.SetCollectionHooks(observability.NoopCollectionHooks{})

	s.Start()
	err := fn(ctx)
	s.Stop()
	prog.done(label, "ok", err == nil)
	return err
}

// take collects up to limit items from the cursor of col onwards. A limit
// of zero or less takes every remaining item.
func take[T any](ctx context.Context, col *ols.Collection[T], limit int) ([]T, error) {
	var out []T
	for item, err := range col.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
