// Package cli implements the pcellkit command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pcellkit/pkg/buildinfo"
	"github.com/matzehuels/pcellkit/pkg/cache"
	"github.com/matzehuels/pcellkit/pkg/cells"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/pipeline"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pcellkit"

	// envPDK names a PDK file used when --pdk is not given.
	envPDK = "PCELLKIT_PDK"
)

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

	// pdkPath is bound to the persistent --pdk flag.
	pdkPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "pcellkit builds photonic component layouts",
		Long:         `pcellkit builds parametric photonic cells, composes them from netlists and routes waveguides between their ports.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.pdkPath, "pdk", "", "PDK file in TOML (default $"+envPDK+" or the generic PDK)")

	root.AddCommand(c.cellsCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.netlistCommand())
	root.AddCommand(c.pdkCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Library and Runner Factories
// =============================================================================

// loadPDK reads the PDK named by --pdk or $PCELLKIT_PDK, falling back to the
// built-in generic PDK.
func (c *CLI) loadPDK() (*tech.PDK, error) {
	path := c.pdkPath
	if path == "" {
		path = os.Getenv(envPDK)
	}
	if path == "" {
		return tech.GenericPDK(), nil
	}
	c.Logger.Debug("loading PDK", "path", path)
	return tech.LoadPDK(path)
}

// newLibrary creates a cell library with every built-in cell registered.
func (c *CLI) newLibrary() (*pcell.Library, error) {
	pdk, err := c.loadPDK()
	if err != nil {
		return nil, err
	}
	return cells.NewLibrary(pdk, pcell.WithLogger(c.Logger)), nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	lib, err := c.newLibrary()
	if err != nil {
		return nil, err
	}
	fc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(lib, fc, newKeyer(), c.Logger), nil
}

// newKeyer scopes cache keys by build version, so a new release never
// serves exports written by an older one.
func newKeyer() cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.Instrumented(fc), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pcellkit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
