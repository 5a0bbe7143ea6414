package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pcellkit/pkg/buildinfo"
)

// SetVersion overrides the build information shown by --version. Release
// builds set it through ldflags on the buildinfo package instead.
func SetVersion(v, c, d string) {
	buildinfo.Version = v
	buildinfo.Commit = c
	buildinfo.Date = d
}

// Execute runs the pcellkit CLI with args and returns an error if any
// command fails.
//
// Logging goes to stderr at info level, or debug level with --verbose (-v).
// The logger is attached to the command context and reachable through
// loggerFromContext.
func Execute(ctx context.Context, args []string) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	preRun := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		if preRun != nil {
			preRun(cmd, args)
		}
	}

	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
