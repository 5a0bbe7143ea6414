package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pcellkit/internal/api"
	"github.com/matzehuels/pcellkit/pkg/cache"
	"github.com/matzehuels/pcellkit/pkg/cells"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/pipeline"
	"github.com/matzehuels/pcellkit/pkg/storage"
)

// serveFlags select the server's backends. Empty addresses fall back to
// the local file cache and an in-memory store.
type serveFlags struct {
	addr        string
	redisAddr   string
	redisPrefix string
	mongoURI    string
	mongoDB     string
}

func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cell library over HTTP",
		Long: `Serve the cell library over HTTP. Exports are cached in Redis when
--redis is set and in the local cache directory otherwise; built layouts
are stored in MongoDB when --mongo is set and in memory otherwise.

  pcellkit serve --addr :8080
  pcellkit serve --redis localhost:6379 --mongo mongodb://localhost:27017`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			pdk, err := c.loadPDK()
			if err != nil {
				return err
			}
			lib := cells.NewLibrary(pdk, pcell.WithLogger(logger))

			var artifacts cache.Cache
			if flags.redisAddr != "" {
				rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: flags.redisAddr, Prefix: flags.redisPrefix})
				if err != nil {
					return err
				}
				artifacts = cache.Instrumented(rc)
				logger.Info("using redis cache", "addr", flags.redisAddr)
			} else if artifacts, err = newCache(false); err != nil {
				return err
			}

			var store storage.Store = storage.NewMemoryStore()
			if flags.mongoURI != "" {
				ms, err := storage.NewMongoStore(ctx, storage.MongoConfig{URI: flags.mongoURI, Database: flags.mongoDB})
				if err != nil {
					artifacts.Close()
					return err
				}
				store = ms
				logger.Info("using mongodb store", "database", flags.mongoDB)
			}

			runner := pipeline.NewRunner(lib, artifacts, newKeyer(), logger)
			srv := api.New(runner, store, logger)
			defer runner.Close(context.WithoutCancel(ctx))
			return srv.ListenAndServe(ctx, flags.addr)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&flags.redisAddr, "redis", "", "Redis address for the export cache")
	cmd.Flags().StringVar(&flags.redisPrefix, "redis-prefix", appName, "key prefix in Redis")
	cmd.Flags().StringVar(&flags.mongoURI, "mongo", "", "MongoDB URI for layout storage")
	cmd.Flags().StringVar(&flags.mongoDB, "mongo-db", appName, "MongoDB database")
	return cmd
}
