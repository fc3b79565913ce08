package cli

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"minigame-service/internal/catalog"
	"minigame-service/internal/config"
	"minigame-service/internal/infra/postgres"
	infraredis "minigame-service/internal/infra/redis"
)

// NewSeedCmd upserts a YAML catalogue (or the builtin one) into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load game definitions into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if source == "" {
				source = cfg.Catalog.Path
			}
			loader, err := openCatalog(source)
			if err != nil {
				return err
			}

			if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
				return err
			}
			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := postgres.NewSeeder(db).Upsert(ctx, loader.Games())
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "catalogue seeded", "games", n, "source", sourceName(source))

			if client := newRedisClient(cfg); client != nil {
				defer client.Close()
				ttl := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
				if err := invalidateCached(ctx, client, loader, ttl); err != nil {
					return err
				}
				logger.InfoContext(ctx, "cached definitions invalidated", "games", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "catalog", "", "catalogue file or directory (default: config catalog.path, then builtin)")
	return cmd
}

// invalidateCached evicts seeded definitions from the Redis cache so running
// servers reload them from Postgres on the next read.
func invalidateCached(ctx context.Context, client *redis.Client, loader *catalog.Loader, ttl time.Duration) error {
	ids, err := loader.ListGameIDs(ctx)
	if err != nil {
		return err
	}
	return infraredis.NewGameRepository(client, loader, ttl).Invalidate(ctx, ids...)
}

func openCatalog(path string) (*catalog.Loader, error) {
	if path == "" {
		return catalog.Builtin()
	}
	return catalog.Load(path)
}

func sourceName(path string) string {
	if path == "" {
		return "builtin"
	}
	return path
}
