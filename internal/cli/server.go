package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"minigame-service/internal/app"
	"minigame-service/internal/config"
	"minigame-service/internal/events"
	"minigame-service/internal/infra/memory"
	pgloader "minigame-service/internal/infra/postgres"
	infraredis "minigame-service/internal/infra/redis"
	transport "minigame-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// gameSource is what a catalogue backend offers: definitions plus their ids.
type gameSource interface {
	memory.GameLoader
	app.GameLister
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var loader gameSource
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewGameLoader(pool)
	} else {
		if loader, err = openCatalog(cfg.Catalog.Path); err != nil {
			return err
		}
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var gameRepo app.GameRepository
	var store app.SessionRepository
	if redisClient != nil {
		gameRepo = infraredis.NewGameRepository(redisClient, loader, catalogTTL)
		store = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		gameRepo = memory.NewGameRepository(loader, catalogTTL)
		store = memory.NewSessionStore()
	}

	publisher, err := events.NewPublisher(events.Config{
		KafkaBrokers: cfg.Events.KafkaBrokers,
		Topic:        cfg.Events.Topic,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer publisher.Close()

	service := app.NewGameService(store, gameRepo,
		app.WithLogger(logger),
		app.WithDelays(cfg.Delays()),
		app.WithLister(loader),
		app.WithPublisher(publisher),
	)

	router := transport.NewRouter(
		transport.NewAPI(service, logger),
		transport.NewWSHandler(service, logger),
		cfg.Server.AllowedOrigins,
	)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(cfg.Events.KafkaBrokers) == 0 {
		completions, err := publisher.Subscribe(gctx)
		if err != nil {
			return err
		}
		g.Go(func() error {
			events.LogCompletions(logger, completions)
			return nil
		})
	}
	sessionIdle := config.TTLDuration(cfg.Server.SessionIdle, redisTTL)
	g.Go(func() error {
		return service.RunReaper(gctx, reaperInterval(sessionIdle), sessionIdle)
	})
	g.Go(func() error {
		logger.Info("starting game service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()
		service.Shutdown(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func reaperInterval(idle time.Duration) time.Duration {
	if interval := idle / 4; interval > time.Second {
		return interval
	}
	return time.Second
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
