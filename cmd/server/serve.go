package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/UkralStul/postit/graph"
	"github.com/UkralStul/postit/internal/auth"
	"github.com/UkralStul/postit/internal/cache"
	"github.com/UkralStul/postit/internal/config"
	"github.com/UkralStul/postit/internal/mail"
	"github.com/UkralStul/postit/internal/server"
	"github.com/UkralStul/postit/internal/service"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/UkralStul/postit/internal/storage/inmemory"
	"github.com/UkralStul/postit/internal/storage/postgres"
	"github.com/UkralStul/postit/internal/validation"
)

const (
	storageFlag = "storage"
	cacheFlag   = "cache"
	seedFlag    = "seed"
)

var serveFlags = map[string]cobraflags.Flag{
	storageFlag: &cobraflags.StringFlag{
		Name:  storageFlag,
		Value: "in-memory",
		Usage: "Storage type (in-memory or postgres)",
	},
	cacheFlag: &cobraflags.StringFlag{
		Name:  cacheFlag,
		Value: "memory",
		Usage: "Cache type (memory or redis)",
	},
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the GraphQL API server",
		RunE:  serveCommand,
	}
	cobraflags.RegisterMap(cmd, serveFlags)
	cmd.Flags().Bool(seedFlag, false, "Fill in-memory storage with demo data")
	return cmd
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storageType := serveFlags[storageFlag].GetString()
	log.Info("starting server", slog.String("storage", storageType), slog.String("env", cfg.Env))

	store, closeStore, err := openStorage(storageType, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	c, closeCache, err := openCache(ctx, serveFlags[cacheFlag].GetString(), cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	resolver, err := newResolver(cfg, store, c, log)
	if err != nil {
		return err
	}
	seed, err := cmd.Flags().GetBool(seedFlag)
	if err != nil {
		return err
	}
	if storageType == "in-memory" && seed {
		if err := fillWithMockData(ctx, resolver, log); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: server.NewRouter(server.Options{
			Resolver:   resolver,
			Storage:    store,
			ClientURL:  cfg.ClientURL,
			Playground: !cfg.Production(),
			Log:        log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", "http://localhost:"+cfg.Port+"/"), slog.String("graphql", server.GraphQLPath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func openStorage(kind string, cfg *config.Config) (storage.Storage, func(), error) {
	switch kind {
	case "in-memory":
		return inmemory.New(), func() {}, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL must be set for postgres storage")
		}
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", kind)
	}
}

func openCache(ctx context.Context, kind string, cfg *config.Config) (cache.Cache, func(), error) {
	switch kind {
	case "memory":
		return cache.NewMemory(0), func() {}, nil
	case "redis":
		c, err := cache.Dial(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return c, func() { _ = c.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache type %q", kind)
	}
}

func newResolver(cfg *config.Config, store storage.Storage, c cache.Cache, log *slog.Logger) (*graph.Resolver, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTRefreshSecret)
	if err != nil {
		return nil, err
	}
	cookies, err := auth.NewCookieCodec(cfg.CookieSecret, cfg.Production())
	if err != nil {
		return nil, err
	}
	mailer, err := mail.NewMailer(mail.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass), cfg.ClientURL)
	if err != nil {
		return nil, err
	}

	v := validation.New()
	return &graph.Resolver{
		Users:        service.NewUserService(store, auth.NewPasswordService(), v, log),
		Communities:  service.NewCommunityService(store, c, v, log),
		Posts:        service.NewPostService(store, c, v, log),
		Verification: service.NewVerificationService(store, c, mailer),
		Sessions:     auth.NewManager(tokens, cookies, c, log),
		Observer:     graph.NewPostObserver(),
		Log:          log,
	}, nil
}
