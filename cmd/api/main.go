package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/blog-service/internal/api/http"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/observability"
	"github.com/spec-kit/blog-service/internal/persistence"
	"github.com/spec-kit/blog-service/internal/repository"
	"github.com/spec-kit/blog-service/internal/service"
	"github.com/spec-kit/blog-service/internal/worker"
	"github.com/spec-kit/blog-service/migrations"
)

const shutdownTimeout = 10 * time.Second

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	envFiles    []string
	migrateOnly bool
	showVersion bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("blog-service", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringSliceVar(&opts.envFiles, "env-file", nil, "env file(s) to load before reading the environment (default: .env if present)")
	flagSet.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply database migrations and exit")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print the version and exit")

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "blog-service %s\n", version)
		return nil
	}

	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.App.Version == "dev" {
		cfg.App.Version = version
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations || opts.migrateOnly {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	if opts.migrateOnly {
		return nil
	}

	var (
		userRepo repository.UserRepository
		blogRepo repository.BlogRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.PoolHandle())
		blogRepo = repository.NewBlogRepository(pg.PoolHandle())
	} else {
		userRepo = repository.NewMemoryUserRepository()
		blogRepo = repository.NewMemoryBlogRepository()
	}

	var (
		redis       *persistence.Redis
		revocations auth.RevocationRegistry
		pruner      worker.Pruner
	)
	switch cfg.Auth.RevocationBackend {
	case config.RevocationBackendRedis:
		redis, err = persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redis.Close()
		revocations = auth.NewRedisRevocations(redis.Client, "")
	case config.RevocationBackendBolt:
		bolt, err := auth.OpenBoltRevocations(cfg.Auth.RevocationBoltPath)
		if err != nil {
			return err
		}
		defer bolt.Close()
		revocations, pruner = bolt, bolt
	default:
		memory := auth.NewMemoryRevocations()
		revocations, pruner = memory, memory
	}
	prunerDone := worker.StartRevocationPruner(ctx, pruner, cfg.Auth.RevocationPruneInterval(), logger)
	logger.Info("revocation registry ready", zap.String("backend", cfg.Auth.RevocationBackend))

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, 0))

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		Revocations: revocations,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	blogService := service.NewBlogService(service.BlogDependencies{
		BlogRepo:   blogRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := httptransport.NewServer(httptransport.ServerDependencies{
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		RequestTimeout: cfg.App.RequestTimeout(),
		Logger:         logger,
		Metrics:        observability.NewMetrics(),
		Postgres:       pg,
		Redis:          redis,
		UserRepo:       userRepo,
		AuthService:    authService,
		BlogService:    blogService,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	cancel()
	<-prunerDone
	return nil
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
