package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hobbyhub/app/config"
	"hobbyhub/app/repositories"
	"hobbyhub/app/routes"

	"go.uber.org/zap"
)

const cliVersion = "1.0.0"

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, in io.Reader, out io.Writer) int {
	if len(args) < 1 {
		printHelp(out)
		return 1
	}

	cmd := strings.ToLower(args[0])
	switch cmd {
	case "help":
		printHelp(out)
	case "version":
		fmt.Fprintf(out, "hobbyhub version %s\n", cliVersion)
	case "clean":
		cfg, err := config.Load(".")
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return 1
		}
		force := len(args) > 1 && (args[1] == "-y" || args[1] == "--yes")
		if err := clean(cfg, force, in, out); err != nil {
			fmt.Fprintf(out, "Failed to clean database: %v\n", err)
			return 1
		}
	case "serve", "migrate":
		cfg, err := config.Load(".")
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return 1
		}
		logger, err := newLogger(cfg)
		if err != nil {
			fmt.Fprintf(out, "Error: failed to build logger: %v\n", err)
			return 1
		}
		defer logger.Sync()

		if cmd == "serve" {
			err = serve(cfg, logger)
		} else {
			err = migrate(cfg, logger)
		}
		if err != nil {
			logger.Errorw("command failed", "command", cmd, "error", err)
			return 1
		}
	default:
		fmt.Fprintf(out, "Unknown command: %s\n\n", args[0])
		printHelp(out)
		return 1
	}
	return 0
}

func printHelp(out io.Writer) {
	helpText := `Usage: hobbyhub <command>
Commands:
  help       Display this help message.
  version    Show version information.
  serve      Run the forum API server.
  migrate    Create the relational tables (STORAGE=postgres or sqlite) and exit.
  clean      Delete the local badger or sqlite database. Pass -y to skip the prompt.

Configuration is read from the environment, .env and config.yml:
  APP_ENV, PORT, STORAGE (memory|postgres|sqlite|badger), DATABASE_URL,
  SQLITE_PATH, BADGER_PATH, REDIS_URL, CACHE_TTL, SEED
`
	fmt.Fprintln(out, helpText)
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	var (
		zapLogger *zap.Logger
		err       error
	)
	if cfg.Development() {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return zapLogger.Sugar(), nil
}

// openStorage builds the backend named by cfg.Storage, running the schema
// setup for relational backends and wrapping it in the redis cache when
// REDIS_URL is set.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (repositories.Storage, error) {
	var storage repositories.Storage

	switch cfg.Storage {
	case config.StorageMemory:
		storage = repositories.NewMemStorage(cfg.Seed)
	case config.StoragePostgres, config.StorageSQLite:
		sqlStorage, err := openSQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		storage = sqlStorage
	case config.StorageBadger:
		badgerStorage, err := repositories.NewBadgerStorage(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		storage = badgerStorage
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	if cfg.RedisURL == "" {
		return storage, nil
	}
	client, err := repositories.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		storage.Close()
		return nil, err
	}
	logger.Infow("caching post lookups in redis", "ttl", cfg.CacheTTL)
	return repositories.NewCachedStorage(storage, client, cfg.CacheTTL, logger), nil
}

func openSQL(ctx context.Context, cfg *config.Config) (*repositories.SQLStorage, error) {
	var open func() (*repositories.SQLStorage, error)
	if cfg.Storage == config.StoragePostgres {
		open = func() (*repositories.SQLStorage, error) {
			db, err := repositories.OpenPostgres(cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			return repositories.NewSQLStorage(db), nil
		}
	} else {
		open = func() (*repositories.SQLStorage, error) {
			db, err := repositories.OpenSQLite(cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
			return repositories.NewSQLStorage(db), nil
		}
	}

	storage, err := open()
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx); err != nil {
		storage.Close()
		return nil, err
	}
	return storage, nil
}

// clean removes the on-disk data of the configured local backend.
func clean(cfg *config.Config, force bool, in io.Reader, out io.Writer) error {
	var path string
	switch cfg.Storage {
	case config.StorageBadger:
		path = cfg.BadgerPath
	case config.StorageSQLite:
		path = cfg.SQLitePath
	default:
		return fmt.Errorf("nothing to clean for STORAGE=%s", cfg.Storage)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "Database is already clean (does not exist)")
		return nil
	}

	if !force {
		fmt.Fprintf(out, "Are you sure you want to delete %s? This cannot be undone. [y/N] ", path)
		response, _ := bufio.NewReader(in).ReadString('\n')
		response = strings.TrimSpace(response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Operation cancelled")
			return nil
		}
	}

	if err := os.RemoveAll(path); err != nil {
		return err
	}
	fmt.Fprintln(out, "Database cleaned successfully")
	return nil
}

func migrate(cfg *config.Config, logger *zap.SugaredLogger) error {
	if cfg.Storage != config.StoragePostgres && cfg.Storage != config.StorageSQLite {
		return fmt.Errorf("migrate needs STORAGE=postgres or sqlite, got %q", cfg.Storage)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	storage, err := openSQL(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Infow("schema is up to date", "storage", cfg.Storage)
	return storage.Close()
}

func serve(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage, err)
	}

	server := routes.NewServer(cfg.Addr(), routes.SetupRoutes(storage, logger))
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("server listening", "addr", server.Addr, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		storage.Close()
		return err
	case <-ctx.Done():
	}

	logger.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := server.Shutdown(shutdownCtx)
	return errors.Join(shutdownErr, storage.Close())
}
