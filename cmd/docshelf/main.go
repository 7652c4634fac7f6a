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

	"github.com/spf13/cobra"

	httpadapter "github.com/PabloGalante/docshelf/internal/adapters/http"
	firestorestore "github.com/PabloGalante/docshelf/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/docshelf/internal/adapters/storage/memory"
	mongostore "github.com/PabloGalante/docshelf/internal/adapters/storage/mongo"
	"github.com/PabloGalante/docshelf/internal/app/items"
	"github.com/PabloGalante/docshelf/internal/app/registry"
	"github.com/PabloGalante/docshelf/internal/config"
	"github.com/PabloGalante/docshelf/internal/domain"
	"github.com/PabloGalante/docshelf/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:          "docshelf",
		Short:        "Web front-end to browse and edit document collections",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.Flags().StringP("config", "c", "", "path to a TOML config file")
	rootCmd.Flags().String("port", "", "HTTP port (overrides config)")
	rootCmd.Flags().String("backend", "", "storage backend: mongo, firestore or memory (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	port, _ := cmd.Flags().GetString("port")
	backend, _ := cmd.Flags().GetString("backend")

	cfg, err := config.Read(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Override(port, backend)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := observability.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	reg := registry.NewService(store)
	if name := cfg.Storage.DefaultCollection; name != "" {
		if err := reg.Ensure(ctx, name); err != nil {
			return fmt.Errorf("creating default collection %q: %w", name, err)
		}
	}

	handler := httpadapter.NewServer(reg, items.NewGateway(store), store, []byte(cfg.SecretKey))
	if cfg.SecretKey == "" {
		log.Warn("no secret key configured, sessions will not survive a restart")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("docshelf listening", "port", cfg.Port, "backend", cfg.Storage.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore connects the configured backend; an unreachable store aborts startup.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.DocumentStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendFirestore:
		log.Info("using Firestore storage", "project", cfg.Storage.GCPProjectID)
		s, err := firestorestore.NewStore(ctx, cfg.Storage.GCPProjectID)
		if err != nil {
			return nil, fmt.Errorf("initializing Firestore store: %w", err)
		}
		return s, nil

	case config.BackendMemory:
		log.Info("using in-memory storage")
		return memstore.NewStore(), nil

	default:
		log.Info("using MongoDB storage", "database", cfg.Storage.Database)
		s, err := mongostore.NewStore(ctx, cfg.Storage.MongoURI, cfg.Storage.Database)
		if err != nil {
			return nil, fmt.Errorf("initializing MongoDB store: %w", err)
		}
		return s, nil
	}
}
