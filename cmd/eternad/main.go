package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/awaistahir/eterna/internal/config"
	"github.com/awaistahir/eterna/internal/engine"
	"github.com/awaistahir/eterna/internal/logging"
	"github.com/awaistahir/eterna/internal/publisher"
	"github.com/awaistahir/eterna/internal/store"
	"github.com/awaistahir/eterna/internal/uiapi"
)

func main() {
	var cfgFile string
	var port int
	var dbPath string

	rootCmd := &cobra.Command{
		Use:          "eternad",
		Short:        "Eterna HTTP dashboard API with optional MQTT publishing",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.eterna/config.yaml)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port (default from config)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Database path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	src, err := engine.NewSource(cfg.Source.Kind, cfg.Source.Seed)
	if err != nil {
		return err
	}
	srv, err := uiapi.NewServer(st, cfg, src, logger.Named("http"))
	if err != nil {
		return err
	}

	if cfg.Server.RefreshInterval > 0 {
		pub, err := publisher.New(cfg.MQTT, logger.Named("mqtt"))
		if err != nil {
			return err
		}
		defer pub.Close()

		// A separate source so the loop never shares a generator with request handlers
		loopSrc, err := engine.NewSource(cfg.Source.Kind, cfg.Source.Seed+1)
		if err != nil {
			return err
		}
		r, err := newRefresher(cfg, st, loopSrc, pub, logger.Named("refresh"))
		if err != nil {
			return err
		}
		go r.run(ctx, cfg.Server.RefreshInterval)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Eterna API server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.DBPath),
			zap.String("timezone", cfg.Timezone),
			zap.Bool("mqtt", cfg.MQTT.Enabled))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
