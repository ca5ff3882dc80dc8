// Package main runs the local stub recipe backend
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/snackhack/client/internal/infrastructure/config"
	"github.com/snackhack/client/internal/infrastructure/http/stubserver"
	"github.com/snackhack/client/internal/infrastructure/monitoring"
	"github.com/snackhack/client/pkg/logger"
)

var (
	configPath string
	port       int
	latency    time.Duration
	incomplete bool
)

var rootCmd = &cobra.Command{
	Use:   "stubserver",
	Short: "Local stand-in for the SnackHack recipe backend",
	Long: `Serves the recipe, lookup, nutrition, favourite and auth routes with
deterministic answers. Users and saved recipes live in memory and are lost
on restart.`,
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./snackhack.yaml)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "override stub_server.port")
	rootCmd.Flags().DurationVar(&latency, "latency", 0, "override stub_server.latency")
	rootCmd.Flags().BoolVar(&incomplete, "incomplete", false, "answer get-recipes with unfinished recipes")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.StubServer.Port = port
	}
	if cmd.Flags().Changed("latency") {
		cfg.StubServer.Latency = latency
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(
			func(cfg *config.Config) (*zap.Logger, error) {
				return logger.New(logger.Config{
					Level:       cfg.App.LogLevel,
					Format:      cfg.App.LogFormat,
					Development: cfg.App.Debug,
					App:         "stubserver",
					Version:     cfg.App.Version,
				})
			},
			func(cfg *config.Config, log *zap.Logger) *monitoring.MetricsCollector {
				return monitoring.NewMetricsCollector("stub", log)
			},
			newServer,
		),
		fx.Invoke(registerHooks),
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start stub backend: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.StubServer.ShutdownTimeout+time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Printf("Failed to stop stub backend gracefully: %v", err)
		return err
	}
	return nil
}

func newServer(cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) *stubserver.Server {
	opts := []stubserver.Option{stubserver.WithMiddleware(metrics.HTTPMiddleware)}
	if cfg.Monitoring.EnableMetrics {
		opts = append(opts, stubserver.WithMetricsHandler(metrics.Handler()))
	}
	if incomplete {
		opts = append(opts, stubserver.WithIncompleteRecipes())
	}
	return stubserver.New(cfg.StubServer, cfg.StubServerAddr(), log, opts...)
}

func registerHooks(lc fx.Lifecycle, cfg *config.Config, srv *stubserver.Server, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Fatal("Stub backend failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, cfg.StubServer.ShutdownTimeout)
			defer cancel()
			err := srv.Shutdown(stopCtx)
			_ = log.Sync()
			return err
		},
	})
}
