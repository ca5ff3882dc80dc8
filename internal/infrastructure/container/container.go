// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/snackhack/client/internal/application/account"
	"github.com/snackhack/client/internal/application/session"
	"github.com/snackhack/client/internal/application/typeahead"
	"github.com/snackhack/client/internal/infrastructure/api"
	"github.com/snackhack/client/internal/infrastructure/config"
	"github.com/snackhack/client/internal/infrastructure/monitoring"
	"github.com/snackhack/client/internal/infrastructure/persistence/memory"
	redisstore "github.com/snackhack/client/internal/infrastructure/persistence/redis"
	"github.com/snackhack/client/internal/infrastructure/persistence/sqlite"
	"github.com/snackhack/client/internal/ports/outbound"
	"github.com/snackhack/client/pkg/healthcheck"
	"github.com/snackhack/client/pkg/logger"
)

// Module provides all dependency injection modules. The caller supplies
// *config.Config.
var Module = fx.Options(
	LoggerModule,
	MetricsModule,
	StoreModule,
	APIModule,
	ServiceModule,
	HealthModule,
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		lc := logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			App:         cfg.App.Name,
			Version:     cfg.App.Version,
		}
		if cfg.App.LogFile != "" {
			lc.OutputPaths = []string{cfg.App.LogFile}
		}
		return logger.New(lc)
	},
)

// MetricsModule provides the Prometheus collector
var MetricsModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *monitoring.MetricsCollector {
		return monitoring.NewMetricsCollector(cfg.Monitoring.Namespace, log)
	},
)

// StoreModule provides the persisted store selected by storage.driver
var StoreModule = fx.Provide(
	NewPersistedStore,
)

// StoreResult carries the store and, for the redis driver, its client.
// Redis is nil for the other drivers.
type StoreResult struct {
	fx.Out

	Store outbound.PersistedStore
	Redis goredis.UniversalClient
}

// NewPersistedStore opens the configured backend and closes it on stop
func NewPersistedStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (StoreResult, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Info("Using in-memory store; the session will not survive a restart")
		return StoreResult{Store: memory.NewStore()}, nil

	case config.DriverRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			return StoreResult{}, fmt.Errorf("failed to connect to redis: %w", err)
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return client.Close() },
		})
		log.Info("Connected to Redis store", zap.String("addr", cfg.RedisAddr()))
		return StoreResult{
			Store: redisstore.NewStore(client, cfg.Redis.KeyPrefix, log),
			Redis: client,
		}, nil

	case config.DriverSQLite, "":
		store, db, err := sqlite.NewStore(cfg.Storage.SQLitePath, sqlite.ParseLogLevel(cfg.Storage.LogLevel))
		if err != nil {
			return StoreResult{}, fmt.Errorf("failed to setup SQLite store: %w", err)
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return sqlite.Close(db) },
		})
		log.Info("Connected to SQLite store", zap.String("path", cfg.Storage.SQLitePath))
		return StoreResult{Store: store}, nil

	default:
		return StoreResult{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// AuthenticatedClient is the API client that sends the signed-in user's
// bearer token
type AuthenticatedClient struct {
	*api.Client
}

// APIModule provides the backend clients
var APIModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) (*api.Client, error) {
		return api.NewClient(cfg.API, log, api.WithRecorder(metrics))
	},
	func(c *api.Client) outbound.AuthService { return c },
	func(c *api.Client, tokens *account.TokenStore) AuthenticatedClient {
		return AuthenticatedClient{c.WithAuth(tokens)}
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(store outbound.PersistedStore, auth outbound.AuthService, log *zap.Logger) *account.TokenStore {
		return account.NewTokenStore(store, auth, log)
	},

	func(lc fx.Lifecycle, cfg *config.Config, c *api.Client, log *zap.Logger, metrics *monitoring.MetricsCollector) *typeahead.Engine {
		engine := typeahead.NewEngine(c, typeahead.Config{
			Debounce:          cfg.Session.Debounce,
			MinQueryLength:    cfg.Session.MinQueryLength,
			AutocompleteLimit: cfg.Session.AutocompleteLimit,
		}, log, typeahead.WithRecorder(metrics))
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				engine.Close()
				return nil
			},
		})
		return engine
	},

	func(
		cfg *config.Config,
		store outbound.PersistedStore,
		authed AuthenticatedClient,
		engine *typeahead.Engine,
		log *zap.Logger,
		metrics *monitoring.MetricsCollector,
	) *session.Machine {
		return session.NewMachine(context.Background(), store, authed, session.Config{
			MinIngredients:    cfg.Session.MinIngredients,
			Cooldown:          cfg.Session.Cooldown,
			CompletenessDelay: cfg.Session.CompletenessDelay,
			KeyNamespace:      cfg.Session.KeyNamespace,
		}, log,
			session.WithRecorder(metrics),
			session.WithInput(engine),
			session.WithDetector(authed),
		)
	},

	func(
		auth outbound.AuthService,
		authed AuthenticatedClient,
		c *api.Client,
		tokens *account.TokenStore,
		machine *session.Machine,
		log *zap.Logger,
	) *account.Service {
		return account.NewService(auth, authed, c, tokens, machine, log)
	},
)

// HealthParams are the dependencies of the doctor checks
type HealthParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
	Store  outbound.PersistedStore
	Client *api.Client
	Redis  goredis.UniversalClient `optional:"true"`
}

// HealthModule provides the dependency health checks
var HealthModule = fx.Provide(
	func(p HealthParams) *healthcheck.HealthCheck {
		hc := healthcheck.New(p.Config.App.Version, p.Logger)
		hc.Register("store", healthcheck.NewStoreChecker(p.Store, p.Config.Session.KeyNamespace+"health_probe"))
		hc.Register("backend", healthcheck.NewExternalServiceChecker("backend", p.Client.HealthURL(), p.Config.API.Timeout))
		if p.Redis != nil {
			hc.Register("redis", healthcheck.NewRedisChecker(p.Redis))
		}
		return hc
	},
)

// App is everything the command line needs from the graph
type App struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Session *session.Machine
	Engine  *typeahead.Engine
	Account *account.Service
	Client  *api.Client
	Health  *healthcheck.HealthCheck
	Metrics *monitoring.MetricsCollector
}

// New builds the application graph for cfg and populates app
func New(cfg *config.Config, app *App) *fx.App {
	return fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		Module,
		fx.Invoke(func(a App) { *app = a }),
	)
}
