package cmd

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

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/auth"
	authPostgres "github.com/frahmantamala/expenseflow/internal/auth/postgres"
	"github.com/frahmantamala/expenseflow/internal/category"
	"github.com/frahmantamala/expenseflow/internal/core/events"
	"github.com/frahmantamala/expenseflow/internal/currency"
	currencyPostgres "github.com/frahmantamala/expenseflow/internal/currency/postgres"
	"github.com/frahmantamala/expenseflow/internal/dashboard"
	"github.com/frahmantamala/expenseflow/internal/expense"
	expensePostgres "github.com/frahmantamala/expenseflow/internal/expense/postgres"
	"github.com/frahmantamala/expenseflow/internal/messaging"
	"github.com/frahmantamala/expenseflow/internal/profile"
	profilePostgres "github.com/frahmantamala/expenseflow/internal/profile/postgres"
	"github.com/frahmantamala/expenseflow/internal/role"
	rolePostgres "github.com/frahmantamala/expenseflow/internal/role/postgres"
	"github.com/frahmantamala/expenseflow/internal/transport"
	"github.com/frahmantamala/expenseflow/internal/transport/rest"
	"github.com/frahmantamala/expenseflow/internal/transport/swagger"
	"github.com/frahmantamala/expenseflow/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *database
	Redis     *redis.Client
	Bus       *events.EventBus
	AMQP      *messaging.Client
	Publisher *messaging.Publisher
	Router    *chi.Mux
	Logger    *slog.Logger
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	lg := deps.Logger

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		lg.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("server shutdown error", "error", err)
		}
		deps.shutdown(ctx)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server failed: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		deps.shutdown(ctx)
	}

	lg.Info("server stopped")
	return runErr
}

// shutdown drains in-flight events before the connections they need go away.
func (d *Dependencies) shutdown(ctx context.Context) {
	if err := d.Bus.Wait(ctx); err != nil {
		d.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	if d.Publisher != nil {
		if err := d.Publisher.Shutdown(ctx); err != nil {
			d.Logger.Warn("event publisher did not drain", "error", err)
		}
	}
	if d.AMQP != nil {
		if err := d.AMQP.Close(); err != nil {
			d.Logger.Error("amqp close error", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if cfg.Server.OpenAPIPath != "" {
		if _, err := swagger.Load(context.Background(), cfg.Server.OpenAPIPath); err != nil {
			return nil, err
		}
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
		DB:     db,
		Bus:    events.NewEventBus(lg),
		Router: chi.NewRouter(),
		Logger: lg,
	}

	if cfg.Redis.Enabled {
		deps.Redis = newRedisClient(cfg.Redis)
	}

	if cfg.AMQP.Enabled {
		client, err := messaging.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, lg)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		deps.AMQP = client
		deps.Publisher = messaging.NewPublisher(client, messaging.PublisherConfig{
			MaxWorkers:   cfg.AMQP.Workers,
			JobQueueSize: cfg.AMQP.JobQueueSize,
		}, lg)
		deps.Publisher.RegisterEventHandlers(deps.Bus)
	}

	rest.RegisterAllRoutes(deps.Router, buildHandlers(deps), rest.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPIPath:    cfg.Server.OpenAPIPath,
	}, lg)

	return deps, nil
}

func buildHandlers(deps *Dependencies) rest.Handlers {
	cfg, lg, db := deps.Config, deps.Logger, deps.DB
	base := transport.NewBaseHandler(lg)

	roleRepo := rolePostgres.NewRoleRepository(db.Gorm)
	resolver := role.NewResolver(roleRepo, lg)

	profileService := profile.NewService(profilePostgres.NewProfileRepository(db.Gorm), roleRepo, lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
	)
	authService := auth.NewService(
		authPostgres.NewRepository(db.Gorm),
		tokens,
		resolver,
		profileService,
		cfg.Security.RefreshTokenDuration,
		lg,
	)

	converter := currency.NewConverter(buildRateProvider(cfg, db, deps.Redis, lg), lg)
	expenseService := expense.NewService(
		expensePostgres.NewExpenseRepository(db.Gorm),
		profileService,
		converter,
		deps.Bus,
		lg,
	)

	dashboardService := dashboard.NewService(expenseService, profilePostgres.NewProfileCounter(db.SQL), lg)

	components := map[string]rest.Pinger{"postgres": rest.DatabasePinger(db.SQL)}
	if deps.Redis != nil {
		components["redis"] = rest.RedisPinger(deps.Redis)
	}

	return rest.Handlers{
		Health:    rest.NewHealthHandler(base, components),
		Auth:      auth.NewHandler(authService),
		Category:  category.NewHandler(base),
		Expense:   expense.NewHandler(expenseService),
		Dashboard: dashboard.NewHandler(base, dashboardService),
		Profile:   profile.NewHandler(profileService),
	}
}

// buildRateProvider picks the configured rate source and puts the Redis
// cache in front of it when one is available.
func buildRateProvider(cfg *internal.Config, db *database, client *redis.Client, lg *slog.Logger) currency.RateProvider {
	var provider currency.RateProvider
	switch cfg.Currency.Source {
	case "static":
		provider = currency.NewStaticRateProvider(cfg.Currency.StaticRates)
	default:
		provider = currencyPostgres.NewRateRepository(db.Gorm)
	}

	if client != nil {
		provider = currency.NewCachedRateProvider(provider, client, cfg.Redis.RateTTL, lg)
	}
	return provider
}

func newRedisClient(cfg internal.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
