package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/expenseflow/internal/auth"
	authPostgres "github.com/frahmantamala/expenseflow/internal/auth/postgres"
	"github.com/frahmantamala/expenseflow/internal/core/events"
	"github.com/frahmantamala/expenseflow/internal/messaging"
	"github.com/frahmantamala/expenseflow/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start the session reaper or the expense event consumer.`,
}

var sessionWorkerCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Delete expired sessions on an interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startSessionWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Consume expense events from the broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startEventWorker()
	},
}

var reapInterval time.Duration

func init() {
	sessionWorkerCmd.Flags().DurationVar(&reapInterval, "interval", 0, "reap interval; defaults to security.session_reap_interval")

	workerCmd.AddCommand(sessionWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)
}

// SessionReaper is what the session worker needs from the auth service.
type SessionReaper interface {
	ReapExpiredSessions(ctx context.Context) (int64, error)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func startSessionWorker() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// Reaping needs no tokens, roles or companies.
	svc := auth.NewService(authPostgres.NewRepository(db.Gorm), nil, nil, nil, cfg.Security.RefreshTokenDuration, lg)

	interval := getDurationFlag(reapInterval, cfg.Security.SessionReapInterval)
	ctx, stop := signalContext()
	defer stop()

	lg.Info("session worker is running. Press Ctrl+C to stop.", "interval", interval)
	runReaper(ctx, svc, interval, lg)
	lg.Info("session worker stopped")
	return nil
}

// runReaper reaps once immediately and then on every tick until ctx ends.
func runReaper(ctx context.Context, reaper SessionReaper, interval time.Duration, lg *slog.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	reap := func() {
		n, err := reaper.ReapExpiredSessions(ctx)
		if err != nil {
			if ctx.Err() == nil {
				lg.Error("failed to reap sessions", "error", err)
			}
			return
		}
		if n > 0 {
			lg.Info("reaped expired sessions", "count", n)
		}
	}

	reap()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reap()
		}
	}
}

func startEventWorker() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.AMQP.URL == "" {
		return errors.New("amqp.url is not configured")
	}
	lg := logger.LoggerWrapper()

	client, err := messaging.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, lg)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signalContext()
	defer stop()

	lg.Info("event worker is running. Press Ctrl+C to stop.", "queue", cfg.AMQP.Queue)
	if err := client.Consume(ctx, logExpenseEvent(lg)); err != nil {
		return err
	}
	lg.Info("event worker stopped")
	return nil
}

// logExpenseEvent records every lifecycle event it receives; unknown types are
// acknowledged so they do not cycle through the queue forever.
func logExpenseEvent(lg *slog.Logger) func(context.Context, events.BaseEvent) error {
	known := make(map[string]struct{}, len(events.ExpenseEventTypes))
	for _, t := range events.ExpenseEventTypes {
		known[t] = struct{}{}
	}

	return func(ctx context.Context, event events.BaseEvent) error {
		if _, ok := known[event.Type]; !ok {
			lg.WarnContext(ctx, "ignoring unknown event type", "event_id", event.ID, "event_type", event.Type)
			return nil
		}
		lg.InfoContext(ctx, "expense event received",
			"event_id", event.ID,
			"event_type", event.Type,
			"occurred_at", event.Timestamp,
			"payload", event.Data)
		return nil
	}
}

func getDurationFlag(flagValue, configValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}
