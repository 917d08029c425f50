package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/expenseflow/internal/core/events"
	"github.com/frahmantamala/expenseflow/internal/messaging"
	"github.com/frahmantamala/expenseflow/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish expense lifecycle events to the broker for testing consumers`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a test expense event",
	Long:      `Publish a synthetic expense event to the configured exchange for testing and debugging`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: events.ExpenseEventTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var (
	eventExpenseID int64
	eventAmount    float64
	eventCurrency  string
	eventComment   string
)

func init() {
	publishEventCmd.Flags().Int64Var(&eventExpenseID, "expense-id", 0, "expense id carried by the event; defaults to a timestamp")
	publishEventCmd.Flags().Float64Var(&eventAmount, "amount", 100, "expense amount")
	publishEventCmd.Flags().StringVar(&eventCurrency, "currency", "USD", "expense currency")
	publishEventCmd.Flags().StringVar(&eventComment, "comment", "", "decision comment for approved or rejected events")

	eventCmd.AddCommand(publishEventCmd)
}

// buildTestEvent makes a synthetic lifecycle event of the given type.
func buildTestEvent(eventType string, at time.Time) (events.Event, error) {
	s := events.ExpenseSnapshot{
		ExpenseID:               eventExpenseID,
		UserID:                  1,
		CompanyID:               1,
		Amount:                  eventAmount,
		Currency:                eventCurrency,
		AmountInCompanyCurrency: eventAmount,
	}
	if s.ExpenseID == 0 {
		s.ExpenseID = at.Unix()
	}

	switch eventType {
	case events.EventTypeExpenseSubmitted:
		s.Status = "pending"
		return events.NewExpenseSubmittedEvent(s, at), nil
	case events.EventTypeExpenseApproved, events.EventTypeExpenseRejected:
		s.Status = "approved"
		if eventType == events.EventTypeExpenseRejected {
			s.Status = "rejected"
		}
		decidedBy := int64(1)
		s.DecidedBy = &decidedBy
		if eventComment != "" {
			comment := eventComment
			s.Comment = &comment
		}
		return events.NewExpenseDecidedEvent(s, at), nil
	default:
		return nil, fmt.Errorf("unknown event type %q, want one of %v", eventType, events.ExpenseEventTypes)
	}
}

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	event, err := buildTestEvent(eventType, time.Now())
	if err != nil {
		return err
	}

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

	lg.Info("publishing test event", slog.String("event_type", eventType), slog.String("event_id", event.EventID()))
	if err := client.Publish(ctx, event); err != nil {
		return err
	}

	lg.Info("test event published successfully")
	return nil
}
