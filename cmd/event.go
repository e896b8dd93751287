package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/genops/internal/core/docstore/guard"
	"github.com/frahmantamala/genops/internal/core/events"
	"github.com/frahmantamala/genops/internal/notification"
	notificationDocuments "github.com/frahmantamala/genops/internal/notification/documents"
	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish invoice events through the notification pipeline for testing and debugging`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish an invoice event",
	Long:  `Publish an invoice event (invoice.created, invoice.updated or invoice.paid) and record the resulting notification`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishInvoiceEvent(args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

var (
	eventInvoiceID string
	eventUserID    string
	eventCompany   string
	eventAmount    float64
)

func publishInvoiceEvent(eventType string) error {
	switch eventType {
	case events.EventTypeInvoiceCreated, events.EventTypeInvoiceUpdated, events.EventTypeInvoicePaid:
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	raw, db, err := openStore(cfg, lg)
	if err != nil {
		return err
	}
	defer raw.Close()
	if db != nil {
		defer db.Close()
	}

	service := notification.NewService(
		notificationDocuments.NewNotificationRepository(guard.New(raw, lg)),
		notification.RetryConfig{MaxRetries: cfg.Notification.MaxRetries, InitialBackoff: cfg.Notification.InitialBackoff},
		lg,
	)

	eventBus := events.NewEventBus(lg)
	notification.NewEventHandler(service, cfg.Notification.HandlerTimeout, lg).Register(eventBus)

	event := events.NewInvoiceEvent(eventType, eventInvoiceID, eventUserID, eventCompany, eventAmount, "")
	lg.Info("publishing invoice event", "event_type", eventType, "event_id", event.EventID())

	// the owner writes its own notifications
	ctx := context.Background()
	if err := eventBus.PublishSync(withUser(ctx, eventUserID), event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	lg.Info("invoice event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventInvoiceID, "invoice", "INV-0001", "Invoice ID")
	publishEventCmd.Flags().StringVar(&eventUserID, "user", "admin-1", "UID of the acting user")
	publishEventCmd.Flags().StringVar(&eventCompany, "company", "", "Company name")
	publishEventCmd.Flags().Float64Var(&eventAmount, "amount", 0, "Invoice amount")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
