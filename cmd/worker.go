package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/genops/internal/core/docstore/guard"
	"github.com/frahmantamala/genops/internal/invoice"
	invoiceDocuments "github.com/frahmantamala/genops/internal/invoice/documents"
	"github.com/frahmantamala/genops/internal/scheduler"
	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background jobs outside the HTTP server",
	Long:  `Run the invoice housekeeping jobs on their own, either once or on the configured schedule.`,
}

var overdueWorkerCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Mark pending invoices past their due date as overdue once",
	Run: func(cmd *cobra.Command, args []string) {
		runOverdueWorker(false)
	},
}

var scheduleWorkerCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the overdue sweep on the configured schedule",
	Run: func(cmd *cobra.Command, args []string) {
		runOverdueWorker(true)
	},
}

func runOverdueWorker(scheduled bool) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	raw, db, err := openStore(cfg, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer raw.Close()
	if db != nil {
		defer db.Close()
	}

	// overdue writes carry no notifications
	invoices := invoice.NewService(invoiceDocuments.NewInvoiceRepository(guard.New(raw, lg)), nil, invoice.NewDraftRegistry(), lg)
	jobs := scheduler.New(scheduler.Config{OverdueSchedule: cfg.Scheduler.OverdueSchedule, EvictSchedule: cfg.Scheduler.EvictSchedule}, invoices, nil, lg)

	if !scheduled {
		moved, err := jobs.SweepOverdue(context.Background())
		if err != nil {
			lg.Error("overdue sweep failed", "error", err)
			os.Exit(1)
		}
		lg.Info("overdue sweep complete", "moved", moved)
		return
	}

	if err := jobs.Start(); err != nil {
		lg.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	lg.Info("overdue worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down overdue worker", "signal", sig)
	jobs.Stop()
}

func init() {
	workerCmd.AddCommand(overdueWorkerCmd)
	workerCmd.AddCommand(scheduleWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
