package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"chronos_client/internal/app"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the run configuration")
	dump := flag.Bool("dump", false, "print every request packet to stderr")
	listRuns := flag.Int("runs", 0, "list the last N stored runs and exit")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap(*configPath)
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		bootstrap.Close()
		os.Exit(1)
	}
	defer bootstrap.Close()

	if *listRuns > 0 {
		if err := printRuns(bootstrap, *listRuns); err != nil {
			slog.Error("Failed to list runs", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Runner
	runner, err := bootstrap.NewRunner()
	if err != nil {
		slog.Error("❌ Runner setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	if *dump {
		runner.SetTrace(os.Stderr)
	}

	slog.InfoContext(ctx, "✨ Chronos client running. Press Ctrl+C to stop.")
	run, err := runner.Run(ctx)
	if run != nil {
		fmt.Printf("run %s: %d transactions, %d errors, %.1f txn/s, avg latency %s\n",
			run.ID, run.Transactions, run.Errors, run.Throughput(), time.Duration(run.AvgLatencyNs))
	}
	if err != nil {
		slog.Error("❌ Run failed", slog.Any("error", err))
		bootstrap.Close()
		os.Exit(1)
	}

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}

func printRuns(b *app.Bootstrap, n int) error {
	runs, err := b.Storage.ListRuns(n)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tCLIENTS\tTXNS\tERRORS\tTPS")
	for i := range runs {
		r := &runs[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.1f\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.NumClients, r.Transactions, r.Errors, r.Throughput())
	}
	return w.Flush()
}
