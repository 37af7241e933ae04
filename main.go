package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rm-hull/heat-metadata-collector/cmd"
	"github.com/rm-hull/heat-metadata-collector/internal"
)

func main() {
	var snapshotPath string
	var dbPath string
	var port int
	var schedule string
	var debug bool

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "heat-metadata-collector",
		Short:         "Collect deployment metadata for a Heat stack resource",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch the resource metadata once and print the merged list",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Collect(ctx, os.Stdout, snapshotPath)
		},
	}
	collectCmd.Flags().StringVar(&snapshotPath, "db", "", "Optional path to a SQLite database to record the snapshot in")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Collect on a schedule and serve the stored snapshots over HTTP",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.ApiServer(ctx, dbPath, port, schedule, debug)
		},
	}
	serveCmd.Flags().StringVar(&dbPath, "db", "data/snapshots.db", "Path to the SQLite database")
	serveCmd.Flags().IntVar(&port, "port", 8080, "Port to run the HTTP server on")
	serveCmd.Flags().StringVar(&schedule, "schedule", internal.CRON_SCHEDULE_COLLECT, "CRON schedule for collecting metadata")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	rootCmd.AddCommand(collectCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Printf("%v", err)
		stop()
		os.Exit(1)
	}
}
