package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fairhaven/upkeep/internal/monitor"
	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	var (
		configPath string
		schedule   string
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the SLA monitoring daemon",
		Long:  "Runs the SLA breach sweep on a cron schedule (hourly by default), notifying property managers about at-risk requests and escalating critical ones.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, configPath, schedule)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "upkeep.yaml", "path to Upkeep config file")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule override (5-field expression)")
	return cmd
}

func runMonitor(cmd *cobra.Command, configPath, schedule string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	svc := buildServices(cfg, gormDB)

	if schedule == "" {
		schedule = cfg.Monitor.Schedule
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	mon := monitor.New(gormDB, svc.Store, svc.Assist, svc.Notify, svc.Metrics, cfg.Monitor)
	return mon.RunDaemon(ctx, schedule, cmd.OutOrStdout())
}
