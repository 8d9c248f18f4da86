package main

import (
	"context"
	"fmt"

	"github.com/fairhaven/upkeep/internal/monitor"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a single SLA breach sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "upkeep.yaml", "path to Upkeep config file")
	return cmd
}

func runSweep(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	svc := buildServices(cfg, gormDB)

	mon := monitor.New(gormDB, svc.Store, svc.Assist, svc.Notify, svc.Metrics, cfg.Monitor)
	res, err := mon.SweepOnce(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sweep complete: checked=%d atRisk=%d notified=%d escalated=%d\n",
		res.Checked, res.AtRisk, res.Notified, res.Escalated)
	return nil
}
