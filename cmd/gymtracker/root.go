// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gymtracker/gymtracker/internal/auth"
	"github.com/gymtracker/gymtracker/internal/config"
	"github.com/gymtracker/gymtracker/internal/logging"
	"github.com/gymtracker/gymtracker/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile  string
	metricsFile string
)

// app carries the state shared by subcommands once the config is loaded.
type app struct {
	deps     *Deps
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
}

// NewRootCmd creates the root command for the GymTracker CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&Deps{})
}

func newRootCmd(deps *Deps) *cobra.Command {
	a := &app{deps: deps}

	cmd := &cobra.Command{
		Use:   "gymtracker",
		Short: "GymTracker - account and credential management",
		Long: `GymTracker manages user accounts: registration, login with signed
session tokens, and password recovery through one-time codes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/gymtracker/config.yaml if present)")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file when the command finishes")
	flags.String("database-url", "", "PostgreSQL connection URL (overrides config and "+config.EnvDatabaseURL+")")
	flags.String("log-format", "json", "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newUserCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	a.flushMetricsAfter(cmd)

	return cmd
}

// flushMetricsAfter wraps every RunE in the tree so the metrics file is
// written when the command fails as well as when it succeeds. Cobra skips
// post-run hooks after a failed RunE.
func (a *app) flushMetricsAfter(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		a.flushMetricsAfter(sub)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) (err error) {
		defer func() {
			if writeErr := a.writeMetrics(); writeErr != nil && err == nil {
				err = writeErr
			}
		}()
		return run(c, args)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	path := configFile
	if path == "" {
		found, err := xdg.FindConfigFile()
		if err != nil {
			return err
		}
		path = found
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.Setup("gymtracker", version, logging.Options{
		Format: cfg.Log.Format,
		Level:  level,
		Writer: cmd.ErrOrStderr(),
	})
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	auth.RegisterMetrics(a.registry)
	return nil
}

func (a *app) writeMetrics() error {
	if metricsFile == "" || a.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(metricsFile, a.registry); err != nil {
		return oops.Code("METRICS_WRITE_FAILED").With("path", metricsFile).Wrap(err)
	}
	return nil
}
