// Package cli wires the tidyinbox commands together.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tidyinbox/tidyinbox/internal/cleanup"
	"github.com/tidyinbox/tidyinbox/internal/config"
	"github.com/tidyinbox/tidyinbox/internal/metrics"
	"github.com/tidyinbox/tidyinbox/internal/policy"
	"github.com/tidyinbox/tidyinbox/internal/provider/gmailapi"
	"github.com/tidyinbox/tidyinbox/internal/rate"
	"github.com/tidyinbox/tidyinbox/internal/runstore"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tidyinbox",
	Short: "Policy-driven Gmail inbox cleanup",
	Long: `tidyinbox analyzes a Gmail mailbox and sweeps it according to a cleanup
policy: old promotions archived, stale newsletters trashed, threads labeled.
Retention rules protect starred and important mail no matter what the policy
says, and every sweep leaves an audit record.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newImportCmd())
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// deps bundles everything a command needs after setup.
type deps struct {
	cfg     config.Config
	log     *slog.Logger
	svc     *cleanup.Service
	cleanup func()
}

// setup builds a service. Readonly commands get a fetch-only service, so
// they cannot mutate the mailbox even on a bug.
func setup(ctx context.Context, readonly bool) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	scope := gmailapi.ScopeModify
	if readonly {
		scope = gmailapi.ScopeReadonly
	}
	client, err := gmailapi.NewClient(ctx, cfg.CredentialsDir, scope, logger)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewTokenBucket(cfg.RPS, cfg.Burst)
	closers := []func(){limiter.Stop}

	// The store is local state, not a mailbox mutation; dry runs from
	// readonly commands still land in history.
	store, err := runstore.OpenSQLite(cfg.DatabasePath, logger)
	if err != nil {
		limiter.Stop()
		return nil, err
	}
	closers = append(closers, func() { _ = store.Close() })

	var svc *cleanup.Service
	if readonly {
		svc = cleanup.NewReadOnlyService(client, limiter, logger)
		svc.Store = store
	} else {
		svc = cleanup.NewService(client, store, limiter, logger)
	}
	retry := rate.DefaultBackoff()
	retry.Attempts = cfg.MaxAttempts
	svc.Retry = retry
	svc.PageSize = cfg.PageSize
	svc.CallTimeout = cfg.CallTimeout
	svc.Metrics = metrics.NewRecorder(prometheus.DefaultRegisterer)

	return &deps{
		cfg: cfg,
		log: logger,
		svc: svc,
		cleanup: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

// openStore opens just the run database, for history commands that never
// talk to the provider.
func openStore(logger *slog.Logger) (config.Config, *runstore.SQLite, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	store, err := runstore.OpenSQLite(cfg.DatabasePath, logger)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, store, nil
}

// loadPolicy resolves the active cleanup policy: the configured file when
// set, otherwise the built-in default.
func loadPolicy(cfg config.Config, logger *slog.Logger) (policy.Policy, error) {
	if cfg.PolicyPath == "" {
		logger.Debug("no policy file configured, using default policy")
		return policy.Default(cfg.UserID), nil
	}
	pol, err := policy.Load(cfg.PolicyPath, cfg.UserID)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("load policy %s: %w", cfg.PolicyPath, err)
	}
	return pol, nil
}
