// Package cmd wires the command line, configuration and logging around the
// compotube runner.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"compotube/internal/auth"
	"compotube/internal/db"
	"compotube/internal/model"
	"compotube/internal/search"

	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(version).ExecuteContext(ctx); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

func newRootCmd(version string) *cobra.Command {
	var flags flagValues

	root := &cobra.Command{
		Use:           "compotube",
		Short:         "Search YouTube from the terminal",
		Long:          "compotube: log in with an account and search YouTube videos in a TUI.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, true, func(env *environment) error {
				return runTUI(cmd.Context(), env)
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to config file (default: ~/.compotube/config.yaml)")
	pf.StringVar(&flags.dbPath, "db", "", "Path to preference store (default: ~/.compotube/compotube.db)")
	pf.StringVar(&flags.store, "store", "", "Preference store backend: sqlite or bolt")
	pf.StringVar(&flags.apiKey, "api-key", "", "YouTube Data API key (or set YOUTUBE_API_KEY env var)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(newSearchCmd(&flags))
	root.AddCommand(newPrefsCmd(&flags))
	return root
}

// environment is everything a subcommand needs once configuration is resolved.
type environment struct {
	config     *Config
	logger     *slog.Logger
	store      db.Store
	credential *auth.Credential
}

// withEnv resolves configuration, opens the log and the store, and runs fn.
// onboard allows the first-run setup to ask for missing settings.
func withEnv(cmd *cobra.Command, flags flagValues, onboard bool, fn func(env *environment) error) error {
	config, err := resolveConfig(flags)
	if err != nil {
		return err
	}

	if onboard && shouldRunOnboarding(config) {
		if err := runOnboarding(config); err != nil {
			return fmt.Errorf("failed to run onboarding: %w", err)
		}
		if config, err = resolveConfig(flags); err != nil {
			return err
		}
	}

	logger, closer, err := newLogger(config)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info("starting", "command", cmd.Name(), "store", config.Store, "accounts", len(config.Accounts))

	store, err := db.OpenStore(config.Store, config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open preference store: %w", err)
	}
	defer store.Close()

	env := &environment{
		config:     config,
		logger:     logger,
		store:      store,
		credential: auth.UsingOAuth2(config.Accounts, config.Scopes...),
	}
	if err := env.restoreSelection(cmd.Context()); err != nil {
		logger.Warn("failed to restore account selection", "error", err)
	}
	return fn(env)
}

// restoreSelection points the credential at the account of the persisted
// model, so searches work before the user logs in again.
func (env *environment) restoreSelection(ctx context.Context) error {
	value, err := env.store.LoadString(ctx, model.PrefKey, nil)
	if err != nil {
		return err
	}
	m, err := model.Deserialize(value)
	if err != nil {
		return err
	}
	env.credential.SelectAccount(m.AccountName)
	return nil
}

func (env *environment) newSearchClient() *search.YouTubeClient {
	cfg := env.config.Search
	opts := []search.Option{
		search.WithMaxResults(cfg.MaxResults),
		search.WithCacheSize(cfg.CacheSize),
		search.WithRetry(cfg.Retries, search.DefaultBackoff),
		search.WithLogger(env.logger),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, search.WithTimeout(cfg.Timeout))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, search.WithBaseURL(cfg.BaseURL))
	}
	return search.NewYouTubeClient(env.config.APIKey, env.credential, opts...)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
