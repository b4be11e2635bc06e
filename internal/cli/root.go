package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/blitz/internal/config"
	"github.com/soyeahso/blitz/internal/logging"
	"github.com/soyeahso/blitz/internal/platform"
	"github.com/soyeahso/blitz/internal/store"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blitz",
		Short: "Blitz — streaming client for the hosted analysis agent",
		Long:  "Blitz asks the hosted analysis agent questions, streams the answer as it is produced, and keeps a local history of every exchange.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				cfg = config.Defaults()
			}
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.NewStyled(cfg.Logging.ConsoleStyle, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.blitz/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newFeedbackCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// newPlatformClient builds the agent client from config.
func newPlatformClient(ctx context.Context, cfg config.Config) (*platform.Client, error) {
	if cfg.Platform.BaseURL == "" {
		return nil, fmt.Errorf("platform.baseUrl is not configured (try: blitz config set platform.baseUrl <url>)")
	}
	return platform.NewClient(ctx, platform.Options{
		BaseURL: cfg.Platform.BaseURL,
		Timeout: time.Duration(cfg.Platform.TimeoutSeconds) * time.Second,
		Auth: platform.Credentials{
			Mode:         cfg.Platform.Auth.Mode,
			Token:        cfg.Platform.Auth.Token,
			ClientID:     cfg.Platform.Auth.ClientID,
			ClientSecret: cfg.Platform.Auth.ClientSecret,
			TokenURL:     cfg.Platform.Auth.TokenURL,
			Scopes:       cfg.Platform.Auth.Scopes,
		},
	}, log)
}

// openHistory opens the configured exchange history. The returned
// close func is a no-op for the in-memory store.
func openHistory(cfg config.Config) (store.History, func(), error) {
	if cfg.History.Store == "memory" {
		return store.NewMemoryHistory(), func() {}, nil
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	db, err := store.Open(paths.HistoryDBPath(cfg.History), log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history database: %w", err)
	}
	return store.NewSQLiteHistory(db), func() { db.Close() }, nil
}
