// Command admin runs maintenance tasks against the grievance database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grievance/backend/internal/app"
	"grievance/backend/internal/config"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/storage"
)

var debug bool

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Grievance backend administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(migrateCmd(), seedCmd(), usersCmd(), sweepCmd())
	return root
}

// env is what every subcommand needs: configuration, a logger and the store.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *storage.Service
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	l, err := logger.New(level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	rdb := app.OpenRedis(ctx, cfg, l)
	return &env{cfg: cfg, logger: l, store: storage.NewStorageService(db, rdb, l.Named("storage"))}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if err := e.store.AutoMigrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations complete.")
			return nil
		},
	}
}
