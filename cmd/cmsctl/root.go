package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-gin-gorm-cms/internal/app"
	"go-gin-gorm-cms/internal/core/config"
	"go-gin-gorm-cms/internal/core/database"
	"go-gin-gorm-cms/internal/core/logger"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:           "cmsctl",
	Short:         "Operational commands for the CMS backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default $CONFIG_PATH)")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	userCmd.AddCommand(userRoleCmd)
	rootCmd.AddCommand(migrateCmd, seedCmd, userCmd)
}

func loadConfig() (*config.Config, *zap.Logger, func(), error) {
	path := flagConfig
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	l, cleanup := logger.FromConfig(cfg.Log)
	return cfg, l, cleanup, nil
}

func withMigrator(fn func(*database.Migrator) error) error {
	cfg, l, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()
	mg, err := database.NewMigrator(app.DBOpts(cfg, l))
	if err != nil {
		return err
	}
	return errors.Join(fn(mg), mg.Close())
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(mg *database.Migrator) error {
			if err := mg.Up(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [n]",
	Short: "Roll back n migrations (all when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseSteps(args)
		if err != nil {
			return err
		}
		return withMigrator(func(mg *database.Migrator) error {
			if err := mg.Down(n); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(mg *database.Migrator) error {
			v, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		})
	},
}

// parseSteps 0 表示全部回滚
func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("steps must be a positive integer, got %q", args[0])
	}
	return n, nil
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo user and three articles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, l, cleanup, err := loadConfig()
		if err != nil {
			return err
		}
		defer cleanup()
		db, err := database.NewGorm(app.DBOpts(cfg, l))
		if err != nil {
			return err
		}
		if err := app.Seed(cmd.Context(), db); err != nil {
			if errors.Is(err, app.ErrAlreadySeeded) {
				fmt.Fprintln(cmd.OutOrStdout(), "already seeded")
				return nil
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %s / %s\n", app.SeedEmail, app.SeedPassword)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userRoleCmd = &cobra.Command{
	Use:   "role <email> <user|admin>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, cleanup, err := loadConfig()
		if err != nil {
			return err
		}
		defer cleanup()
		db, err := database.NewGorm(app.DBOpts(cfg, l))
		if err != nil {
			return err
		}
		if err := app.SetRole(cmd.Context(), db, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], args[1])
		return nil
	},
}
