package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/cmd/cli/commands"
	"github.com/offthechainak/hourbank/internal/backend"
	"github.com/offthechainak/hourbank/internal/config"
	"github.com/offthechainak/hourbank/pkg/db"
	"github.com/offthechainak/hourbank/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hourbank",
		Short: "Hourbank CLI - Track volunteer hours and redeem them for rewards",
		Long:  `A CLI tool for clocking volunteers in and out, managing their banked hours, and exchanging hours for store items.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ClockInCmd(appRef()))
	rootCmd.AddCommand(commands.ClockOutCmd(appRef()))
	rootCmd.AddCommand(commands.StatusCmd(appRef()))
	rootCmd.AddCommand(commands.GrantCmd(appRef()))
	rootCmd.AddCommand(commands.RedeemCmd(appRef()))
	rootCmd.AddCommand(commands.ListVolunteersCmd(appRef()))
	rootCmd.AddCommand(commands.AddVolunteerCmd(appRef()))
	rootCmd.AddCommand(commands.ListItemsCmd(appRef()))
	rootCmd.AddCommand(commands.AddItemCmd(appRef()))
	rootCmd.AddCommand(commands.TransactionsCmd(appRef()))
	rootCmd.AddCommand(commands.CalendarCmd(appRef()))
	rootCmd.AddCommand(commands.SeedCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext. Commands capture the pointer at
// registration time; initApp fills it in before any RunE fires.
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config, and the storage backend
func initApp() error {
	var err error
	appRef()
	app.Ctx = context.Background()
	app.Env = env

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	store, err := backend.New(app.Ctx, app.Cfg, app.Logger)
	if err != nil {
		return err
	}
	app.Database = db.NewDB(store)
	app.Logger.Info("Database initialized successfully", zap.String("backend", app.Cfg.Backend))

	return nil
}
