package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sahilchouksey/study-notes-bot/app"
	"github.com/sahilchouksey/study-notes-bot/config"
	"github.com/sahilchouksey/study-notes-bot/database"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"github.com/spf13/cobra"
)

var (
	env *config.EnvironmentVariable
	log *logger.Logger

	rootCmd = &cobra.Command{
		Use:           "notesbot",
		Short:         "Course notes chat bot",
		Long:          "Serves course notes over Telegram: browse by subject, subscribe to courses, rate notes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load ENV
			if err := config.LoadENV(); err != nil {
				return err
			}

			var err error
			if env, err = config.Get(); err != nil {
				return err
			}

			log, err = logger.New(env.GO_ENV)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				log.Sync()
			}
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and its HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.SetupAndRunServer(ctx, env, log)
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := database.StartGORM(env, log)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Init()
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := database.StartGORM(env, log)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Init(); err != nil {
				return err
			}

			seeder := database.NewSeeder(store.GetDB(), log)
			if err := seeder.SeedAll(); err != nil {
				return err
			}
			if env.FILE_STORE == "local" {
				return seeder.SeedDemoFiles(env.UPLOAD_FOLDER)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
