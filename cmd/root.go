package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/andresmejia3/interviewlens/internal/config"
	"github.com/andresmejia3/interviewlens/internal/logging"
	"github.com/andresmejia3/interviewlens/internal/store"
)

// Commands that need the database set this annotation to dbRequired or dbOptional.
const (
	dbAnnotation = "database"
	dbRequired   = "required"
	dbOptional   = "optional"
)

const defaultDBURL = "postgres://localhost:5432/interviewlens"

var (
	// DB is the global database connection shared by subcommands. It is nil when no
	// database is configured for a command that can do without one.
	DB *store.Store
	// Cfg is the resolved configuration of this invocation.
	Cfg *config.Config
	// Log is the process logger.
	Log *logrus.Logger

	cfgPath string
	dbURL   string
	verbose bool
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "interviewlens",
	Short:   "Interview video evaluation engine",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		Cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			Cfg.LogLevel = "debug"
		}
		Log, err = logging.New(logging.Options{Level: Cfg.LogLevel, File: Cfg.LogFile, Caller: verbose})
		if err != nil {
			return err
		}

		if dbURL != "" {
			Cfg.Database.URL = dbURL
		}
		return connectDB(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
		}
	},
}

func connectDB(cmd *cobra.Command) error {
	mode := cmd.Annotations[dbAnnotation]
	url := Cfg.Database.URL
	switch {
	case mode == "":
		return nil
	case mode == dbOptional && url == "":
		Log.Debug("no database configured, reports are only written to disk")
		return nil
	case url == "":
		url = defaultDBURL
	}

	var err error
	// Use the command's context (which will be cancellable) for the connection
	DB, err = store.New(cmd.Context(), url)
	if err == nil {
		return nil
	}
	if mode == dbOptional {
		Log.WithError(err).Warn("database unavailable, reports are only written to disk")
		DB = nil
		return nil
	}
	return fmt.Errorf("failed to connect to database: %w", err)
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a YAML config file (default: config/$CONFIG_ENV/config.yaml or interviewlens.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string (default: $DATABASE_URL or POSTGRES_* variables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
