// Misogi - personal productivity and finance assistant server
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/misogi/internal/config"
	"github.com/ashureev/misogi/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "misogi",
	Short: "Misogi API server",
	Long:  "Serves the Misogi API: tasks, goals, routines, journal and the AI assistant.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		if err := godotenv.Load(); err != nil {
			slog.Info("No .env file found, using environment variables")
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			loaded.Port = port
		}
		if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
			loaded.DBPath = dbPath
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the SQLite schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().String("port", "", "listen port (overrides PORT)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides DB_PATH)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database schema is up to date", "path", cfg.DBPath)
	return nil
}
