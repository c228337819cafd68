package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vytor/openingtree/internal/config"
	"github.com/vytor/openingtree/internal/db"
	"github.com/vytor/openingtree/internal/logger"
)

var (
	// Global flags.
	dbPath   string
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "openingtree",
	Short: "Build opening trees from a player's games",
	Long: `openingtree stores PGN games in SQLite and merges the openings of a
player's games into a tree of moves with win/draw/loss statistics.

Examples:
  # Load games
  openingtree import games.pgn.zst

  # Show Carlsen's most played replies to 1.e4 as black
  openingtree tree --player carlsen --side black --path e4

  # Serve the HTTP API
  openingtree serve`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setup loads and validates configuration, applies the global flags and
// installs the default logger.
func setup() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = "DEBUG"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	logger.SetDefault(logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	))
	return cfg, nil
}

func openStore(cfg config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", cfg.DBPath, err)
	}
	return database, nil
}
