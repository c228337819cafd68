package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vytor/openingtree/internal/chesscom"
	"github.com/vytor/openingtree/internal/pgn"
	"github.com/vytor/openingtree/internal/repository/sqlite"
	"github.com/vytor/openingtree/internal/services"
)

var importCmd = &cobra.Command{
	Use:   "import [FILE...]",
	Short: "Load PGN files into the game store",
	Long: `Parse PGN files and store their games. Files compressed with zstd
(.pgn.zst) are decompressed on the fly. Games already in the store are
skipped.

Examples:
  openingtree import carlsen.pgn
  openingtree import lichess_db_standard_rated_2013-01.pgn.zst

  # Download the last six months of a chess.com account
  openingtree import --chesscom magnuscarlsen --months 6`,
	Args: func(cmd *cobra.Command, args []string) error {
		if chesscomUser == "" && len(args) == 0 {
			return fmt.Errorf("requires at least one file or --chesscom")
		}
		return nil
	},
	RunE: runImport,
}

var (
	chesscomUser   string
	chesscomMonths int
)

func init() {
	importCmd.Flags().StringVar(&chesscomUser, "chesscom", "", "also download the games of this chess.com user")
	importCmd.Flags().IntVar(&chesscomMonths, "months", 3, "number of most recent chess.com monthly archives (0 = all)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := services.NewImportService(sqlite.NewGameRepository(database.DB), nil)
	out := cmd.OutOrStdout()

	for _, path := range args {
		res, err := importFile(cmd, svc, path)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		fmt.Fprintf(out, "%s: %d new, %d duplicates, %d rejected (%v)\n",
			path, res.Inserted, res.Duplicates, res.Rejected, res.Duration.Round(time.Millisecond))
	}

	if chesscomUser != "" {
		res, err := importChessCom(cmd, svc)
		if err != nil {
			return fmt.Errorf("importing chess.com games of %s: %w", chesscomUser, err)
		}
		fmt.Fprintf(out, "chess.com/%s: %d new, %d duplicates, %d rejected (%v)\n",
			chesscomUser, res.Inserted, res.Duplicates, res.Rejected, res.Duration.Round(time.Millisecond))
	}
	return nil
}

// importChessCom streams the downloaded archives straight into the importer.
func importChessCom(cmd *cobra.Command, svc services.ImportService) (services.ImportResult, error) {
	pr, pw := io.Pipe()
	go func() {
		_, err := chesscom.WritePGN(cmd.Context(), chesscom.New(), chesscomUser, chesscomMonths, pw)
		pw.CloseWithError(err)
	}()
	res, err := svc.Import(cmd.Context(), pr)
	pr.CloseWithError(err)
	return res, err
}

func importFile(cmd *cobra.Command, svc services.ImportService, path string) (services.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return services.ImportResult{}, err
	}
	defer f.Close()

	r, err := pgn.NewReader(f)
	if err != nil {
		return services.ImportResult{}, err
	}
	defer r.Close()

	return svc.Import(cmd.Context(), r)
}
