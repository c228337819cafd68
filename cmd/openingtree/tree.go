package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/report"
	"github.com/vytor/openingtree/internal/repository/sqlite"
	"github.com/vytor/openingtree/internal/services"
	"github.com/vytor/openingtree/internal/tree"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Build an opening tree and print one of its positions",
	Long: `Select games by player, side, date range and opponent, merge their
openings into a tree and print the position reached by --path with its
continuations, most played first.

Examples:
  openingtree tree --player carlsen
  openingtree tree --player carlsen --side white --from 2019-01-01 --path e4,c5
  openingtree tree --player carlsen --opponent caruana --games`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

var (
	treePlayer   string
	treeSide     string
	treeFrom     string
	treeTo       string
	treeOpponent string
	treePath     []string
	treeTop      int
	treePlies    int
	treeGames    bool
)

func init() {
	treeCmd.Flags().StringVarP(&treePlayer, "player", "p", "", "tracked player (case-insensitive substring)")
	treeCmd.Flags().StringVarP(&treeSide, "side", "s", "both", "side of the tracked player: white, black or both")
	treeCmd.Flags().StringVar(&treeFrom, "from", "", "first game date, yyyy-mm-dd")
	treeCmd.Flags().StringVar(&treeTo, "to", "", "last game date, yyyy-mm-dd (default today)")
	treeCmd.Flags().StringVar(&treeOpponent, "opponent", "", "only games against this opponent (substring)")
	treeCmd.Flags().StringSliceVar(&treePath, "path", nil, "moves from the start, comma separated (e.g. e4,c5)")
	treeCmd.Flags().IntVar(&treeTop, "top", 0, "show at most this many continuations")
	treeCmd.Flags().IntVar(&treePlies, "plies", 0, "half-moves replayed per game (overrides MAX_PLIES)")
	treeCmd.Flags().BoolVar(&treeGames, "games", false, "list the games reaching the position")
	_ = treeCmd.MarkFlagRequired("player")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	filter, err := models.ParseFilter(treePlayer, treeSide, treeFrom, treeTo, treeOpponent)
	if err != nil {
		return err
	}
	plies := cfg.MaxPlies
	if treePlies > 0 {
		plies = treePlies
	}

	database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	builder := tree.NewBuilder(sqlite.NewGameRepository(database.DB), tree.WithMaxPlies(plies))
	svc, err := services.NewTreeService(builder, nil, nil, 1)
	if err != nil {
		return err
	}

	res, err := svc.Build(cmd.Context(), filter, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report.WriteBuild(out, res)

	node, ok := tree.Navigate(res.Root, treePath)
	if !ok {
		return fmt.Errorf("no game in the tree reaches %v", treePath)
	}
	return report.WriteNode(out, node, report.NodeOptions{Top: treeTop, Games: treeGames})
}
