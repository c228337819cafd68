package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vytor/openingtree/internal/repository/sqlite"
	"github.com/vytor/openingtree/internal/services"
)

var playersCmd = &cobra.Command{
	Use:   "players [QUERY]",
	Short: "Find player names in the game store",
	Long: `List the player names containing QUERY (case-insensitive), most games
first. Use one of them as --player for the tree command.

Examples:
  openingtree players carl
  openingtree players --limit 50`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlayers,
}

var playersLimit int

func init() {
	playersCmd.Flags().IntVarP(&playersLimit, "limit", "n", 20, "maximum number of names")
	rootCmd.AddCommand(playersCmd)
}

func runPlayers(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	players, err := services.NewPlayerService(sqlite.NewGameRepository(database.DB)).Search(cmd.Context(), query, playersLimit)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No players found.")
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Player", "Games", "White", "Black")
	for _, p := range players {
		table.Append(p.Name, fmt.Sprint(p.Games), fmt.Sprint(p.AsWhite), fmt.Sprint(p.AsBlack))
	}
	return table.Render()
}
