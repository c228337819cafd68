// Command openingtree imports PGN games and builds opening trees for a
// player, either on the console or behind an HTTP API.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
