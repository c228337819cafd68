package chesscom

import (
	"context"
	"io"
	"strings"
)

// ClientInterface defines the interface for Chess.com API operations.
type ClientInterface interface {
	FetchArchives(ctx context.Context, username string) ([]string, error)
	FetchMonthly(ctx context.Context, archiveURL string) ([]MonthlyGame, error)
}

var _ ClientInterface = (*Client)(nil)

// WritePGN writes the standard-chess games of the last months archives of
// username to w, one PGN game after another. months <= 0 means all
// archives. It returns the number of games written.
func WritePGN(ctx context.Context, c ClientInterface, username string, months int, w io.Writer) (int, error) {
	archives, err := c.FetchArchives(ctx, username)
	if err != nil {
		return 0, err
	}
	if months > 0 && len(archives) > months {
		archives = archives[len(archives)-months:]
	}

	written := 0
	for _, archive := range archives {
		games, err := c.FetchMonthly(ctx, archive)
		if err != nil {
			return written, err
		}
		for _, g := range games {
			if g.Rules != "" && g.Rules != "chess" {
				continue
			}
			text := strings.TrimSpace(g.PGN)
			if text == "" {
				continue
			}
			if _, err := io.WriteString(w, text+"\n\n"); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}
