// Package pgn reads PGN text into game records. Movetext is kept as raw SAN
// tokens; legality is decided later by the move engine during tree builds.
package pgn

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/vytor/openingtree/internal/models"
)

var headerRe = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)

// ParsePGNHeaders extracts PGN header tags into a map
func ParsePGNHeaders(pgn string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(pgn, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if len(m) == 3 {
			out[m[1]] = m[2]
		}
	}
	return out
}

var (
	moveNumberRe = regexp.MustCompile(`^\d+\.+`)
	resultTokens = map[string]bool{"1-0": true, "0-1": true, "1/2-1/2": true, "*": true}
)

// ParseMovetext returns the SAN tokens of a movetext section in game order.
// Move numbers, comments, variations, NAGs, annotation glyphs and the result
// token are dropped.
func ParseMovetext(text string) []string {
	var (
		moves []string
		tok   strings.Builder
		depth int
	)
	flush := func() {
		if tok.Len() == 0 {
			return
		}
		t := tok.String()
		tok.Reset()
		if depth > 0 {
			return
		}
		t = moveNumberRe.ReplaceAllString(t, "")
		t = strings.TrimRight(t, "!?")
		if t == "" || resultTokens[t] || strings.HasPrefix(t, "$") {
			return
		}
		moves = append(moves, t)
	}

	inBrace, inLineComment := false, false
	for _, r := range text {
		switch {
		case inLineComment:
			if r == '\n' {
				inLineComment = false
			}
		case inBrace:
			if r == '}' {
				inBrace = false
			}
		case r == '{':
			flush()
			inBrace = true
		case r == ';':
			flush()
			inLineComment = true
		case r == '(':
			flush()
			depth++
		case r == ')':
			flush()
			if depth > 0 {
				depth--
			}
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			tok.WriteRune(r)
		}
	}
	flush()
	return moves
}

// ParseRecord turns one PGN game into a GameRecord. The ID is left unset.
func ParseRecord(text string) models.GameRecord {
	headers := ParsePGNHeaders(text)

	var body strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}

	return models.GameRecord{
		White:   headers["White"],
		Black:   headers["Black"],
		Result:  headers["Result"],
		Date:    headers["Date"],
		Event:   headers["Event"],
		Site:    headers["Site"],
		ECOCode: headers["ECO"],
		Moves:   ParseMovetext(body.String()),
	}
}

// SplitGames streams r and calls fn with the text of each game. A game ends
// when a header line follows movetext, or at EOF.
func SplitGames(r io.Reader, fn func(game string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var (
		game        strings.Builder
		seenMoves   bool
		seenContent bool
	)
	emit := func() error {
		if !seenContent {
			return nil
		}
		text := game.String()
		game.Reset()
		seenMoves, seenContent = false, false
		return fn(text)
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		isHeader := strings.HasPrefix(trimmed, "[")

		if isHeader && seenMoves {
			if err := emit(); err != nil {
				return err
			}
		}
		if trimmed != "" {
			seenContent = true
			if !isHeader {
				seenMoves = true
			}
		}
		game.WriteString(line)
		game.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading PGN: %w", err)
	}
	return emit()
}
