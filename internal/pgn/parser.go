// Package pgn reads PGN game collections.
package pgn

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

var headerRe = regexp.MustCompile(`\[(\w+)\s+"([^"]+)"\]`)

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

// SplitGames splits a PGN collection into one text per game. A header line
// that follows movetext starts a new game.
func SplitGames(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		games    []string
		cur      strings.Builder
		seenMove bool
	)
	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			games = append(games, text)
		}
		cur.Reset()
		seenMove = false
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && seenMove {
			flush()
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "[") {
			seenMove = true
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("split pgn: %w", err)
	}
	flush()
	return games, nil
}

// Game is the subset of a PGN game the stats importer needs.
type Game struct {
	White       string
	Black       string
	Result      string
	WhiteElo    int
	BlackElo    int
	ECO         string
	Opening     string
	TimeControl string
	Variant     string
	Moves       int
}

// Parse reads a single game. The opening is looked up in the ECO book when
// the Opening header is missing.
func Parse(text string) (Game, error) {
	headers := ParsePGNHeaders(text)

	opt, err := chess.PGN(strings.NewReader(text))
	if err != nil {
		return Game{}, fmt.Errorf("parse pgn: %w", err)
	}
	g := chess.NewGame(opt)
	moves := g.Moves()

	tc := headers["TimeControl"]
	if tc == "" {
		tc = "0+0"
	}
	out := Game{
		White:       headerOr(headers, "White", "Unknown"),
		Black:       headerOr(headers, "Black", "Unknown"),
		Result:      headers["Result"],
		WhiteElo:    atoiOrZero(headers["WhiteElo"]),
		BlackElo:    atoiOrZero(headers["BlackElo"]),
		ECO:         headers["ECO"],
		Opening:     headers["Opening"],
		TimeControl: tc,
		Variant:     Variant(tc),
		Moves:       len(moves),
	}

	if out.Opening == "" && len(moves) > 0 {
		if found := opening.NewBookECO().Find(moves); found != nil {
			out.ECO = found.Code()
			out.Opening = found.Title()
		}
	}
	if out.Opening == "" {
		out.Opening = "Unknown"
	}
	return out, nil
}

// Rated reports whether both players carry a rating.
func (g Game) Rated() bool {
	return g.WhiteElo != 0 && g.BlackElo != 0
}

// Outcome returns "win", "loss" or "draw" from the given player's side, or
// "" when the player did not take part or the game is unfinished.
func (g Game) Outcome(player string) string {
	var asWhite bool
	switch {
	case g.White == player:
		asWhite = true
	case g.Black == player:
		asWhite = false
	default:
		return ""
	}
	switch g.Result {
	case "1-0":
		if asWhite {
			return "win"
		}
		return "loss"
	case "0-1":
		if asWhite {
			return "loss"
		}
		return "win"
	case "1/2-1/2":
		return "draw"
	default:
		return ""
	}
}

// MainOpening drops the variation from an opening name, so
// "Sicilian Defense: Najdorf Variation" becomes "Sicilian Defense".
func MainOpening(name string) string {
	if i := strings.IndexAny(name, ":#,"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "Unknown"
	}
	return name
}

// Variant classifies a TimeControl header, assuming 40 moves for the
// increment.
func Variant(timeControl string) string {
	var base, inc int
	switch {
	case timeControl == "-" || timeControl == "":
	case strings.Contains(timeControl, "+"):
		parts := strings.SplitN(timeControl, "+", 2)
		base, inc = atoiOrZero(parts[0]), atoiOrZero(parts[1])
	default:
		base = atoiOrZero(timeControl)
	}

	total := base + inc*40
	switch {
	case total >= 1800:
		return "Classical"
	case total >= 600:
		return "Rapid"
	case total >= 180:
		return "Blitz"
	default:
		return "Bullet"
	}
}

func headerOr(h map[string]string, key, def string) string {
	if v := strings.TrimSpace(h[key]); v != "" {
		return v
	}
	return def
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
