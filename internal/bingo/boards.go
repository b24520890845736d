// Package bingo is the game session engine: board layouts, board generation,
// win detection, payouts, the per-session draw scheduler and the registry
// that owns every live session.
package bingo

import (
	"fmt"
	"slices"
)

type GameType string

const (
	Game75Ball   GameType = "75ball"
	Game90Ball   GameType = "90ball"
	Game30Ball   GameType = "30ball"
	Game50Ball   GameType = "50ball"
	GamePattern  GameType = "pattern"
	GameCoverall GameType = "coverall"
)

type Pattern string

const (
	PatternRow         Pattern = "row"
	PatternColumn      Pattern = "column"
	PatternDiagonal    Pattern = "diagonal"
	PatternFourCorners Pattern = "four-corners"
	PatternFullHouse   Pattern = "full-house"
	PatternOneLine     Pattern = "one-line"
	PatternTwoLines    Pattern = "two-lines"
	PatternFullBoard   Pattern = "full-board"

	// Advertised by the pattern game but not matched.
	PatternX            Pattern = "x-pattern"
	PatternFrame        Pattern = "frame"
	PatternPostageStamp Pattern = "postage-stamp"
	PatternSmallDiamond Pattern = "small-diamond"
)

// BoardConfig is the static layout of one game type.
type BoardConfig struct {
	ID       GameType  `json:"id"`
	Name     string    `json:"name"`
	Columns  int       `json:"columns"`
	Rows     int       `json:"rows"`
	Range    int       `json:"range"`
	Patterns []Pattern `json:"patterns"`

	// ColumnMajor boards list column 0 top to bottom, then column 1, ...
	ColumnMajor bool `json:"-"`
}

// Index returns the board position of (row, col).
func (c BoardConfig) Index(row, col int) int {
	if c.ColumnMajor {
		return col*c.Rows + row
	}
	return row*c.Columns + col
}

// Cells is the number of positions on a board of this layout.
func (c BoardConfig) Cells() int {
	return c.Columns * c.Rows
}

var boardConfigs = map[GameType]BoardConfig{
	Game75Ball: {
		ID:          Game75Ball,
		Name:        "75-ቢንጎ",
		Columns:     5,
		Rows:        5,
		Range:       75,
		Patterns:    []Pattern{PatternRow, PatternColumn, PatternDiagonal, PatternFourCorners, PatternFullHouse},
		ColumnMajor: true,
	},
	Game90Ball: {
		ID:       Game90Ball,
		Name:     "90-ቢንጎ",
		Columns:  9,
		Rows:     3,
		Range:    90,
		Patterns: []Pattern{PatternOneLine, PatternTwoLines, PatternFullHouse},
	},
	Game30Ball: {
		ID:       Game30Ball,
		Name:     "30-ቢንጎ",
		Columns:  3,
		Rows:     3,
		Range:    30,
		Patterns: []Pattern{PatternFullHouse},
	},
	Game50Ball: {
		ID:          Game50Ball,
		Name:        "50-ቢንጎ",
		Columns:     5,
		Rows:        5,
		Range:       50,
		Patterns:    []Pattern{PatternRow, PatternColumn, PatternDiagonal, PatternFourCorners, PatternFullHouse},
		ColumnMajor: true,
	},
	GamePattern: {
		ID:          GamePattern,
		Name:        "ንድፍ ቢንጎ",
		Columns:     5,
		Rows:        5,
		Range:       75,
		Patterns:    []Pattern{PatternX, PatternFrame, PatternPostageStamp, PatternSmallDiamond},
		ColumnMajor: true,
	},
	GameCoverall: {
		ID:       GameCoverall,
		Name:     "ሙሉ ቤት",
		Columns:  9,
		Rows:     5,
		Range:    90,
		Patterns: []Pattern{PatternFullBoard},
	},
}

// ConfigFor returns the layout for t.
func ConfigFor(t GameType) (BoardConfig, bool) {
	c, ok := boardConfigs[t]
	c.Patterns = slices.Clone(c.Patterns)
	return c, ok
}

// ParseGameType validates a wire value.
func ParseGameType(s string) (GameType, error) {
	t := GameType(s)
	if _, ok := boardConfigs[t]; !ok {
		return "", Invalid(fmt.Sprintf("unknown game type %q", s))
	}
	return t, nil
}

// GameTypes lists every supported type in a stable order.
func GameTypes() []GameType {
	return []GameType{Game75Ball, Game90Ball, Game30Ball, Game50Ball, GamePattern, GameCoverall}
}
