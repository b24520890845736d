package bingo

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Blank marks an empty cell on a sparse (90-ball) board.
const Blank = 0

// Generator produces boards and draws. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded deterministically.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewSeed reads a high-entropy seed from crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// between returns a uniform value in [lo, hi]. Callers hold g.mu.
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

// distinct draws count unique values from [lo, hi] by rejection sampling,
// in the order they were accepted. Callers hold g.mu.
func (g *Generator) distinct(lo, hi, count int) []int {
	seen := make(map[int]struct{}, count)
	out := make([]int, 0, count)
	for len(out) < count {
		n := g.between(lo, hi)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Board generates a fresh board for t. The result always has
// ConfigFor(t).Cells() entries; 90-ball boards use Blank for empty cells.
func (g *Generator) Board(t GameType) ([]int, error) {
	cfg, ok := ConfigFor(t)
	if !ok {
		return nil, Invalid(fmt.Sprintf("unknown game type %q", t))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch t {
	case Game75Ball, Game50Ball, GamePattern:
		width := cfg.Range / cfg.Columns
		board := make([]int, 0, cfg.Cells())
		// Column-major: column 0 rows 0..4, then column 1, ...
		for col := 0; col < cfg.Columns; col++ {
			lo := col*width + 1
			board = append(board, g.distinct(lo, lo+width-1, cfg.Rows)...)
		}
		return board, nil

	case Game90Ball:
		board := make([]int, cfg.Cells())
		for col := 0; col < cfg.Columns; col++ {
			lo := col*10 + 1
			hi := min((col+1)*10, cfg.Range)
			count := g.between(1, cfg.Rows)
			nums := g.distinct(lo, hi, count)
			rows := g.rng.Perm(cfg.Rows)[:count]
			for i, row := range rows {
				board[row*cfg.Columns+col] = nums[i]
			}
		}
		return board, nil

	case Game30Ball, GameCoverall:
		return g.distinct(1, cfg.Range, cfg.Cells()), nil
	}

	return nil, Invalid(fmt.Sprintf("no generator for game type %q", t))
}

// Draw picks a value in [1, rangeMax] that is not in drawn. It reports false
// once every value has been drawn instead of looping forever.
func (g *Generator) Draw(drawn []int, rangeMax int) (int, bool) {
	if len(drawn) >= rangeMax {
		return 0, false
	}
	taken := make(map[int]struct{}, len(drawn))
	for _, n := range drawn {
		taken[n] = struct{}{}
	}
	if len(taken) >= rangeMax {
		return 0, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		n := g.between(1, rangeMax)
		if _, dup := taken[n]; !dup {
			return n, true
		}
	}
}
