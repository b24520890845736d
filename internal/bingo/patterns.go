package bingo

// numberSet is a set of called or marked values.
type numberSet map[int]struct{}

func setOf(values []int) numberSet {
	s := make(numberSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s numberSet) has(v int) bool {
	_, ok := s[v]
	return ok
}

// markedSet is board ∩ called, ignoring blank cells.
func markedSet(board []int, called numberSet) numberSet {
	m := make(numberSet)
	for _, v := range board {
		if v != Blank && called.has(v) {
			m[v] = struct{}{}
		}
	}
	return m
}

// DetectWin decides whether a board has a winning pattern given the drawn
// numbers. Marks are always derived from board ∩ drawn; patterns are tried in
// the order of the game's config and the first match is returned.
func DetectWin(board []int, t GameType, drawn []int) (Pattern, bool) {
	cfg, ok := ConfigFor(t)
	if !ok {
		return "", false
	}
	return firstMatch(cfg, board, markedSet(board, setOf(drawn)))
}

// detectFromMarks evaluates self-reported marks. Used for the advisory
// winReady hint only; never for payouts.
func detectFromMarks(board []int, cfg BoardConfig, marks numberSet) (Pattern, bool) {
	return firstMatch(cfg, board, markedSet(board, marks))
}

func firstMatch(cfg BoardConfig, board []int, marked numberSet) (Pattern, bool) {
	b := grid{cfg: cfg, board: board, marked: marked}
	for _, p := range cfg.Patterns {
		if b.satisfies(p) {
			return p, true
		}
	}
	return "", false
}

type grid struct {
	cfg    BoardConfig
	board  []int
	marked numberSet
}

// cell returns the value at (row, col); Blank when absent.
func (g grid) cell(row, col int) int {
	i := g.cfg.Index(row, col)
	if i < 0 || i >= len(g.board) {
		return Blank
	}
	return g.board[i]
}

// line reports whether every non-blank cell is marked. A line with no
// non-blank cell is never complete.
func (g grid) line(cells [][2]int) bool {
	filled := 0
	for _, rc := range cells {
		v := g.cell(rc[0], rc[1])
		if v == Blank {
			continue
		}
		if !g.marked.has(v) {
			return false
		}
		filled++
	}
	return filled > 0
}

func (g grid) row(r int) [][2]int {
	cells := make([][2]int, g.cfg.Columns)
	for c := range cells {
		cells[c] = [2]int{r, c}
	}
	return cells
}

func (g grid) column(c int) [][2]int {
	cells := make([][2]int, g.cfg.Rows)
	for r := range cells {
		cells[r] = [2]int{r, c}
	}
	return cells
}

func (g grid) completeRows() int {
	n := 0
	for r := 0; r < g.cfg.Rows; r++ {
		if g.line(g.row(r)) {
			n++
		}
	}
	return n
}

func (g grid) satisfies(p Pattern) bool {
	switch p {
	case PatternRow:
		return g.completeRows() > 0

	case PatternColumn:
		for c := 0; c < g.cfg.Columns; c++ {
			if g.line(g.column(c)) {
				return true
			}
		}
		return false

	case PatternDiagonal:
		if g.cfg.Rows != g.cfg.Columns {
			return false
		}
		n := g.cfg.Rows
		main := make([][2]int, n)
		anti := make([][2]int, n)
		for i := 0; i < n; i++ {
			main[i] = [2]int{i, i}
			anti[i] = [2]int{i, n - 1 - i}
		}
		return g.line(main) || g.line(anti)

	case PatternFourCorners:
		if g.cfg.Cells() != 25 || len(g.board) < 25 {
			return false
		}
		return g.line([][2]int{{0, 0}, {0, 4}, {4, 0}, {4, 4}})

	case PatternFullHouse, PatternFullBoard:
		filled := 0
		for _, v := range g.board {
			if v == Blank {
				continue
			}
			if !g.marked.has(v) {
				return false
			}
			filled++
		}
		return filled > 0

	case PatternOneLine:
		return g.cfg.ID == Game90Ball && g.completeRows() >= 1

	case PatternTwoLines:
		return g.cfg.ID == Game90Ball && g.completeRows() >= 2
	}

	// x-pattern, frame, postage-stamp and small-diamond have no matcher.
	return false
}
