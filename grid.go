package gridpath

import (
	"fmt"
	"math"
	"sync"
)

const (
	DefaultRows = 20
	DefaultCols = 40

	// Infinity is the distance of a cell the current run has not reached.
	Infinity = math.MaxInt

	// NoPredecessor marks a cell without a back-link.
	NoPredecessor = -1

	// MaxCells bounds rows*cols.
	MaxCells = 1 << 20
)

var (
	DefaultStart = Position{Row: 10, Col: 5}
	DefaultEnd   = Position{Row: 10, Col: 35}
)

// Position addresses a cell by row and column.
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Cell is the state of one grid square. Distance, Predecessor, Visited and
// OnPath belong to the current search run and are reset before each run.
type Cell struct {
	Position
	IsStart bool `json:"isStart"`
	IsEnd   bool `json:"isEnd"`
	IsWall  bool `json:"isWall"`

	Distance int `json:"distance"`
	// Predecessor is an index into the grid's row-major backing store.
	Predecessor int  `json:"predecessor"`
	Visited     bool `json:"visited"`
	OnPath      bool `json:"onPath"`
}

func newCell(row, col int) Cell {
	return Cell{
		Position:    Position{Row: row, Col: col},
		Distance:    Infinity,
		Predecessor: NoPredecessor,
	}
}

func (c *Cell) resetSearch() {
	c.Distance = Infinity
	c.Predecessor = NoPredecessor
	c.Visited = false
	c.OnPath = false
}

// ValidateLayout checks initialization parameters without allocating a grid.
func ValidateLayout(rows, cols int, start, end Position) error {
	if rows < 1 {
		return &ConfigError{Field: "rows", Reason: fmt.Sprintf("must be positive, got %d", rows)}
	}
	if cols < 1 {
		return &ConfigError{Field: "cols", Reason: fmt.Sprintf("must be positive, got %d", cols)}
	}
	if rows > MaxCells/cols {
		return &ConfigError{Field: "rows", Reason: fmt.Sprintf("%dx%d grid exceeds %d cells", rows, cols, MaxCells)}
	}
	if !inBounds(rows, cols, start) {
		return &ConfigError{Field: "start", Reason: fmt.Sprintf("%s outside %dx%d grid", start, rows, cols)}
	}
	if !inBounds(rows, cols, end) {
		return &ConfigError{Field: "end", Reason: fmt.Sprintf("%s outside %dx%d grid", end, rows, cols)}
	}
	if start == end {
		return &ConfigError{Field: "end", Reason: fmt.Sprintf("start and end share cell %s", start)}
	}
	return nil
}

func inBounds(rows, cols int, p Position) bool {
	return p.Row >= 0 && p.Row < rows && p.Col >= 0 && p.Col < cols
}

// Grid is the live, mutable cell model. It is safe for concurrent use.
type Grid struct {
	mu sync.RWMutex

	rows, cols   int
	initialStart Position
	initialEnd   Position

	cells      []Cell
	start, end int

	// version is bumped by structural edits only.
	version   uint64
	replaying bool
}

// NewGrid allocates a rows x cols grid with the given start and end cells and
// no walls.
func NewGrid(rows, cols int, start, end Position) (*Grid, error) {
	if err := ValidateLayout(rows, cols, start, end); err != nil {
		return nil, err
	}
	g := &Grid{
		rows:         rows,
		cols:         cols,
		initialStart: start,
		initialEnd:   end,
	}
	g.allocate()
	return g, nil
}

// NewDefaultGrid allocates the 20x40 grid with start (10,5) and end (10,35).
func NewDefaultGrid() *Grid {
	g, err := NewGrid(DefaultRows, DefaultCols, DefaultStart, DefaultEnd)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grid) allocate() {
	g.cells = make([]Cell, g.rows*g.cols)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			g.cells[row*g.cols+col] = newCell(row, col)
		}
	}
	g.start = g.index(g.initialStart)
	g.end = g.index(g.initialEnd)
	g.cells[g.start].IsStart = true
	g.cells[g.end].IsEnd = true
	g.version++
}

func (g *Grid) index(p Position) int { return p.Row*g.cols + p.Col }

// guard must be called with g.mu held.
func (g *Grid) guard(op string, p Position) (int, error) {
	if g.replaying {
		return 0, &InvariantViolation{Op: op, Position: &p, Reason: ErrRunActive.Error(), Err: ErrRunActive}
	}
	if !inBounds(g.rows, g.cols, p) {
		return 0, &InvariantViolation{Op: op, Position: &p, Reason: fmt.Sprintf("outside %dx%d grid", g.rows, g.cols)}
	}
	return g.index(p), nil
}

func (g *Grid) guardGridWide(op string) error {
	if g.replaying {
		return &InvariantViolation{Op: op, Reason: ErrRunActive.Error(), Err: ErrRunActive}
	}
	return nil
}

// ToggleWall flips the wall flag of p. Start and end cells are left alone.
func (g *Grid) ToggleWall(p Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, err := g.guard("toggle wall", p)
	if err != nil {
		return err
	}
	c := &g.cells[i]
	if c.IsStart || c.IsEnd {
		return nil
	}
	c.IsWall = !c.IsWall
	g.version++
	return nil
}

// SetWall sets the wall flag of p to wall. Start and end cells are left alone.
func (g *Grid) SetWall(p Position, wall bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, err := g.guard("set wall", p)
	if err != nil {
		return err
	}
	c := &g.cells[i]
	if c.IsStart || c.IsEnd || c.IsWall == wall {
		return nil
	}
	c.IsWall = wall
	g.version++
	return nil
}

// SetStart moves the start flag to p and clears any wall there.
func (g *Grid) SetStart(p Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, err := g.guard("set start", p)
	if err != nil {
		return err
	}
	if g.cells[i].IsEnd {
		return &InvariantViolation{Op: "set start", Position: &p, Reason: "cell already holds the end"}
	}
	g.cells[g.start].IsStart = false
	g.cells[i].IsStart = true
	g.cells[i].IsWall = false
	g.start = i
	g.version++
	return nil
}

// SetEnd moves the end flag to p and clears any wall there.
func (g *Grid) SetEnd(p Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, err := g.guard("set end", p)
	if err != nil {
		return err
	}
	if g.cells[i].IsStart {
		return &InvariantViolation{Op: "set end", Position: &p, Reason: "cell already holds the start"}
	}
	g.cells[g.end].IsEnd = false
	g.cells[i].IsEnd = true
	g.cells[i].IsWall = false
	g.end = i
	g.version++
	return nil
}

// ResetSearchState clears distance, predecessor, visited and path flags on
// every cell. Walls, start and end are kept.
func (g *Grid) ResetSearchState() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.guardGridWide("reset search state"); err != nil {
		return err
	}
	g.resetSearchLocked()
	return nil
}

func (g *Grid) resetSearchLocked() {
	for i := range g.cells {
		g.cells[i].resetSearch()
	}
}

// ClearWalls removes every wall and resets the search state.
func (g *Grid) ClearWalls() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.guardGridWide("clear walls"); err != nil {
		return err
	}
	changed := false
	for i := range g.cells {
		if g.cells[i].IsWall {
			g.cells[i].IsWall = false
			changed = true
		}
	}
	if changed {
		g.version++
	}
	g.resetSearchLocked()
	return nil
}

// Reset reallocates the grid with its initial dimensions, start and end.
func (g *Grid) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.guardGridWide("reset grid"); err != nil {
		return err
	}
	g.allocate()
	return nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Version identifies the current wall/start/end layout.
func (g *Grid) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

func (g *Grid) Start() Position {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[g.start].Position
}

func (g *Grid) End() Position {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[g.end].Position
}

// Cell returns a copy of the cell at p.
func (g *Grid) Cell(p Position) (Cell, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !inBounds(g.rows, g.cols, p) {
		return Cell{}, false
	}
	return g.cells[g.index(p)], true
}

// Replaying reports whether a scheduler currently holds the grid.
func (g *Grid) Replaying() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.replaying
}

// Snapshot returns an immutable copy of the grid.
func (g *Grid) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return Snapshot{
		rows:    g.rows,
		cols:    g.cols,
		cells:   cells,
		start:   g.start,
		end:     g.end,
		version: g.version,
	}
}

// acquire hands exclusive write access to a replay of the given version.
func (g *Grid) acquire(version uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.replaying {
		return ErrRunActive
	}
	if g.version != version {
		return fmt.Errorf("%w: result %d, grid %d", ErrStaleResult, version, g.version)
	}
	g.replaying = true
	return nil
}

func (g *Grid) release() {
	g.mu.Lock()
	g.replaying = false
	g.mu.Unlock()
}

// mark applies a replay step for c, copying its search fields onto the live
// cell, and returns the updated cell. Start and end cells are never marked.
func (g *Grid) mark(c Cell, phase Phase) (Cell, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !inBounds(g.rows, g.cols, c.Position) {
		return Cell{}, false
	}
	live := &g.cells[g.index(c.Position)]
	if live.IsStart || live.IsEnd {
		return *live, false
	}
	live.Distance = c.Distance
	live.Predecessor = c.Predecessor
	switch phase {
	case PhaseVisited:
		live.Visited = true
	case PhasePath:
		live.OnPath = true
	}
	return *live, true
}

// Snapshot is an immutable, versioned copy of a Grid.
type Snapshot struct {
	rows, cols int
	cells      []Cell
	start, end int
	version    uint64
}

func (s Snapshot) Rows() int       { return s.rows }
func (s Snapshot) Cols() int       { return s.cols }
func (s Snapshot) Version() uint64 { return s.version }
func (s Snapshot) Len() int        { return len(s.cells) }

func (s Snapshot) Start() Position { return s.cells[s.start].Position }
func (s Snapshot) End() Position   { return s.cells[s.end].Position }

func (s Snapshot) InBounds(p Position) bool { return inBounds(s.rows, s.cols, p) }

// Index converts p to its row-major index.
func (s Snapshot) Index(p Position) (int, bool) {
	if !s.InBounds(p) {
		return 0, false
	}
	return p.Row*s.cols + p.Col, true
}

// PositionOf converts a row-major index back to a Position.
func (s Snapshot) PositionOf(index int) Position {
	return Position{Row: index / s.cols, Col: index % s.cols}
}

// Cell returns the cell at p.
func (s Snapshot) Cell(p Position) (Cell, bool) {
	i, ok := s.Index(p)
	if !ok {
		return Cell{}, false
	}
	return s.cells[i], true
}

// Cells returns a row-major copy of all cells.
func (s Snapshot) Cells() []Cell {
	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}
