package gridpath

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countFlags(cells []Cell) (starts, ends, walls int) {
	for _, c := range cells {
		if c.IsStart {
			starts++
		}
		if c.IsEnd {
			ends++
		}
		if c.IsWall {
			walls++
		}
	}
	return starts, ends, walls
}

func TestNewGrid(t *testing.T) {
	t.Run("default layout", func(t *testing.T) {
		g := NewDefaultGrid()
		snapshot := g.Snapshot()

		assert.Equal(t, 20, snapshot.Rows())
		assert.Equal(t, 40, snapshot.Cols())
		assert.Equal(t, 800, snapshot.Len())
		assert.Equal(t, Position{Row: 10, Col: 5}, snapshot.Start())
		assert.Equal(t, Position{Row: 10, Col: 35}, snapshot.End())

		starts, ends, walls := countFlags(snapshot.Cells())
		assert.Equal(t, 1, starts)
		assert.Equal(t, 1, ends)
		assert.Zero(t, walls)

		for _, c := range snapshot.Cells() {
			assert.Equal(t, Infinity, c.Distance)
			assert.Equal(t, NoPredecessor, c.Predecessor)
			assert.False(t, c.Visited)
			assert.False(t, c.OnPath)
		}
	})

	t.Run("largest allowed grid", func(t *testing.T) {
		g, err := NewGrid(MaxCells, 1, Position{0, 0}, Position{1, 0})
		require.NoError(t, err)
		assert.Equal(t, MaxCells, g.Rows())
	})

	t.Run("cells know their position", func(t *testing.T) {
		g, err := NewGrid(3, 4, Position{0, 0}, Position{2, 3})
		require.NoError(t, err)
		c, ok := g.Cell(Position{Row: 1, Col: 2})
		require.True(t, ok)
		assert.Equal(t, Position{Row: 1, Col: 2}, c.Position)
	})

	invalid := []struct {
		name       string
		rows, cols int
		start, end Position
		field      string
	}{
		{"zero rows", 0, 5, Position{0, 0}, Position{0, 1}, "rows"},
		{"negative cols", 5, -1, Position{0, 0}, Position{0, 1}, "cols"},
		{"start out of bounds", 5, 5, Position{5, 0}, Position{0, 1}, "start"},
		{"start negative", 5, 5, Position{0, -1}, Position{0, 1}, "start"},
		{"end out of bounds", 5, 5, Position{0, 0}, Position{0, 5}, "end"},
		{"start equals end", 5, 5, Position{2, 2}, Position{2, 2}, "end"},
		{"product wraps", math.MaxInt / 2, 3, Position{0, 0}, Position{0, 1}, "rows"},
		{"too many cells", MaxCells, 2, Position{0, 0}, Position{0, 1}, "rows"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			var g *Grid
			var err error
			require.NotPanics(t, func() { g, err = NewGrid(tc.rows, tc.cols, tc.start, tc.end) })
			assert.Nil(t, g)
			var configErr *ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tc.field, configErr.Field)
		})
	}
}

func TestToggleWall(t *testing.T) {
	g := NewDefaultGrid()
	p := Position{Row: 3, Col: 3}
	version := g.Version()

	require.NoError(t, g.ToggleWall(p))
	c, _ := g.Cell(p)
	assert.True(t, c.IsWall)
	assert.Greater(t, g.Version(), version)

	require.NoError(t, g.ToggleWall(p))
	c, _ = g.Cell(p)
	assert.False(t, c.IsWall)

	t.Run("start and end are left alone", func(t *testing.T) {
		before := g.Snapshot()
		require.NoError(t, g.ToggleWall(g.Start()))
		require.NoError(t, g.ToggleWall(g.End()))
		after := g.Snapshot()
		assert.Equal(t, before.Cells(), after.Cells())
		assert.Equal(t, before.Version(), after.Version())
	})

	t.Run("out of bounds is rejected", func(t *testing.T) {
		err := g.ToggleWall(Position{Row: 20, Col: 0})
		var violation *InvariantViolation
		require.ErrorAs(t, err, &violation)
		assert.False(t, errors.Is(err, ErrRunActive))
	})
}

func TestSetStartAndEnd(t *testing.T) {
	g := NewDefaultGrid()
	c := Position{Row: 1, Col: 1}
	d := Position{Row: 2, Col: 7}

	require.NoError(t, g.ToggleWall(d))
	require.NoError(t, g.SetStart(c))
	require.NoError(t, g.SetStart(d))

	starts, ends, _ := countFlags(g.Snapshot().Cells())
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.Equal(t, d, g.Start())

	cell, _ := g.Cell(d)
	assert.True(t, cell.IsStart)
	assert.False(t, cell.IsWall)
	old, _ := g.Cell(c)
	assert.False(t, old.IsStart)

	require.NoError(t, g.ToggleWall(Position{Row: 0, Col: 0}))
	require.NoError(t, g.SetEnd(Position{Row: 0, Col: 0}))
	cell, _ = g.Cell(Position{Row: 0, Col: 0})
	assert.True(t, cell.IsEnd)
	assert.False(t, cell.IsWall)

	t.Run("dual assignment is rejected", func(t *testing.T) {
		before := g.Snapshot()

		var violation *InvariantViolation
		require.ErrorAs(t, g.SetStart(g.End()), &violation)
		require.ErrorAs(t, g.SetEnd(g.Start()), &violation)

		after := g.Snapshot()
		assert.Equal(t, before.Cells(), after.Cells())
		starts, ends, _ := countFlags(after.Cells())
		assert.Equal(t, 1, starts)
		assert.Equal(t, 1, ends)
	})

	t.Run("setting start in place is harmless", func(t *testing.T) {
		require.NoError(t, g.SetStart(g.Start()))
		starts, _, _ := countFlags(g.Snapshot().Cells())
		assert.Equal(t, 1, starts)
	})
}

func TestResetSearchState(t *testing.T) {
	g := NewDefaultGrid()
	require.NoError(t, g.ToggleWall(Position{Row: 4, Col: 4}))

	result := Run(g.Snapshot())
	require.NoError(t, g.acquire(result.Version))
	for _, c := range result.VisitedOrder {
		g.mark(c, PhaseVisited)
	}
	for _, c := range result.Path {
		g.mark(c, PhasePath)
	}
	g.release()

	marked, _ := g.Cell(result.Path[1].Position)
	require.True(t, marked.OnPath)
	require.True(t, marked.Visited)
	require.Equal(t, 1, marked.Distance)

	require.NoError(t, g.ResetSearchState())
	for _, c := range g.Snapshot().Cells() {
		assert.Equal(t, Infinity, c.Distance)
		assert.Equal(t, NoPredecessor, c.Predecessor)
		assert.False(t, c.Visited)
		assert.False(t, c.OnPath)
	}
	wall, _ := g.Cell(Position{Row: 4, Col: 4})
	assert.True(t, wall.IsWall)
	assert.Equal(t, DefaultStart, g.Start())
	assert.Equal(t, DefaultEnd, g.End())
}

func TestClearWallsIsIdempotent(t *testing.T) {
	g := NewDefaultGrid()
	for col := 10; col < 20; col++ {
		require.NoError(t, g.ToggleWall(Position{Row: 5, Col: col}))
	}

	require.NoError(t, g.ClearWalls())
	first := g.Snapshot()
	require.NoError(t, g.ClearWalls())
	second := g.Snapshot()

	assert.Equal(t, first.Cells(), second.Cells())
	assert.Equal(t, first.Version(), second.Version())
	_, _, walls := countFlags(second.Cells())
	assert.Zero(t, walls)
}

func TestReset(t *testing.T) {
	g := NewDefaultGrid()
	require.NoError(t, g.ToggleWall(Position{Row: 1, Col: 1}))
	require.NoError(t, g.SetStart(Position{Row: 0, Col: 0}))
	require.NoError(t, g.SetEnd(Position{Row: 19, Col: 39}))

	require.NoError(t, g.Reset())

	fresh := NewDefaultGrid().Snapshot()
	assert.Equal(t, fresh.Cells(), g.Snapshot().Cells())
	assert.Equal(t, DefaultStart, g.Start())
	assert.Equal(t, DefaultEnd, g.End())
}

func TestSnapshotIsIsolated(t *testing.T) {
	g := NewDefaultGrid()
	snapshot := g.Snapshot()

	require.NoError(t, g.ToggleWall(Position{Row: 0, Col: 0}))

	c, ok := snapshot.Cell(Position{Row: 0, Col: 0})
	require.True(t, ok)
	assert.False(t, c.IsWall)
	assert.NotEqual(t, snapshot.Version(), g.Version())

	cells := snapshot.Cells()
	cells[0].IsWall = true
	c, _ = snapshot.Cell(Position{Row: 0, Col: 0})
	assert.False(t, c.IsWall)
}

func TestEditsRejectedWhileReplaying(t *testing.T) {
	g := NewDefaultGrid()
	require.NoError(t, g.acquire(g.Version()))
	defer g.release()

	before := g.Snapshot()
	edits := map[string]func() error{
		"toggle wall":  func() error { return g.ToggleWall(Position{Row: 0, Col: 0}) },
		"set wall":     func() error { return g.SetWall(Position{Row: 0, Col: 0}, true) },
		"set start":    func() error { return g.SetStart(Position{Row: 0, Col: 1}) },
		"set end":      func() error { return g.SetEnd(Position{Row: 0, Col: 2}) },
		"reset search": g.ResetSearchState,
		"clear walls":  g.ClearWalls,
		"reset":        g.Reset,
	}
	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			err := edit()
			assert.ErrorIs(t, err, ErrRunActive)
			var violation *InvariantViolation
			assert.ErrorAs(t, err, &violation)
		})
	}
	assert.Equal(t, before.Cells(), g.Snapshot().Cells())
	assert.Equal(t, before.Version(), g.Version())
}

func TestAcquire(t *testing.T) {
	g := NewDefaultGrid()
	stale := g.Version()
	require.NoError(t, g.ToggleWall(Position{Row: 0, Col: 0}))

	assert.ErrorIs(t, g.acquire(stale), ErrStaleResult)
	require.NoError(t, g.acquire(g.Version()))
	assert.ErrorIs(t, g.acquire(g.Version()), ErrRunActive)
	assert.True(t, g.Replaying())
	g.release()
	assert.False(t, g.Replaying())
}
