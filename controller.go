package gridpath

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Mode selects what a cell edit does.
type Mode int

const (
	ModeWall Mode = iota
	ModeStart
	ModeEnd
)

func (m Mode) String() string {
	switch m {
	case ModeWall:
		return "wall"
	case ModeStart:
		return "start"
	case ModeEnd:
		return "end"
	default:
		return "unknown"
	}
}

// ParseMode accepts "wall", "start" or "end".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wall":
		return ModeWall, nil
	case "start":
		return ModeStart, nil
	case "end":
		return ModeEnd, nil
	default:
		return ModeWall, fmt.Errorf("unknown edit mode %q", s)
	}
}

// Controller translates user edits and commands into grid mutations. Every
// edit is a no-op while a run is in progress.
type Controller struct {
	grid      *Grid
	scheduler *Scheduler
	logger    *slog.Logger

	mu          sync.Mutex
	mode        Mode
	pointerDown bool
	cancelRun   context.CancelFunc
}

// NewController wires a controller to grid and the scheduler replaying onto it.
func NewController(grid *Grid, scheduler *Scheduler, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{grid: grid, scheduler: scheduler, logger: logger}
}

func (c *Controller) Grid() *Grid { return c.grid }

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode changes the edit mode. It is rejected during a run.
func (c *Controller) SetMode(mode Mode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningLocked() {
		c.logger.Debug("Mode change ignored while a run is active.", "mode", mode)
		return false
	}
	c.mode = mode
	return true
}

// Running reports whether a search or replay started by Visualize is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

func (c *Controller) runningLocked() bool {
	return c.cancelRun != nil || c.scheduler.Running()
}

// Apply performs the current mode's edit on p.
func (c *Controller) Apply(p Position) bool {
	switch c.Mode() {
	case ModeStart:
		return c.SetStart(p)
	case ModeEnd:
		return c.SetEnd(p)
	default:
		return c.ToggleWall(p)
	}
}

// PointerDown starts a drag and edits p.
func (c *Controller) PointerDown(p Position) bool {
	if c.Running() {
		return false
	}
	c.mu.Lock()
	c.pointerDown = true
	c.mu.Unlock()
	return c.Apply(p)
}

// PointerEnter edits p when a drag is in progress.
func (c *Controller) PointerEnter(p Position) bool {
	c.mu.Lock()
	down := c.pointerDown
	c.mu.Unlock()
	if !down || c.Running() {
		return false
	}
	return c.Apply(p)
}

// PointerUp ends a drag.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	c.pointerDown = false
	c.mu.Unlock()
}

func (c *Controller) ToggleWall(p Position) bool {
	return c.edit("toggle wall", func() error { return c.grid.ToggleWall(p) })
}

func (c *Controller) SetStart(p Position) bool {
	return c.edit("set start", func() error { return c.grid.SetStart(p) })
}

func (c *Controller) SetEnd(p Position) bool {
	return c.edit("set end", func() error { return c.grid.SetEnd(p) })
}

// ClearPath resets the search state of every cell.
func (c *Controller) ClearPath() bool {
	return c.edit("clear path", c.grid.ResetSearchState)
}

func (c *Controller) ClearWalls() bool {
	return c.edit("clear walls", c.grid.ClearWalls)
}

// ResetGrid reallocates the grid from its initial configuration.
func (c *Controller) ResetGrid() bool {
	return c.edit("reset grid", c.grid.Reset)
}

// edit holds c.mu across the run check and the mutation so a concurrent
// Visualize cannot snapshot between them.
func (c *Controller) edit(op string, apply func() error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningLocked() {
		c.logger.Debug("Edit ignored while a run is active.", "op", op)
		return false
	}
	if err := apply(); err != nil {
		var violation *InvariantViolation
		if errors.As(err, &violation) {
			c.logger.Warn("Edit rejected.", "op", op, "error", err)
			return false
		}
		c.logger.Error("Edit failed.", "op", op, "error", err)
		return false
	}
	return true
}

// Visualize clears the previous run, searches a snapshot of the grid and
// replays the result. It blocks until the replay ends or is cancelled.
func (c *Controller) Visualize(ctx context.Context) (SearchResult, error) {
	c.mu.Lock()
	if c.runningLocked() {
		c.mu.Unlock()
		return SearchResult{}, ErrRunActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancelRun = cancel
	c.pointerDown = false
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.cancelRun = nil
		c.mu.Unlock()
		cancel()
	}()

	if err := c.grid.ResetSearchState(); err != nil {
		return SearchResult{}, err
	}
	result, err := Search(runCtx, c.grid.Snapshot())
	if err != nil {
		return SearchResult{}, err
	}
	c.logger.Info("Search complete, starting replay.",
		"run_id", result.RunID,
		"visited", len(result.VisitedOrder),
		"path_length", len(result.Path),
		"found", result.Found,
	)
	if err := c.scheduler.Play(runCtx, result); err != nil {
		return result, err
	}
	return result, nil
}

// Cancel aborts the active run. It reports whether a run was cancelled.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelRun == nil {
		return false
	}
	c.cancelRun()
	return true
}
