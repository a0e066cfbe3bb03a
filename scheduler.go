package gridpath

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pdrpinto/gridpath/internal/ctxlog"
)

const (
	DefaultVisitDelay = 10 * time.Millisecond
	DefaultPathDelay  = 30 * time.Millisecond
)

// State is the replay state of a Scheduler.
type State int32

const (
	StateIdle State = iota
	StateRunningVisited
	StateRunningPath
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunningVisited:
		return "running_visited"
	case StateRunningPath:
		return "running_path"
	default:
		return "unknown"
	}
}

// Phase identifies which sequence of a SearchResult a CellUpdate replays.
type Phase int

const (
	PhaseVisited Phase = iota + 1
	PhasePath
)

func (p Phase) String() string {
	switch p {
	case PhaseVisited:
		return "visited"
	case PhasePath:
		return "path"
	default:
		return "unknown"
	}
}

// CellUpdate is emitted once per replayed cell. Step is the cell's index in
// the phase's sequence.
type CellUpdate struct {
	RunID uuid.UUID
	Phase Phase
	Step  int
	Cell  Cell
}

// View receives replay updates. Calls arrive in replay order from the
// goroutine running Play.
type View interface {
	CellUpdated(update CellUpdate)
}

// ViewFunc adapts a function to View.
type ViewFunc func(update CellUpdate)

func (f ViewFunc) CellUpdated(update CellUpdate) { f(update) }

// StateListener is implemented by views that also want state transitions.
type StateListener interface {
	StateChanged(runID uuid.UUID, from, to State)
}

// Clock provides the per-step suspension points of a replay.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SchedulerOptions defines parameters for replays.
type SchedulerOptions struct {
	VisitDelay time.Duration
	PathDelay  time.Duration
	Clock      Clock
	Views      []View
	Logger     *slog.Logger
}

// SchedulerOption is a function that modifies SchedulerOptions.
type SchedulerOption func(*SchedulerOptions)

// WithVisitDelay sets the delay before each visited-phase step.
func WithVisitDelay(d time.Duration) SchedulerOption {
	return func(options *SchedulerOptions) { options.VisitDelay = d }
}

// WithPathDelay sets the delay before each path-phase step.
func WithPathDelay(d time.Duration) SchedulerOption {
	return func(options *SchedulerOptions) { options.PathDelay = d }
}

// WithClock replaces the wall clock used between steps.
func WithClock(clock Clock) SchedulerOption {
	return func(options *SchedulerOptions) { options.Clock = clock }
}

// WithView registers a view for every replay.
func WithView(view View) SchedulerOption {
	return func(options *SchedulerOptions) { options.Views = append(options.Views, view) }
}

// WithLogger sets the scheduler logger. Without it the logger is taken from
// the context passed to Play.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(options *SchedulerOptions) { options.Logger = logger }
}

// Scheduler replays search results onto a live Grid as timed state
// transitions: Idle -> RunningVisited -> RunningPath -> Idle.
type Scheduler struct {
	grid    *Grid
	options SchedulerOptions

	mu    sync.Mutex
	state State
	views []View
}

// NewScheduler creates an idle scheduler for grid.
func NewScheduler(grid *Grid, options ...SchedulerOption) *Scheduler {
	schedulerOptions := SchedulerOptions{
		VisitDelay: DefaultVisitDelay,
		PathDelay:  DefaultPathDelay,
		Clock:      realClock{},
	}
	for _, option := range options {
		option(&schedulerOptions)
	}
	return &Scheduler{
		grid:    grid,
		options: schedulerOptions,
		views:   append([]View(nil), schedulerOptions.Views...),
	}
}

// Subscribe adds a view for subsequent replays.
func (s *Scheduler) Subscribe(view View) {
	s.mu.Lock()
	s.views = append(s.views, view)
	s.mu.Unlock()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether a replay currently holds the grid.
func (s *Scheduler) Running() bool { return s.State() != StateIdle }

// Play replays result.VisitedOrder and then result.Path against the grid.
// Each element waits its phase delay; start and end cells emit no update.
// Cancelling ctx stops the replay, releases the grid and returns ctx.Err().
func (s *Scheduler) Play(ctx context.Context, result SearchResult) error {
	logger := s.options.Logger
	if logger == nil {
		logger = ctxlog.FromContext(ctx)
	}
	logger = logger.With("run_id", result.RunID)

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrRunActive
	}
	if err := s.grid.acquire(result.Version); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = StateRunningVisited
	views := append([]View(nil), s.views...)
	s.mu.Unlock()
	s.notify(views, result.RunID, StateIdle, StateRunningVisited)

	defer func() {
		s.grid.release()
		from := s.transition(StateIdle)
		s.notify(views, result.RunID, from, StateIdle)
	}()

	logger.Debug("Replaying visited cells.", "count", len(result.VisitedOrder))
	if err := s.replay(ctx, views, result.RunID, PhaseVisited, result.VisitedOrder, s.options.VisitDelay); err != nil {
		logger.Info("Replay cancelled.", "phase", PhaseVisited, "error", err)
		return err
	}

	s.transition(StateRunningPath)
	s.notify(views, result.RunID, StateRunningVisited, StateRunningPath)

	logger.Debug("Replaying path cells.", "count", len(result.Path))
	if err := s.replay(ctx, views, result.RunID, PhasePath, result.Path, s.options.PathDelay); err != nil {
		logger.Info("Replay cancelled.", "phase", PhasePath, "error", err)
		return err
	}

	logger.Info("Replay finished.", "visited", len(result.VisitedOrder), "path_length", len(result.Path), "found", result.Found)
	return nil
}

func (s *Scheduler) replay(ctx context.Context, views []View, runID uuid.UUID, phase Phase, cells []Cell, delay time.Duration) error {
	for step, cell := range cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.options.Clock.After(delay):
		}

		updated, ok := s.grid.mark(cell, phase)
		if !ok {
			continue
		}
		update := CellUpdate{RunID: runID, Phase: phase, Step: step, Cell: updated}
		for _, view := range views {
			view.CellUpdated(update)
		}
	}
	return nil
}

func (s *Scheduler) transition(to State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.state
	s.state = to
	return from
}

func (s *Scheduler) notify(views []View, runID uuid.UUID, from, to State) {
	for _, view := range views {
		if listener, ok := view.(StateListener); ok {
			listener.StateChanged(runID, from, to)
		}
	}
}
