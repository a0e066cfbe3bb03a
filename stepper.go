package gridpath

import (
	"container/heap"
	"context"

	"github.com/pdrpinto/gridpath/internal"
)

// neighbourOffsets lists the 4-connected neighbours in row-major order so that
// cells discovered by the same finalization keep row-major tie order.
var neighbourOffsets = [4]Position{
	{Row: -1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
}

// Relaxation records a neighbour whose tentative distance was lowered.
type Relaxation struct {
	From     Position
	To       Position
	Distance int
}

// StepSnapshot exposes the per-finalization state of the search.
type StepSnapshot struct {
	Current      Cell
	Relaxed      []Relaxation
	FrontierSize int
	Done         bool
	Found        bool
	Path         []Cell
	StepIndex    int
}

// Stepper runs the search one finalization at a time. It owns private working
// arrays and never writes to the snapshot it was created from.
type Stepper struct {
	ctx      context.Context
	snapshot Snapshot

	distance    []int
	predecessor []int
	finalized   []bool
	items       []*PriorityQueueItem
	frontier    PriorityQueue
	nextSeq     int

	visitedOrder []int
	stepCount    int
	done         bool
	found        bool
}

// NewStepper prepares a search over snapshot with the start cell at distance 0.
func NewStepper(ctx context.Context, snapshot Snapshot) *Stepper {
	n := snapshot.Len()
	s := &Stepper{
		ctx:         ctx,
		snapshot:    snapshot,
		distance:    make([]int, n),
		predecessor: make([]int, n),
		finalized:   make([]bool, n),
		items:       make([]*PriorityQueueItem, n),
		frontier:    make(PriorityQueue, 0, n),
	}
	for i := range s.distance {
		s.distance[i] = Infinity
		s.predecessor[i] = NoPredecessor
	}
	heap.Init(&s.frontier)
	if n == 0 {
		s.done = true
		return s
	}
	s.discover(snapshot.start, 0, NoPredecessor)
	return s
}

// discover records a lowered tentative distance for index and keeps the
// frontier ordered. The discovery sequence is assigned once per cell.
func (s *Stepper) discover(index, distance, from int) {
	s.distance[index] = distance
	s.predecessor[index] = from
	if item := s.items[index]; item != nil {
		item.Distance = distance
		heap.Fix(&s.frontier, item.IndexInQueue)
		return
	}
	item := &PriorityQueueItem{Index: index, Distance: distance, Seq: s.nextSeq}
	s.nextSeq++
	heap.Push(&s.frontier, item)
	s.items[index] = item
}

// Step finalizes the next frontier cell and relaxes its neighbours.
func (s *Stepper) Step() (StepSnapshot, error) {
	if s.done {
		return s.finished(), nil
	}
	if err := s.ctx.Err(); err != nil {
		s.done = true
		return StepSnapshot{Done: true, StepIndex: s.stepCount}, err
	}
	if s.frontier.Len() == 0 {
		s.done = true
		return s.finished(), nil
	}

	item := heap.Pop(&s.frontier).(*PriorityQueueItem)
	current := item.Index
	s.items[current] = nil
	if item.Distance == Infinity {
		s.done = true
		return s.finished(), nil
	}

	s.stepCount++
	s.finalized[current] = true
	s.visitedOrder = append(s.visitedOrder, current)

	if current == s.snapshot.end {
		s.done = true
		s.found = true
		return StepSnapshot{
			Current:   s.cell(current),
			Done:      true,
			Found:     true,
			Path:      s.Path(),
			StepIndex: s.stepCount,
		}, nil
	}

	relaxed := s.relax(current)
	return StepSnapshot{
		Current:      s.cell(current),
		Relaxed:      relaxed,
		FrontierSize: s.frontier.Len(),
		StepIndex:    s.stepCount,
	}, nil
}

func (s *Stepper) relax(current int) []Relaxation {
	from := s.snapshot.PositionOf(current)
	var relaxed []Relaxation
	for _, offset := range neighbourOffsets {
		to := Position{Row: from.Row + offset.Row, Col: from.Col + offset.Col}
		neighbour, ok := s.snapshot.Index(to)
		if !ok || s.snapshot.cells[neighbour].IsWall || s.finalized[neighbour] {
			continue
		}
		candidate := s.distance[current] + 1
		if candidate < s.distance[neighbour] {
			s.discover(neighbour, candidate, current)
			relaxed = append(relaxed, Relaxation{From: from, To: to, Distance: candidate})
		}
	}
	return relaxed
}

func (s *Stepper) finished() StepSnapshot {
	return StepSnapshot{
		Done:      true,
		Found:     s.found,
		Path:      s.Path(),
		StepIndex: s.stepCount,
	}
}

// cell returns the snapshot cell at index with this run's search fields.
func (s *Stepper) cell(index int) Cell {
	c := s.snapshot.cells[index]
	c.Distance = s.distance[index]
	c.Predecessor = s.predecessor[index]
	c.Visited = s.finalized[index]
	c.OnPath = false
	return c
}

func (s *Stepper) Done() bool  { return s.done }
func (s *Stepper) Found() bool { return s.found }

// VisitedOrder returns the cells finalized so far, in finalization order.
func (s *Stepper) VisitedOrder() []Cell {
	out := make([]Cell, 0, len(s.visitedOrder))
	for _, index := range s.visitedOrder {
		out = append(out, s.cell(index))
	}
	return out
}

// Path returns the start-to-end route, or nil until the end is finalized.
func (s *Stepper) Path() []Cell {
	if !s.found {
		return nil
	}
	indices := internal.ReconstructPath(s.predecessor, s.snapshot.end, s.snapshot.start)
	if indices == nil {
		return nil
	}
	path := make([]Cell, 0, len(indices))
	for _, index := range indices {
		c := s.cell(index)
		c.OnPath = true
		path = append(path, c)
	}
	return path
}
