// Package gridpath provides a deterministic shortest-path engine for 2-D grids
// together with the replay machinery needed to animate it.
//
// It exposes four pieces:
//
//   - Grid: the cell model (one start, one end, a wall set) and its snapshots.
//   - Search / Stepper: Dijkstra over a 4-connected grid, run to completion or
//     one finalization at a time.
//   - Scheduler: replays a SearchResult as timed, cancellable CellUpdate events.
//   - Controller: user edits (wall painting, start/end moves, clear/reset)
//     gated on the scheduler's run state.
//
// The engine only reads immutable snapshots; the scheduler is the only writer
// of the visited/path flags on the live grid while a run is in progress.
package gridpath
