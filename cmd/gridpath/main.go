package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/pdrpinto/gridpath"
	"github.com/pdrpinto/gridpath/internal/cli"
	"github.com/pdrpinto/gridpath/internal/config"
	"github.com/pdrpinto/gridpath/internal/ctxlog"
	"github.com/pdrpinto/gridpath/internal/render"
)

// main is the entrypoint for the gridpath command.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// progressView counts replayed cells per phase.
type progressView struct {
	logger  *slog.Logger
	visited int
	path    int
}

func (v *progressView) CellUpdated(update gridpath.CellUpdate) {
	switch update.Phase {
	case gridpath.PhaseVisited:
		v.visited++
	case gridpath.PhasePath:
		v.path++
	}
	v.logger.Debug("Cell updated.", "phase", update.Phase, "step", update.Step, "row", update.Cell.Row, "col", update.Cell.Col)
}

func (v *progressView) StateChanged(runID uuid.UUID, from, to gridpath.State) {
	v.logger.Debug("Scheduler state changed.", "run_id", runID, "from", from, "to", to)
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, out, errOut io.Writer, args []string) error {
	options, shouldExit, err := cli.Parse(args, out)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := options.NewLogger(errOut)
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := config.LoadEnvFile(options.EnvFile); err != nil {
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}
	cfg, err := config.Load(ctx, options.ConfigPath)
	if err != nil {
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}
	if options.Walls != "" {
		walls, err := config.ParseWalls(options.Walls)
		if err != nil {
			return &cli.ExitError{Code: 2, Message: err.Error()}
		}
		cfg.Walls = append(cfg.Walls, walls...)
	}
	if options.Instant {
		cfg.VisitDelay, cfg.PathDelay = 0, 0
	}

	grid, err := cfg.NewGrid()
	if err != nil {
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}

	view := &progressView{logger: logger}
	schedulerOptions := append(cfg.SchedulerOptions(), gridpath.WithView(view), gridpath.WithLogger(logger))
	scheduler := gridpath.NewScheduler(grid, schedulerOptions...)
	controller := gridpath.NewController(grid, scheduler, logger)

	result, err := controller.Visualize(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Warn("Run interrupted.", "visited_replayed", view.visited, "path_replayed", view.path)
	} else if err != nil {
		return err
	}

	snapshot := grid.Snapshot()
	fmt.Fprint(out, render.Text(snapshot))
	if result.Found {
		fmt.Fprintf(out, "path: %d cells, %d steps; visited %d cells\n", len(result.Path), len(result.Path)-1, len(result.VisitedOrder))
	} else {
		fmt.Fprintf(out, "no path; visited %d cells\n", len(result.VisitedOrder))
	}

	if options.PNGPath != "" {
		if err := render.SavePNG(options.PNGPath, snapshot, options.CellSize); err != nil {
			return err
		}
		logger.Info("Wrote grid image.", "path", options.PNGPath)
	}
	return nil
}
