// Package config loads the static grid configuration: dimensions, start and
// end cells, replay delays and an optional initial wall layout.
//
// Sources are applied in order: built-in defaults, an optional HCL or YAML
// file, then GRIDPATH_* environment variables (a .env file is loaded first when
// present). The result is validated before use.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/pdrpinto/gridpath"
	"github.com/pdrpinto/gridpath/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvRows       = "GRIDPATH_ROWS"
	EnvCols       = "GRIDPATH_COLS"
	EnvStart      = "GRIDPATH_START"
	EnvEnd        = "GRIDPATH_END"
	EnvVisitDelay = "GRIDPATH_VISIT_DELAY"
	EnvPathDelay  = "GRIDPATH_PATH_DELAY"
)

// Config holds the grid configuration.
type Config struct {
	Rows       int
	Cols       int
	Start      gridpath.Position
	End        gridpath.Position
	VisitDelay time.Duration
	PathDelay  time.Duration
	Walls      []gridpath.Position
}

// Default returns the 20x40 layout with start (10,5) and end (10,35).
func Default() Config {
	return Config{
		Rows:       gridpath.DefaultRows,
		Cols:       gridpath.DefaultCols,
		Start:      gridpath.DefaultStart,
		End:        gridpath.DefaultEnd,
		VisitDelay: gridpath.DefaultVisitDelay,
		PathDelay:  gridpath.DefaultPathDelay,
	}
}

// Validate returns a *gridpath.ConfigError describing the first problem.
func (c Config) Validate() error {
	if err := gridpath.ValidateLayout(c.Rows, c.Cols, c.Start, c.End); err != nil {
		return err
	}
	if c.VisitDelay < 0 {
		return &gridpath.ConfigError{Field: "visit_delay", Reason: "must not be negative"}
	}
	if c.PathDelay < 0 {
		return &gridpath.ConfigError{Field: "path_delay", Reason: "must not be negative"}
	}
	for _, wall := range c.Walls {
		if wall.Row < 0 || wall.Row >= c.Rows || wall.Col < 0 || wall.Col >= c.Cols {
			return &gridpath.ConfigError{Field: "walls", Reason: fmt.Sprintf("%s outside %dx%d grid", wall, c.Rows, c.Cols)}
		}
	}
	return nil
}

// NewGrid allocates the configured grid and paints its walls. Walls on the
// start or end cell are ignored.
func (c Config) NewGrid() (*gridpath.Grid, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	grid, err := gridpath.NewGrid(c.Rows, c.Cols, c.Start, c.End)
	if err != nil {
		return nil, err
	}
	for _, wall := range c.Walls {
		if err := grid.SetWall(wall, true); err != nil {
			return nil, fmt.Errorf("painting wall %s: %w", wall, err)
		}
	}
	return grid, nil
}

// SchedulerOptions returns the replay options implied by the configuration.
func (c Config) SchedulerOptions() []gridpath.SchedulerOption {
	return []gridpath.SchedulerOption{
		gridpath.WithVisitDelay(c.VisitDelay),
		gridpath.WithPathDelay(c.PathDelay),
	}
}

// Load builds a Config from defaults, the file at path (skipped when empty)
// and the environment, and validates it.
func Load(ctx context.Context, path string) (Config, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
		logger.Debug("Loaded grid config file.", "path", path, "rows", cfg.Rows, "cols", cfg.Cols, "walls", len(cfg.Walls))
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	logger.Debug("Grid config ready.", "rows", cfg.Rows, "cols", cfg.Cols, "start", cfg.Start, "end", cfg.End)
	return cfg, nil
}

// LoadEnvFile loads variables from a .env style file. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return c.loadHCL(path)
	case ".yaml", ".yml":
		return c.loadYAML(path)
	default:
		return fmt.Errorf("unsupported config file %s: want .hcl, .yaml or .yml", path)
	}
}

// ApplyEnv overrides fields from GRIDPATH_* variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvRows); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &gridpath.ConfigError{Field: "rows", Reason: fmt.Sprintf("%s must be an integer: %v", EnvRows, err)}
		}
		c.Rows = n
	}
	if v, ok := os.LookupEnv(EnvCols); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &gridpath.ConfigError{Field: "cols", Reason: fmt.Sprintf("%s must be an integer: %v", EnvCols, err)}
		}
		c.Cols = n
	}
	if v, ok := os.LookupEnv(EnvStart); ok {
		p, err := ParsePosition(v)
		if err != nil {
			return &gridpath.ConfigError{Field: "start", Reason: fmt.Sprintf("%s: %v", EnvStart, err)}
		}
		c.Start = p
	}
	if v, ok := os.LookupEnv(EnvEnd); ok {
		p, err := ParsePosition(v)
		if err != nil {
			return &gridpath.ConfigError{Field: "end", Reason: fmt.Sprintf("%s: %v", EnvEnd, err)}
		}
		c.End = p
	}
	if v, ok := os.LookupEnv(EnvVisitDelay); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return &gridpath.ConfigError{Field: "visit_delay", Reason: fmt.Sprintf("%s: %v", EnvVisitDelay, err)}
		}
		c.VisitDelay = d
	}
	if v, ok := os.LookupEnv(EnvPathDelay); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return &gridpath.ConfigError{Field: "path_delay", Reason: fmt.Sprintf("%s: %v", EnvPathDelay, err)}
		}
		c.PathDelay = d
	}
	return nil
}

// ParsePosition parses "row,col".
func ParsePosition(s string) (gridpath.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return gridpath.Position{}, fmt.Errorf("position %q must look like row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return gridpath.Position{}, fmt.Errorf("position %q: bad row: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return gridpath.Position{}, fmt.Errorf("position %q: bad col: %w", s, err)
	}
	return gridpath.Position{Row: row, Col: col}, nil
}

// hclPosition is a `start`, `end` or `wall` block.
type hclPosition struct {
	Row int `hcl:"row"`
	Col int `hcl:"col"`
}

type hclAnimation struct {
	VisitDelay *string `hcl:"visit_delay,optional"`
	PathDelay  *string `hcl:"path_delay,optional"`
}

// hclGridFile represents the top-level structure of a grid file for decoding.
type hclGridFile struct {
	Rows      *int          `hcl:"rows,optional"`
	Cols      *int          `hcl:"cols,optional"`
	Start     *hclPosition  `hcl:"start,block"`
	End       *hclPosition  `hcl:"end,block"`
	Animation *hclAnimation `hcl:"animation,block"`
	Walls     []hclPosition `hcl:"wall,block"`
}

func (c *Config) loadHCL(path string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed hclGridFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if parsed.Rows != nil {
		c.Rows = *parsed.Rows
	}
	if parsed.Cols != nil {
		c.Cols = *parsed.Cols
	}
	if parsed.Start != nil {
		c.Start = gridpath.Position{Row: parsed.Start.Row, Col: parsed.Start.Col}
	}
	if parsed.End != nil {
		c.End = gridpath.Position{Row: parsed.End.Row, Col: parsed.End.Col}
	}
	if parsed.Animation != nil {
		if err := c.setDelays(parsed.Animation.VisitDelay, parsed.Animation.PathDelay); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, wall := range parsed.Walls {
		c.Walls = append(c.Walls, gridpath.Position{Row: wall.Row, Col: wall.Col})
	}
	return nil
}

type yamlAnimation struct {
	VisitDelay *string `yaml:"visit_delay"`
	PathDelay  *string `yaml:"path_delay"`
}

type yamlGridFile struct {
	Rows      *int                `yaml:"rows"`
	Cols      *int                `yaml:"cols"`
	Start     *gridpath.Position  `yaml:"start"`
	End       *gridpath.Position  `yaml:"end"`
	Animation *yamlAnimation      `yaml:"animation"`
	Walls     []gridpath.Position `yaml:"walls"`
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var parsed yamlGridFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("yaml unmarshal %s: %w", path, err)
	}

	if parsed.Rows != nil {
		c.Rows = *parsed.Rows
	}
	if parsed.Cols != nil {
		c.Cols = *parsed.Cols
	}
	if parsed.Start != nil {
		c.Start = *parsed.Start
	}
	if parsed.End != nil {
		c.End = *parsed.End
	}
	if parsed.Animation != nil {
		if err := c.setDelays(parsed.Animation.VisitDelay, parsed.Animation.PathDelay); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	c.Walls = append(c.Walls, parsed.Walls...)
	return nil
}

func (c *Config) setDelays(visit, path *string) error {
	if visit != nil {
		d, err := time.ParseDuration(*visit)
		if err != nil {
			return &gridpath.ConfigError{Field: "visit_delay", Reason: err.Error()}
		}
		c.VisitDelay = d
	}
	if path != nil {
		d, err := time.ParseDuration(*path)
		if err != nil {
			return &gridpath.ConfigError{Field: "path_delay", Reason: err.Error()}
		}
		c.PathDelay = d
	}
	return nil
}

// ParseWalls parses a semicolon separated list of "row,col" positions.
func ParseWalls(s string) ([]gridpath.Position, error) {
	var walls []gridpath.Position
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParsePosition(part)
		if err != nil {
			return nil, err
		}
		walls = append(walls, p)
	}
	return walls, nil
}
