// Package render draws grid snapshots for the command-line and HTTP views:
// a plain-text board for terminals and PNG images through gogpu/gg.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/gg"
	"github.com/pdrpinto/gridpath"
)

// DefaultCellSize is the PNG edge length of one cell in pixels.
const DefaultCellSize = 24

// Legend colours, by cell kind.
var (
	ColorStart   = gg.Hex("#22c55e")
	ColorEnd     = gg.Hex("#ef4444")
	ColorWall    = gg.Hex("#1f2937")
	ColorPath    = gg.Hex("#facc15")
	ColorVisited = gg.Hex("#93c5fd")
	ColorEmpty   = gg.Hex("#ffffff")
	ColorBorder  = gg.Hex("#d1d5db")
)

// Kind is the visual class of a cell. Earlier kinds win when several flags
// are set on the same cell.
type Kind int

const (
	KindStart Kind = iota
	KindEnd
	KindWall
	KindPath
	KindVisited
	KindEmpty
)

// Classify returns the visual class of c.
func Classify(c gridpath.Cell) Kind {
	switch {
	case c.IsStart:
		return KindStart
	case c.IsEnd:
		return KindEnd
	case c.IsWall:
		return KindWall
	case c.OnPath:
		return KindPath
	case c.Visited:
		return KindVisited
	default:
		return KindEmpty
	}
}

var glyphs = map[Kind]byte{
	KindStart:   'S',
	KindEnd:     'E',
	KindWall:    '#',
	KindPath:    '*',
	KindVisited: 'o',
	KindEmpty:   '.',
}

var colors = map[Kind]gg.RGBA{
	KindStart:   ColorStart,
	KindEnd:     ColorEnd,
	KindWall:    ColorWall,
	KindPath:    ColorPath,
	KindVisited: ColorVisited,
	KindEmpty:   ColorEmpty,
}

// Text renders snapshot as one line per row.
func Text(snapshot gridpath.Snapshot) string {
	var b strings.Builder
	b.Grow(snapshot.Rows() * (snapshot.Cols() + 1))
	for i, c := range snapshot.Cells() {
		b.WriteByte(glyphs[Classify(c)])
		if (i+1)%snapshot.Cols() == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Draw paints snapshot onto a new drawing context. The caller must Close it.
func Draw(snapshot gridpath.Snapshot, cellSize int) *gg.Context {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	size := float64(cellSize)
	dc := gg.NewContext(snapshot.Cols()*cellSize, snapshot.Rows()*cellSize)
	dc.ClearWithColor(ColorEmpty)

	for _, c := range snapshot.Cells() {
		x := float64(c.Col) * size
		y := float64(c.Row) * size
		dc.SetColor(colors[Classify(c)].Color())
		dc.DrawRectangle(x, y, size, size)
		_ = dc.Fill()

		dc.SetColor(ColorBorder.Color())
		dc.SetLineWidth(1)
		dc.DrawRectangle(x+0.5, y+0.5, size-1, size-1)
		_ = dc.Stroke()
	}
	return dc
}

// WritePNG encodes snapshot as a PNG image to w.
func WritePNG(w io.Writer, snapshot gridpath.Snapshot, cellSize int) error {
	dc := Draw(snapshot, cellSize)
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG writes snapshot as a PNG image to path.
func SavePNG(path string, snapshot gridpath.Snapshot, cellSize int) error {
	dc := Draw(snapshot, cellSize)
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save png %s: %w", path, err)
	}
	return nil
}
