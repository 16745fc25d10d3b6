/*
Package maze provides tools for creating and generating rectangular perfect mazes.

It defines the `Grid` structure, composed of `Cell` values that carry wall flags, a
visited mark and a goal mark, and a `Generator` that carves a spanning tree over the
grid with randomized depth-first search and explicit backtracking.

Generation is exposed one step at a time so a driver can animate it, or run to
completion for headless use. The grid is the single source of truth for wall state;
the generator only keeps positions.
*/
package maze

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultMaxDimension bounds each axis of a grid built with NewWithLimit.
	DefaultMaxDimension = 50
)

var (
	ErrInvalidDimension = errors.New("invalid maze dimensions")
	ErrNotAdjacent      = errors.New("cells are not adjacent")
)

// Grid represents a rectangular maze of rows × cols cells, stored row-major.
type Grid struct {
	rows  int
	cols  int
	cells [][]Cell
}

// New sets up a grid of the given dimensions with every wall intact and no cell visited.
// The bottom-right cell is marked as the goal.
func New(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, rows, cols)
	}

	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
		for c := range cells[r] {
			cells[r][c] = newCell(r, c)
		}
	}
	cells[rows-1][cols-1].Goal = true

	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: cells,
	}, nil
}

// NewWithLimit is New with an upper bound on each axis. A non-positive limit means
// DefaultMaxDimension.
func NewWithLimit(rows, cols, limit int) (*Grid, error) {
	if err := ValidateDimensions(rows, cols, limit); err != nil {
		return nil, err
	}
	return New(rows, cols)
}

// ValidateDimensions checks rows and cols against the range [1, limit].
func ValidateDimensions(rows, cols, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxDimension
	}
	if min(rows, cols) < 1 || max(rows, cols) > limit {
		return fmt.Errorf("%w: %dx%d (each axis must be within 1..%d)", ErrInvalidDimension, rows, cols, limit)
	}
	return nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns.
func (g *Grid) Cols() int {
	return g.cols
}

// InBound reports whether pos lies inside the grid.
func (g *Grid) InBound(pos CellPosition) bool {
	return pos.Row >= 0 && pos.Row < g.rows && pos.Col >= 0 && pos.Col < g.cols
}

// Cell returns a copy of the cell at pos.
func (g *Grid) Cell(pos CellPosition) (Cell, bool) {
	if !g.InBound(pos) {
		return Cell{}, false
	}
	return g.cells[pos.Row][pos.Col], true
}

// Cells returns a copy of every cell, row-major.
func (g *Grid) Cells() [][]Cell {
	out := make([][]Cell, g.rows)
	for r := range g.cells {
		out[r] = make([]Cell, g.cols)
		copy(out[r], g.cells[r])
	}
	return out
}

func (g *Grid) at(pos CellPosition) *Cell {
	return &g.cells[pos.Row][pos.Col]
}

// Neighbors returns the in-bound orthogonal neighbors of pos in the order
// North, East, South, West.
func (g *Grid) Neighbors(pos CellPosition) []CellPosition {
	result := make([]CellPosition, 0, len(Directions))
	for _, dir := range Directions {
		if next := pos.Add(dir); g.InBound(next) {
			result = append(result, next)
		}
	}
	return result
}

// RemoveWallBetween opens the passage between two orthogonally adjacent cells by
// clearing the facing wall on both of them. It returns the side of a that faced b.
// Nothing is mutated when the cells are not adjacent.
func (g *Grid) RemoveWallBetween(a, b CellPosition) (Direction, error) {
	if !g.InBound(a) || !g.InBound(b) {
		return 0, fmt.Errorf("%w: %s and %s (out of bounds)", ErrNotAdjacent, a, b)
	}

	dir, ok := directionBetween(a, b)
	if !ok {
		return 0, fmt.Errorf("%w: %s and %s", ErrNotAdjacent, a, b)
	}

	g.at(a).clearWall(dir)
	g.at(b).clearWall(dir.Opposite())
	return dir, nil
}

// directionBetween derives the side of a facing b from the signed row/column delta.
func directionBetween(a, b CellPosition) (Direction, bool) {
	dr, dc := b.Row-a.Row, b.Col-a.Col
	switch {
	case dr == -1 && dc == 0:
		return North, true
	case dr == 0 && dc == 1:
		return East, true
	case dr == 1 && dc == 0:
		return South, true
	case dr == 0 && dc == -1:
		return West, true
	default:
		return 0, false
	}
}

// IsOpen reports whether a and b are adjacent with no wall between them.
func (g *Grid) IsOpen(a, b CellPosition) bool {
	if !g.InBound(a) || !g.InBound(b) {
		return false
	}
	dir, ok := directionBetween(a, b)
	if !ok {
		return false
	}
	return !g.at(a).HasWall(dir) && !g.at(b).HasWall(dir.Opposite())
}

// RemovedWalls counts the open wall pairs between adjacent cells.
func (g *Grid) RemovedWalls() int {
	count := 0
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cell := &g.cells[r][c]
			if c+1 < g.cols && !cell.EastWall {
				count++
			}
			if r+1 < g.rows && !cell.SouthWall {
				count++
			}
		}
	}
	return count
}

// VisitedCount returns the number of cells marked visited.
func (g *Grid) VisitedCount() int {
	count := 0
	for r := range g.cells {
		for c := range g.cells[r] {
			if g.cells[r][c].Visited {
				count++
			}
		}
	}
	return count
}

// String provides a textual representation of the maze. The goal cell is marked with G.
func (g *Grid) String() string {
	return renderText(g.cells)
}

// renderText draws cells as ASCII art, one text row per cell row plus one per wall row.
func renderText(cells [][]Cell) string {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return ""
	}

	var b strings.Builder

	// Top boundary
	b.WriteString("+")
	for _, cell := range cells[0] {
		if cell.NorthWall {
			b.WriteString("---+")
		} else {
			b.WriteString("   +")
		}
	}
	b.WriteString("\n")

	for _, row := range cells {
		// Cell rows
		if row[0].WestWall {
			b.WriteString("|")
		} else {
			b.WriteString(" ")
		}
		for _, cell := range row {
			if cell.Goal {
				b.WriteString(" G ")
			} else {
				b.WriteString("   ")
			}
			if cell.EastWall {
				b.WriteString("|")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")

		// Wall rows
		b.WriteString("+")
		for _, cell := range row {
			if cell.SouthWall {
				b.WriteString("---+")
			} else {
				b.WriteString("   +")
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
