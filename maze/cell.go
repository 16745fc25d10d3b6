package maze

import "fmt"

// Direction identifies one side of a cell.
type Direction int

// Directions in the fixed order used for neighbor lookup.
const (
	North Direction = iota // top
	East                   // right
	South                  // bottom
	West                   // left
)

var (
	// Directions lists every side of a cell in lookup order.
	Directions = [...]Direction{North, East, South, West}

	directionDeltas = [...]CellPosition{
		North: {Row: -1, Col: 0},
		East:  {Row: 0, Col: 1},
		South: {Row: 1, Col: 0},
		West:  {Row: 0, Col: -1},
	}
)

// String returns the name of the direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name written by MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	for _, dir := range Directions {
		if dir.String() == string(text) {
			*d = dir
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", text)
}

// Opposite returns the side facing d on the adjacent cell.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// CellPosition represents the position of a cell in the maze grid.
type CellPosition struct {
	Row int `json:"row"` // Row index of the cell
	Col int `json:"col"` // Column index of the cell
}

// Add returns the position one step away in direction d.
func (p CellPosition) Add(d Direction) CellPosition {
	delta := directionDeltas[d]
	return CellPosition{Row: p.Row + delta.Row, Col: p.Col + delta.Col}
}

func (p CellPosition) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Move represents a passage opened from one cell to an adjacent one.
type Move struct {
	From      CellPosition `json:"from"`      // Starting cell
	To        CellPosition `json:"to"`        // Destination cell
	Direction Direction    `json:"direction"` // Side of From facing To
}

// Cell represents a single cell in a maze grid.
// It includes properties for walls on each side, the traversal mark and the goal mark.
type Cell struct {
	Position  CellPosition `json:"position"`   // Position is fixed at setup.
	NorthWall bool         `json:"north_wall"` // NorthWall indicates whether there is a wall on the north side of the cell.
	EastWall  bool         `json:"east_wall"`  // EastWall indicates whether there is a wall on the east side of the cell.
	SouthWall bool         `json:"south_wall"` // SouthWall indicates whether there is a wall on the south side of the cell.
	WestWall  bool         `json:"west_wall"`  // WestWall indicates whether there is a wall on the west side of the cell.
	Visited   bool         `json:"visited"`    // Visited is set once, when the generator first reaches the cell.
	Goal      bool         `json:"goal"`       // Goal marks the bottom-right cell.
}

func newCell(row, col int) Cell {
	return Cell{
		Position:  CellPosition{Row: row, Col: col},
		NorthWall: true,
		EastWall:  true,
		SouthWall: true,
		WestWall:  true,
	}
}

// HasWall reports whether the wall on side d is intact.
func (c *Cell) HasWall(d Direction) bool {
	switch d {
	case North:
		return c.NorthWall
	case East:
		return c.EastWall
	case South:
		return c.SouthWall
	case West:
		return c.WestWall
	default:
		return false
	}
}

// clearWall removes the wall on side d. Only the grid calls it, always in pairs.
func (c *Cell) clearWall(d Direction) {
	switch d {
	case North:
		c.NorthWall = false
	case East:
		c.EastWall = false
	case South:
		c.SouthWall = false
	case West:
		c.WestWall = false
	}
}
