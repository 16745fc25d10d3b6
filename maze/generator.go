package maze

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	ErrHalted = errors.New("generator halted after an inconsistent step")
)

// Source picks the random neighbor. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// State is the generator's lifecycle state.
type State int

const (
	Running State = iota
	Done
)

func (s State) String() string {
	if s == Done {
		return "DONE"
	}
	return "RUNNING"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "RUNNING":
		*s = Running
	case "DONE":
		*s = Done
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// Event names the kind of progress a step made.
type Event string

const (
	EventAdvance   Event = "advance"
	EventBacktrack Event = "backtrack"
	EventComplete  Event = "complete"
)

// StepResult describes one step. WallRemoved is set only for advances.
type StepResult struct {
	Event       Event        `json:"event"`
	Current     CellPosition `json:"current"`
	WallRemoved *Move        `json:"wall_removed,omitempty"`
	StepIndex   int          `json:"step"`
	Done        bool         `json:"done"`
}

// Generator carves a perfect maze into a Grid with randomized depth-first search.
// A Generator must not be stepped from several goroutines at once.
type Generator struct {
	grid    *Grid
	rng     Source
	current CellPosition
	stack   []CellPosition
	state   State
	steps   int
	final   StepResult
	err     error
}

// NewGenerator binds a generator to grid, starting at (0,0), which is marked visited.
// A nil src uses a time-seeded source.
func NewGenerator(grid *Grid, src Source) *Generator {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	start := CellPosition{Row: 0, Col: 0}
	grid.at(start).Visited = true

	return &Generator{
		grid:    grid,
		rng:     src,
		current: start,
		stack:   make([]CellPosition, 0, grid.rows*grid.cols),
		state:   Running,
	}
}

// Grid returns the grid being generated.
func (g *Generator) Grid() *Grid {
	return g.grid
}

// Current returns the traversal head.
func (g *Generator) Current() CellPosition {
	return g.current
}

// State returns RUNNING until the completion step, then DONE.
func (g *Generator) State() State {
	return g.state
}

// Done reports whether generation has completed.
func (g *Generator) Done() bool {
	return g.state == Done
}

// Steps returns the number of steps taken, including the completion step.
func (g *Generator) Steps() int {
	return g.steps
}

// StackDepth returns the length of the backtracking path.
func (g *Generator) StackDepth() int {
	return len(g.stack)
}

// Err returns the error that halted the generator, if any.
func (g *Generator) Err() error {
	return g.err
}

// MaxSteps is the number of steps a rows × cols grid takes to complete: one advance
// and one backtrack per cell other than the start, plus the completion step.
func MaxSteps(rows, cols int) int {
	return 2*rows*cols - 1
}

// Step advances generation by one unit of work: move to a random unvisited neighbor,
// otherwise backtrack one cell, otherwise complete. Once complete it keeps returning
// the completion result without touching the grid.
func (g *Generator) Step() (StepResult, error) {
	if g.err != nil {
		return StepResult{}, g.err
	}
	if g.state == Done {
		return g.final, nil
	}

	unvisited := g.unvisitedNeighbors(g.current)

	switch {
	case len(unvisited) > 0:
		next := unvisited[g.rng.Intn(len(unvisited))]
		dir, err := g.grid.RemoveWallBetween(g.current, next)
		if err != nil {
			g.err = fmt.Errorf("%w: %w", ErrHalted, err)
			return StepResult{}, g.err
		}

		g.grid.at(next).Visited = true
		g.stack = append(g.stack, g.current)
		move := &Move{From: g.current, To: next, Direction: dir}
		g.current = next
		g.steps++
		return StepResult{
			Event:       EventAdvance,
			Current:     g.current,
			WallRemoved: move,
			StepIndex:   g.steps,
		}, nil

	case len(g.stack) > 0:
		last := len(g.stack) - 1
		g.current = g.stack[last]
		g.stack = g.stack[:last]
		g.steps++
		return StepResult{
			Event:     EventBacktrack,
			Current:   g.current,
			StepIndex: g.steps,
		}, nil

	default:
		g.state = Done
		g.steps++
		g.final = StepResult{
			Event:     EventComplete,
			Current:   g.current,
			StepIndex: g.steps,
			Done:      true,
		}
		return g.final, nil
	}
}

// RunToCompletion steps until the completion event and returns it. observe, if not
// nil, sees every step result in order, the completion included.
func (g *Generator) RunToCompletion(observe func(StepResult)) (StepResult, error) {
	for {
		res, err := g.Step()
		if err != nil {
			return StepResult{}, err
		}
		if observe != nil {
			observe(res)
		}
		if res.Done {
			return res, nil
		}
	}
}

func (g *Generator) unvisitedNeighbors(pos CellPosition) []CellPosition {
	neighbors := g.grid.Neighbors(pos)
	unvisited := neighbors[:0]
	for _, n := range neighbors {
		if !g.grid.at(n).Visited {
			unvisited = append(unvisited, n)
		}
	}
	return unvisited
}

// Snapshot is a read-only copy of the generation state, sufficient for rendering.
type Snapshot struct {
	Rows         int          `json:"rows"`
	Cols         int          `json:"cols"`
	Cells        [][]Cell     `json:"cells"`
	Current      CellPosition `json:"current"`
	State        State        `json:"state"`
	Steps        int          `json:"steps"`
	RemovedWalls int          `json:"removed_walls"`
}

// Snapshot copies the grid and the generator's position.
func (g *Generator) Snapshot() Snapshot {
	return Snapshot{
		Rows:         g.grid.rows,
		Cols:         g.grid.cols,
		Cells:        g.grid.Cells(),
		Current:      g.current,
		State:        g.state,
		Steps:        g.steps,
		RemovedWalls: g.grid.RemovedWalls(),
	}
}

// String renders the snapshot's cells like Grid.String.
func (s Snapshot) String() string {
	return renderText(s.Cells)
}
