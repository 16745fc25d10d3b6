package i

import (
	"github.com/beka-birhanu/vinom-mazegen/maze"
	"github.com/google/uuid"
)

// SessionInfo describes a generation session at creation time.
type SessionInfo struct {
	ID   uuid.UUID `json:"id"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Seed int64     `json:"seed"` // Seed reproduces the maze with the same dimensions.
}

// SessionSnapshot is the renderable state of a session.
type SessionSnapshot struct {
	ID   uuid.UUID `json:"id"`
	Seed int64     `json:"seed"`
	maze.Snapshot
}

// GenerationSessionManager owns in-memory maze generations and serializes access to each.
type GenerationSessionManager interface {
	// NewSession validates the dimensions and starts a generation. A nil seed picks one.
	NewSession(rows, cols int, seed *int64) (SessionInfo, error)

	// Step advances the session's generator by one step.
	Step(id uuid.UUID) (maze.StepResult, error)

	// Run steps the session to completion, returning the completion result and
	// the number of steps this call performed.
	Run(id uuid.UUID) (maze.StepResult, int, error)

	// Snapshot returns a copy of the session's grid and generator state.
	Snapshot(id uuid.UUID) (SessionSnapshot, error)

	// Delete drops the session.
	Delete(id uuid.UUID) error
}
