// Package mazeapi exposes maze generation sessions over HTTP.
package mazeapi

import (
	"github.com/beka-birhanu/vinom-mazegen/maze"
	"github.com/beka-birhanu/vinom-mazegen/service/i"
	"github.com/google/uuid"
)

// CreateMazeRequest represents a request to start a new generation.
type CreateMazeRequest struct {
	Rows int    `json:"rows" binding:"required"`
	Cols int    `json:"cols" binding:"required"`
	Seed *int64 `json:"seed"`
}

// CreateMazeResponse carries the new session and the token that grants access to it.
type CreateMazeResponse struct {
	ID       uuid.UUID `json:"id"`
	Token    string    `json:"token"`
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	Seed     int64     `json:"seed"`
	MaxSteps int       `json:"max_steps"`
}

// StepResponse is returned for a single step.
type StepResponse struct {
	Step maze.StepResult   `json:"step"`
	Maze i.SessionSnapshot `json:"maze"`
}

// RunResponse is returned after running a generation to completion.
type RunResponse struct {
	Steps int               `json:"steps"` // Steps performed by this request.
	Step  maze.StepResult   `json:"step"`
	Maze  i.SessionSnapshot `json:"maze"`
}

// Stream message types.
const (
	MessageSnapshot = "snapshot"
	MessageStep     = "step"
)

// StreamMessage is one websocket frame of a generation stream. The stream opens and
// closes with a snapshot; every step in between is sent as a delta.
type StreamMessage struct {
	Type string             `json:"type"`
	Step *maze.StepResult   `json:"step,omitempty"`
	Maze *i.SessionSnapshot `json:"maze,omitempty"`
}
