package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-mazegen/maze"
	"github.com/beka-birhanu/vinom-mazegen/service/i"
	"github.com/google/uuid"
	channerics "github.com/niceyeti/channerics/channels"
)

const (
	defaultSessionTTL    = 15 * time.Minute
	defaultMaxSessions   = 256
	defaultSweepInterval = time.Minute
)

var (
	ErrSessionNotFound = errors.New("generation session not found")
	ErrTooManySessions = errors.New("too many generation sessions")
	ErrNilLogger       = errors.New("logger is required")
)

var _ i.GenerationSessionManager = &GenerationSessionManager{}

// session is one maze generation. Its mutex serializes every use of the generator.
type session struct {
	info      i.SessionInfo
	generator *maze.Generator
	lastUsed  time.Time
	sync.Mutex
}

// GenerationSessionManager keeps generation sessions in memory, keyed by ID.
type GenerationSessionManager struct {
	sessions     map[uuid.UUID]*session
	maxDimension int
	maxSessions  int
	ttl          time.Duration
	logger       i.Logger
	now          func() time.Time
	sync.RWMutex
}

// Config holds the settings for a GenerationSessionManager.
type Config struct {
	MaxDimension int           // Upper bound for rows and columns; maze.DefaultMaxDimension when zero.
	MaxSessions  int           // Maximum number of live sessions.
	SessionTTL   time.Duration // Idle time after which Sweep drops a session.
	Logger       i.Logger
}

// NewGenerationSessionManager creates a manager with no sessions.
func NewGenerationSessionManager(c *Config) (*GenerationSessionManager, error) {
	if c == nil || c.Logger == nil {
		return nil, ErrNilLogger
	}

	gsm := &GenerationSessionManager{
		sessions:     make(map[uuid.UUID]*session),
		maxDimension: c.MaxDimension,
		maxSessions:  c.MaxSessions,
		ttl:          c.SessionTTL,
		logger:       c.Logger,
		now:          time.Now,
	}

	if gsm.maxDimension <= 0 {
		gsm.maxDimension = maze.DefaultMaxDimension
	}
	if gsm.maxSessions <= 0 {
		gsm.maxSessions = defaultMaxSessions
	}
	if gsm.ttl <= 0 {
		gsm.ttl = defaultSessionTTL
	}

	return gsm, nil
}

// NewSession implements i.GenerationSessionManager.
func (g *GenerationSessionManager) NewSession(rows, cols int, seed *int64) (i.SessionInfo, error) {
	grid, err := maze.NewWithLimit(rows, cols, g.maxDimension)
	if err != nil {
		g.logger.Warning(fmt.Sprintf("rejected generation request: %s", err))
		return i.SessionInfo{}, err
	}

	var s int64
	if seed != nil {
		s = *seed
	} else {
		s = rand.Int63()
	}

	g.Lock()
	defer g.Unlock()
	if len(g.sessions) >= g.maxSessions {
		g.logger.Warning(fmt.Sprintf("rejected generation request: %d sessions live", len(g.sessions)))
		return i.SessionInfo{}, ErrTooManySessions
	}

	id := uuid.New()
	for {
		if _, ok := g.sessions[id]; !ok {
			break
		}
		id = uuid.New()
	}

	info := i.SessionInfo{ID: id, Rows: rows, Cols: cols, Seed: s}
	g.sessions[id] = &session{
		info:      info,
		generator: maze.NewGenerator(grid, rand.New(rand.NewSource(s))),
		lastUsed:  g.now(),
	}

	g.logger.Info(fmt.Sprintf("started generation %s: %dx%d seed=%d", id, rows, cols, s))
	return info, nil
}

func (g *GenerationSessionManager) session(id uuid.UUID) (*session, error) {
	g.RLock()
	defer g.RUnlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Step implements i.GenerationSessionManager.
func (g *GenerationSessionManager) Step(id uuid.UUID) (maze.StepResult, error) {
	s, err := g.session(id)
	if err != nil {
		return maze.StepResult{}, err
	}

	s.Lock()
	defer s.Unlock()
	s.lastUsed = g.now()

	wasDone := s.generator.Done()
	res, err := s.generator.Step()
	if err != nil {
		g.logger.Error(fmt.Sprintf("generation %s halted: %s", id, err))
		return maze.StepResult{}, err
	}

	if res.Done && !wasDone {
		g.logger.Info(fmt.Sprintf("generation %s complete after %d steps", id, res.StepIndex))
	}
	return res, nil
}

// Run implements i.GenerationSessionManager.
func (g *GenerationSessionManager) Run(id uuid.UUID) (maze.StepResult, int, error) {
	s, err := g.session(id)
	if err != nil {
		return maze.StepResult{}, 0, err
	}

	s.Lock()
	defer s.Unlock()
	s.lastUsed = g.now()

	if s.generator.Done() {
		res, err := s.generator.Step()
		return res, 0, err
	}

	steps := 0
	res, err := s.generator.RunToCompletion(func(maze.StepResult) {
		steps++
	})
	if err != nil {
		g.logger.Error(fmt.Sprintf("generation %s halted: %s", id, err))
		return maze.StepResult{}, steps, err
	}

	g.logger.Info(fmt.Sprintf("generation %s complete after %d steps", id, res.StepIndex))
	return res, steps, nil
}

// Snapshot implements i.GenerationSessionManager.
func (g *GenerationSessionManager) Snapshot(id uuid.UUID) (i.SessionSnapshot, error) {
	s, err := g.session(id)
	if err != nil {
		return i.SessionSnapshot{}, err
	}

	s.Lock()
	defer s.Unlock()
	s.lastUsed = g.now()

	return i.SessionSnapshot{
		ID:       s.info.ID,
		Seed:     s.info.Seed,
		Snapshot: s.generator.Snapshot(),
	}, nil
}

// Delete implements i.GenerationSessionManager.
func (g *GenerationSessionManager) Delete(id uuid.UUID) error {
	g.Lock()
	defer g.Unlock()
	if _, ok := g.sessions[id]; !ok {
		return ErrSessionNotFound
	}

	delete(g.sessions, id)
	g.logger.Info(fmt.Sprintf("deleted generation %s", id))
	return nil
}

// Count returns the number of live sessions.
func (g *GenerationSessionManager) Count() int {
	g.RLock()
	defer g.RUnlock()
	return len(g.sessions)
}

// TTL returns the idle time after which sessions expire.
func (g *GenerationSessionManager) TTL() time.Duration {
	return g.ttl
}

// Sweep drops every session idle for longer than the TTL at now and returns how many
// were dropped.
func (g *GenerationSessionManager) Sweep(now time.Time) int {
	g.Lock()
	defer g.Unlock()

	dropped := 0
	for id, s := range g.sessions {
		s.Lock()
		idle := now.Sub(s.lastUsed)
		s.Unlock()

		if idle > g.ttl {
			delete(g.sessions, id)
			dropped++
			g.logger.Info(fmt.Sprintf("expired generation %s after %s idle", id, idle.Round(time.Second)))
		}
	}
	return dropped
}

// StartJanitor sweeps expired sessions every interval until ctx is done.
// A non-positive interval means one minute.
func (g *GenerationSessionManager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	ticker := channerics.NewTicker(ctx.Done(), interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker:
				g.Sweep(g.now())
			}
		}
	}()
}

// StopAll drops every session.
func (g *GenerationSessionManager) StopAll() {
	g.Lock()
	defer g.Unlock()

	for id := range g.sessions {
		delete(g.sessions, id)
	}
	g.logger.Info("dropped all generation sessions")
}
