package mazeapi

import (
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/beka-birhanu/vinom-mazegen/api/identity"
	"github.com/beka-birhanu/vinom-mazegen/maze"
	"github.com/beka-birhanu/vinom-mazegen/render"
	"github.com/beka-birhanu/vinom-mazegen/service"
	"github.com/beka-birhanu/vinom-mazegen/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionClaim is the token claim naming the session a token grants access to.
	SessionClaim = "sessionID"

	defaultTokenTTL     = 15 * time.Minute
	defaultStepInterval = 30 * time.Millisecond
	maxCellPixels       = 64
)

var ErrMissingDependency = errors.New("maze controller dependency is missing")

// MazeController manages generation session routes.
type MazeController struct {
	sessions     i.GenerationSessionManager
	tokenizer    i.Tokenizer
	tokenTTL     time.Duration
	stepInterval time.Duration
	logger       i.Logger
}

// Config holds the dependencies of a MazeController.
type Config struct {
	Sessions     i.GenerationSessionManager
	Tokenizer    i.Tokenizer
	TokenTTL     time.Duration // Lifetime of session tokens.
	StepInterval time.Duration // Delay between streamed steps.
	Logger       i.Logger
}

// NewMazeController initializes a MazeController.
func NewMazeController(c *Config) (*MazeController, error) {
	if c == nil || c.Sessions == nil || c.Tokenizer == nil || c.Logger == nil {
		return nil, ErrMissingDependency
	}

	mc := &MazeController{
		sessions:     c.Sessions,
		tokenizer:    c.Tokenizer,
		tokenTTL:     c.TokenTTL,
		stepInterval: c.StepInterval,
		logger:       c.Logger,
	}
	if mc.tokenTTL <= 0 {
		mc.tokenTTL = defaultTokenTTL
	}
	if mc.stepInterval <= 0 {
		mc.stepInterval = defaultStepInterval
	}
	return mc, nil
}

// RegisterPublic registers public routes.
func (mc *MazeController) RegisterPublic(route *gin.RouterGroup) {
	route.POST("/mazes", mc.create)
}

// RegisterProtected registers routes that require a token for the session.
func (mc *MazeController) RegisterProtected(route *gin.RouterGroup) {
	mazes := route.Group("/mazes/:ID")
	mazes.Use(identity.RequireClaim(SessionClaim, "ID"))
	{
		mazes.GET("", mc.snapshot)
		mazes.DELETE("", mc.delete)
		mazes.POST("/step", mc.step)
		mazes.POST("/run", mc.run)
		mazes.GET("/image.png", mc.image)
		mazes.GET("/stream", mc.stream)
	}
}

// create starts a generation session and issues its token.
func (mc *MazeController) create(ctx *gin.Context) {
	var request CreateMazeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := mc.sessions.NewSession(request.Rows, request.Cols, request.Seed)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	token, err := mc.tokenizer.Generate(map[string]interface{}{
		SessionClaim: info.ID.String(),
	}, mc.tokenTTL)
	if err != nil {
		mc.logger.Error(fmt.Sprintf("signing token for generation %s: %s", info.ID, err))
		_ = mc.sessions.Delete(info.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue session token"})
		return
	}

	ctx.JSON(http.StatusCreated, &CreateMazeResponse{
		ID:       info.ID,
		Token:    token,
		Rows:     info.Rows,
		Cols:     info.Cols,
		Seed:     info.Seed,
		MaxSteps: maze.MaxSteps(info.Rows, info.Cols),
	})
}

// step advances the generation by one step.
func (mc *MazeController) step(ctx *gin.Context) {
	id, ok := sessionID(ctx)
	if !ok {
		return
	}

	res, err := mc.sessions.Step(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	snap, err := mc.sessions.Snapshot(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &StepResponse{Step: res, Maze: snap})
}

// run finishes the generation.
func (mc *MazeController) run(ctx *gin.Context) {
	id, ok := sessionID(ctx)
	if !ok {
		return
	}

	res, steps, err := mc.sessions.Run(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	snap, err := mc.sessions.Snapshot(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &RunResponse{Steps: steps, Step: res, Maze: snap})
}

// snapshot returns the session state as JSON, or as ASCII art with ?format=text.
func (mc *MazeController) snapshot(ctx *gin.Context) {
	id, ok := sessionID(ctx)
	if !ok {
		return
	}

	snap, err := mc.sessions.Snapshot(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if ctx.Query("format") == "text" {
		ctx.String(http.StatusOK, snap.String())
		return
	}
	ctx.JSON(http.StatusOK, &snap)
}

// image renders the session as PNG. ?cell sets the cell size in pixels.
func (mc *MazeController) image(ctx *gin.Context) {
	id, ok := sessionID(ctx)
	if !ok {
		return
	}

	cellPixels := 0
	if raw := ctx.Query("cell"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxCellPixels {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cell must be an integer within 1..%d", maxCellPixels)})
			return
		}
		cellPixels = v
	}

	snap, err := mc.sessions.Snapshot(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	pic, err := render.Image(snap.Snapshot, cellPixels)
	if err != nil {
		mc.logger.Error(fmt.Sprintf("rendering generation %s: %s", id, err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not render maze"})
		return
	}

	ctx.Header("Content-Type", "image/png")
	ctx.Status(http.StatusOK)
	if err := png.Encode(ctx.Writer, pic); err != nil {
		mc.logger.Error(fmt.Sprintf("writing image of generation %s: %s", id, err))
	}
}

// delete drops the session.
func (mc *MazeController) delete(ctx *gin.Context) {
	id, ok := sessionID(ctx)
	if !ok {
		return
	}

	if err := mc.sessions.Delete(id); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// sessionID parses the :ID route parameter, answering 400 when it is malformed.
func sessionID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("ID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}

// statusFor maps service and maze errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, maze.ErrInvalidDimension):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
