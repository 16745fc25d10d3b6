package mazeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-mazegen/api"
	apii "github.com/beka-birhanu/vinom-mazegen/api/i"
	"github.com/beka-birhanu/vinom-mazegen/api/identity"
	logger "github.com/beka-birhanu/vinom-mazegen/infrastruture/log"
	"github.com/beka-birhanu/vinom-mazegen/infrastruture/token"
	"github.com/beka-birhanu/vinom-mazegen/maze"
	"github.com/beka-birhanu/vinom-mazegen/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("TEST", "", io.Discard)
	require.NoError(t, err)

	sessions, err := service.NewGenerationSessionManager(&service.Config{
		MaxDimension: 50,
		MaxSessions:  8,
		SessionTTL:   time.Minute,
		Logger:       log,
	})
	require.NoError(t, err)

	tokenizer := token.NewJwtService("test-secret", "test")
	controller, err := NewMazeController(&Config{
		Sessions:     sessions,
		Tokenizer:    tokenizer,
		StepInterval: time.Millisecond,
		Logger:       log,
	})
	require.NoError(t, err)

	return api.NewRouter(api.Config{
		BaseURL:                 "/api",
		Controllers:             []apii.Controller{controller},
		AuthorizationMiddleware: identity.Authoriz(tokenizer),
	}).Engine()
}

func do(t *testing.T, engine http.Handler, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func createMaze(t *testing.T, engine http.Handler, rows, cols int, seed *int64) CreateMazeResponse {
	t.Helper()
	w := do(t, engine, http.MethodPost, "/api/v1/mazes", "", gin.H{"rows": rows, "cols": cols, "seed": seed})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res CreateMazeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

// snapshotBody mirrors the JSON shape of a session snapshot.
type snapshotBody struct {
	ID           string      `json:"id"`
	Seed         int64       `json:"seed"`
	Rows         int         `json:"rows"`
	Cols         int         `json:"cols"`
	Cells        [][]cellDTO `json:"cells"`
	State        string      `json:"state"`
	Steps        int         `json:"steps"`
	RemovedWalls int         `json:"removed_walls"`
}

type cellDTO struct {
	EastWall  bool `json:"east_wall"`
	SouthWall bool `json:"south_wall"`
	Visited   bool `json:"visited"`
	Goal      bool `json:"goal"`
}

func TestCreate(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("returns the session and its token", func(t *testing.T) {
		seed := int64(7)
		res := createMaze(t, engine, 4, 6, &seed)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, 4, res.Rows)
		assert.Equal(t, 6, res.Cols)
		assert.Equal(t, seed, res.Seed)
		assert.Equal(t, maze.MaxSteps(4, 6), res.MaxSteps)
	})

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing cols", gin.H{"rows": 3}},
		{"zero rows", gin.H{"rows": 0, "cols": 3}},
		{"negative cols", gin.H{"rows": 3, "cols": -2}},
		{"too large", gin.H{"rows": 51, "cols": 3}},
		{"not a number", gin.H{"rows": "ten", "cols": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, engine, http.MethodPost, "/api/v1/mazes", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestProtectedRoutesRequireSessionToken(t *testing.T) {
	engine := newTestEngine(t)
	a := createMaze(t, engine, 3, 3, nil)
	b := createMaze(t, engine, 3, 3, nil)

	w := do(t, engine, http.MethodGet, "/api/v1/mazes/"+a.ID.String(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, engine, http.MethodGet, "/api/v1/mazes/"+a.ID.String(), "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, engine, http.MethodPost, "/api/v1/mazes/"+a.ID.String()+"/step", b.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, engine, http.MethodGet, "/api/v1/mazes/"+a.ID.String(), a.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStepRunSnapshotDelete(t *testing.T) {
	engine := newTestEngine(t)
	seed := int64(3)
	m := createMaze(t, engine, 5, 4, &seed)
	base := "/api/v1/mazes/" + m.ID.String()

	w := do(t, engine, http.MethodPost, base+"/step", m.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var step struct {
		Step maze.StepResult `json:"step"`
		Maze snapshotBody    `json:"maze"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &step))
	assert.Equal(t, maze.EventAdvance, step.Step.Event)
	assert.NotNil(t, step.Step.WallRemoved)
	assert.Equal(t, 1, step.Maze.RemovedWalls)
	assert.Equal(t, "RUNNING", step.Maze.State)

	w = do(t, engine, http.MethodPost, base+"/run", m.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var run struct {
		Steps int             `json:"steps"`
		Step  maze.StepResult `json:"step"`
		Maze  snapshotBody    `json:"maze"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, maze.MaxSteps(5, 4)-1, run.Steps)
	assert.Equal(t, maze.EventComplete, run.Step.Event)
	assert.True(t, run.Step.Done)
	assert.Equal(t, "DONE", run.Maze.State)
	assert.Equal(t, 19, run.Maze.RemovedWalls)
	assert.Equal(t, m.ID.String(), run.Maze.ID)
	assert.Equal(t, seed, run.Maze.Seed)
	require.Len(t, run.Maze.Cells, 5)
	assert.True(t, run.Maze.Cells[4][3].Goal)

	w = do(t, engine, http.MethodPost, base+"/step", m.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"event":"complete"`)

	w = do(t, engine, http.MethodGet, base+"?format=text", m.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "+---+---+---+---+\n"))
	assert.Contains(t, w.Body.String(), " G |")

	w = do(t, engine, http.MethodDelete, base, m.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, engine, http.MethodGet, base, m.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImage(t *testing.T) {
	engine := newTestEngine(t)
	m := createMaze(t, engine, 3, 5, nil)
	base := "/api/v1/mazes/" + m.ID.String()

	w := do(t, engine, http.MethodGet, base+"/image.png?cell=10", m.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	pic, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pic.Bounds().Dx(), 50)

	w = do(t, engine, http.MethodGet, base+"/image.png?cell=0", m.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStream(t *testing.T) {
	engine := newTestEngine(t)
	server := httptest.NewServer(engine)
	defer server.Close()

	m := createMaze(t, engine, 4, 4, nil)
	url := fmt.Sprintf("ws%s/api/v1/mazes/%s/stream?token=%s", strings.TrimPrefix(server.URL, "http"), m.ID, m.Token)

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	var messages []StreamMessage
	for {
		var msg StreamMessage
		err := ws.ReadJSON(&msg)
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		messages = append(messages, msg)
	}

	require.Len(t, messages, maze.MaxSteps(4, 4)+2)
	assert.Equal(t, MessageSnapshot, messages[0].Type)
	assert.Equal(t, maze.Running, messages[0].Maze.State)

	last := messages[len(messages)-1]
	assert.Equal(t, MessageSnapshot, last.Type)
	assert.Equal(t, maze.Done, last.Maze.State)
	assert.Equal(t, 15, last.Maze.RemovedWalls)

	for i, msg := range messages[1 : len(messages)-1] {
		require.Equal(t, MessageStep, msg.Type)
		assert.Equal(t, i+1, msg.Step.StepIndex)
	}
	assert.Equal(t, maze.EventComplete, messages[len(messages)-2].Step.Event)
}

func TestStreamUnknownSession(t *testing.T) {
	engine := newTestEngine(t)
	m := createMaze(t, engine, 2, 2, nil)
	base := "/api/v1/mazes/" + m.ID.String()

	w := do(t, engine, http.MethodDelete, base, m.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, engine, http.MethodGet, base+"/stream", m.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
