package identity

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubTokenizer struct{}

func (stubTokenizer) Generate(map[string]interface{}, time.Duration) (string, error) {
	return "", nil
}

func (stubTokenizer) Decode(token string) (map[string]interface{}, error) {
	if token == "good" {
		return map[string]interface{}{"sessionID": "abc"}, nil
	}
	return nil, errors.New("invalid token")
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/things/:ID", Authoriz(stubTokenizer{}), RequireClaim("sessionID", "ID"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthoriz(t *testing.T) {
	r := newEngine()

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/things/abc", "", http.StatusUnauthorized},
		{"malformed header", "/things/abc", "Token good", http.StatusUnauthorized},
		{"empty bearer", "/things/abc", "Bearer ", http.StatusUnauthorized},
		{"bad token", "/things/abc", "Bearer bad", http.StatusUnauthorized},
		{"good token", "/things/abc", "Bearer good", http.StatusOK},
		{"case insensitive scheme", "/things/abc", "bearer good", http.StatusOK},
		{"token in query", "/things/abc?token=good", "", http.StatusOK},
		{"token for another resource", "/things/xyz", "Bearer good", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
