package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/vinom-mazegen/api"
	api_i "github.com/beka-birhanu/vinom-mazegen/api/i"
	"github.com/beka-birhanu/vinom-mazegen/api/identity"
	"github.com/beka-birhanu/vinom-mazegen/api/mazeapi"
	"github.com/beka-birhanu/vinom-mazegen/config"
	logger "github.com/beka-birhanu/vinom-mazegen/infrastruture/log"
	"github.com/beka-birhanu/vinom-mazegen/infrastruture/token"
	"github.com/beka-birhanu/vinom-mazegen/service"
	"github.com/beka-birhanu/vinom-mazegen/service/i"
	"github.com/gin-gonic/gin"
)

// Global variables for dependencies
var (
	appLogger         *logger.Logger
	sessionManager    *service.GenerationSessionManager
	jwtTokenizer      i.Tokenizer
	mazeController    api_i.Controller
	router            *api.Router
	janitorInterval   = time.Minute
	sessionTTL        = time.Duration(config.Envs.SessionTTLSeconds) * time.Second
	streamingInterval = time.Duration(config.Envs.StepIntervalMS) * time.Millisecond
)

func newLogger(prefix, color string) *logger.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Creating %s logger: %v\n", prefix, err)
		os.Exit(1)
	}
	if err := l.SetLevel(config.Envs.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Setting %s log level: %v\n", prefix, err)
		os.Exit(1)
	}
	return l
}

func initSessionManager(ctx context.Context) {
	var err error
	sessionManager, err = service.NewGenerationSessionManager(&service.Config{
		MaxDimension: config.Envs.MaxMazeDimension,
		MaxSessions:  config.Envs.MaxSessions,
		SessionTTL:   sessionTTL,
		Logger:       newLogger("SESSION-MANAGER", config.ColorCyan),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating session manager: %v", err))
		os.Exit(1)
	}

	sessionManager.StartJanitor(ctx, janitorInterval)
	appLogger.Info("Session manager initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initMazeController() {
	var err error
	mazeController, err = mazeapi.NewMazeController(&mazeapi.Config{
		Sessions:     sessionManager,
		Tokenizer:    jwtTokenizer,
		TokenTTL:     sessionTTL,
		StepInterval: streamingInterval,
		Logger:       newLogger("MAZE-API", config.ColorPurple),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating maze controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Maze controller initialized")
}

func initRouter(t i.Tokenizer) {
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:                 "/api",
		Controllers:             []api_i.Controller{mazeController},
		AuthorizationMiddleware: identity.Authoriz(t),
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(config.Envs.GinMode)

	// Initialize dependencies
	appLogger = newLogger("APP", config.ColorGreen)

	initSessionManager(ctx)
	defer sessionManager.StopAll()

	initJWTTokenizer()
	initMazeController()
	initRouter(jwtTokenizer)

	appLogger.Info(fmt.Sprintf("Listening on %s:%d", config.Envs.HostIP, config.Envs.RESTPort))
	if err := router.Run(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Running server: %v", err))
		sessionManager.StopAll()
		os.Exit(1)
	}
	appLogger.Info("Server stopped")
}
