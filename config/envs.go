package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP            string // Host IP for the server
	RESTPort          int    // Port for the REST API
	GinMode           string // Mode for the Gin framework (e.g., release, debug, test)
	LogLevel          string // Minimum log level (debug, info, warning, error)
	JWTSecret         string // Secret key for session token signing
	JWTIssuer         string // Issuer claim for session tokens
	MaxMazeDimension  int    // Upper bound for rows and columns
	StepIntervalMS    int    // Delay between streamed generation steps, in milliseconds
	SessionTTLSeconds int    // Idle time after which a generation session is dropped
	MaxSessions       int    // Maximum number of live generation sessions
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	// Populate the Config struct with required environment variables
	return Config{
		HostIP:            getEnvWithDefault("HOST_IP", "0.0.0.0"),
		RESTPort:          getEnvAsIntWithDefault("REST_PORT", 8080),
		GinMode:           getEnvWithDefault("GIN_MODE", "release"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:         mustGetEnv("JWT_SECRET"),
		JWTIssuer:         getEnvWithDefault("JWT_ISSUER", "mazegen"),
		MaxMazeDimension:  getEnvAsIntWithDefault("MAX_MAZE_DIMENSION", 50),
		StepIntervalMS:    getEnvAsIntWithDefault("STEP_INTERVAL_MS", 30),
		SessionTTLSeconds: getEnvAsIntWithDefault("SESSION_TTL_SECONDS", 900),
		MaxSessions:       getEnvAsIntWithDefault("MAX_SESSIONS", 256),
	}
}

// mustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
func mustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		log.Fatalf("[APP] [FATAL] Environment variable %s is not set", key)
	}
	return value
}

// getEnvAsIntWithDefault retrieves the value of an environment variable as an integer,
// falling back to defaultValue when unset. A value that cannot be parsed is fatal.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
