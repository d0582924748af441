package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for duration settings
)

// FallbackJWTSecret is used when JWT_SECRET is unset. Running with it is a
// deployment risk: anyone who reads this source can forge tokens. The server
// logs a warning at startup when the fallback is active.
const FallbackJWTSecret = "fallback-secret-key"

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Database settings are required and missing values
// abort startup; the JWT secret and tuning knobs have defaults.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // secret used to sign tokens; FallbackJWTSecret when unset
	TokenTTL       time.Duration // session token lifetime
	BcryptCost     int           // bcrypt cost for password hashing
	LoginRateLimit int           // max login attempts per IP per window
	LoginRateWin   time.Duration // login rate limit window
}

// Load reads configuration from environment variables and returns a Config.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      getenv("JWT_SECRET", FallbackJWTSecret),
		TokenTTL:       envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		LoginRateLimit: envInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWin:   envDur("LOGIN_RATE_WINDOW", time.Minute),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
