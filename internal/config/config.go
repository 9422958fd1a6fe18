package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config is the command line configuration, read from the environment and
// an optional .env file.
type Config struct {
	// Env selects the log format; "production" logs JSON
	Env string
	// ViewsDir is the directory views are read from
	ViewsDir string
	// CacheDir is the directory compiled views are written to
	CacheDir string
	// Addr is the listen address of the serve command
	Addr string
	// Precompile compiles every view before serving
	Precompile bool
}

// Load reads the configuration. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:        getenv("BLADE_ENV", "development"),
		ViewsDir:   getenv("BLADE_VIEWS", "views"),
		CacheDir:   getenv("BLADE_CACHE", filepath.Join(os.TempDir(), "blade")),
		Addr:       getenv("BLADE_ADDR", ":8080"),
		Precompile: cast.ToBool(getenv("BLADE_PRECOMPILE", "false")),
	}
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
