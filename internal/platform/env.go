package platform

import (
	"os"
	"strconv"
	"time"

	"github.com/lomber1/notes-web/pkg/editor"
)

// Environment variables read by LoadEnv.
const (
	EnvAdapter      = "NOTES_ADAPTER"
	EnvURI          = "NOTES_URI"
	EnvDebounce     = "NOTES_DEBOUNCE"
	EnvFlushOnClose = "NOTES_FLUSH_ON_CLOSE"
	EnvVersioned    = "NOTES_VERSIONED"
)

// Env is the configuration taken from the process environment.
type Env struct {
	Adapter      string
	URI          string
	Debounce     time.Duration
	FlushOnClose bool
	Versioned    bool
}

// LoadEnv reads the NOTES_* variables. Unset or malformed values fall back to defaults.
func LoadEnv() Env {
	return Env{
		Adapter:      getenv(EnvAdapter, AdapterFS),
		URI:          getenv(EnvURI, ""),
		Debounce:     getenvDuration(EnvDebounce, editor.DefaultDebounce),
		FlushOnClose: getenvBool(EnvFlushOnClose, false),
		Versioned:    getenvBool(EnvVersioned, false),
	}
}

// Options converts the environment into platform options.
func (e Env) Options() []Option {
	opts := []Option{
		WithAdapter(e.Adapter),
		WithDebounce(e.Debounce),
		WithFlushOnClose(e.FlushOnClose),
	}
	if e.Versioned {
		opts = append(opts, WithVersioning(true))
	}
	return opts
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
