// Package config provides configuration helpers for go-facecount commands.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Default server configuration.
const (
	DefaultPort        = "8080"
	DefaultStaticDir   = "./web"
	DefaultLogLevel    = "info"
	DefaultSensitivity = 50.0
)

// Server holds the service settings resolved from the environment.
type Server struct {
	Port        string
	StaticDir   string
	LogLevel    string
	TuningPath  string  // Optional JSON tuning overrides
	Sensitivity float64 // Initial sensitivity for new sessions (0-100)
	Debug       bool
}

// Load reads FACECOUNT_* variables, falling back to defaults.
// PORT is honored as well for hosted environments.
func Load() (Server, error) {
	cfg := Server{
		Port:        getEnv("FACECOUNT_PORT", getEnv("PORT", DefaultPort)),
		StaticDir:   getEnv("FACECOUNT_STATIC_DIR", DefaultStaticDir),
		LogLevel:    getEnv("FACECOUNT_LOG_LEVEL", DefaultLogLevel),
		TuningPath:  getEnv("FACECOUNT_TUNING", ""),
		Sensitivity: DefaultSensitivity,
	}

	if v := os.Getenv("FACECOUNT_SENSITIVITY"); v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FACECOUNT_SENSITIVITY %q: %w", v, err)
		}
		cfg.Sensitivity = s
	}

	if v := os.Getenv("FACECOUNT_DEBUG"); v != "" {
		d, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FACECOUNT_DEBUG %q: %w", v, err)
		}
		cfg.Debug = d
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the resolved settings.
func (s Server) Validate() error {
	if _, err := strconv.Atoi(s.Port); err != nil {
		return fmt.Errorf("port must be numeric, got %q", s.Port)
	}
	if s.Sensitivity < 0 || s.Sensitivity > 100 {
		return fmt.Errorf("sensitivity must be between 0 and 100, got %v", s.Sensitivity)
	}
	return nil
}

// Addr returns the listen address for the configured port.
func (s Server) Addr() string {
	return ":" + s.Port
}

func getEnv(k, d string) string {
	if val, ok := os.LookupEnv(k); ok && val != "" {
		return val
	}
	return d
}
