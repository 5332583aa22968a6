/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package scoring

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds one scoring request.
const DefaultTimeout = 120 * time.Second

// Config holds the Ollama server configuration.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// ConfigFromEnv loads the configuration from OLLAMA_URL, OLLAMA_MODEL and the
// optional SCORING_TIMEOUT.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		URL:     strings.TrimSpace(os.Getenv("OLLAMA_URL")),
		Model:   strings.TrimSpace(os.Getenv("OLLAMA_MODEL")),
		Timeout: DefaultTimeout,
	}

	if v := strings.TrimSpace(os.Getenv("SCORING_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeout, v)
		}

		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the server URL and model are set.
func (c *Config) Validate() error {
	if c.URL == "" || c.Model == "" {
		return ErrIncompleteConfig
	}

	return nil
}
