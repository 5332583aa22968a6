/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package logging

import (
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Log source tags used in structured logger contexts.
const (
	SourceApp        = "app"
	SourceWeb        = "web"
	SourceWebRequest = "web_request"
	SourceDB         = "db"
	SourceTasks      = "tasks"
	SourceScoring    = "scoring"
	SourceCatalog    = "catalog"
)

var (
	initOnce   sync.Once
	baseLogger *log.Logger
)

// Init configures the base logger and stdlib log output.
func Init() {
	initOnce.Do(func() {
		level, levelErr := parseLevel(os.Getenv("LOG_LEVEL"))

		baseLogger = log.NewWithOptions(os.Stdout, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339Nano,
			Level:           level,
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})

		stdLogger := baseLogger.With("source", SourceApp).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})

		stdlog.SetFlags(0)
		stdlog.SetOutput(stdLogger.Writer())

		if levelErr != nil {
			baseLogger.With("source", SourceApp).Warn("Invalid LOG_LEVEL, using debug", "error", levelErr)
		}
	})
}

// parseLevel parses a LOG_LEVEL value. Empty input selects debug; invalid
// input selects debug and returns the parse error.
func parseLevel(v string) (log.Level, error) {
	if strings.TrimSpace(v) == "" {
		return log.DebugLevel, nil
	}

	lvl, err := log.ParseLevel(strings.TrimSpace(v))
	if err != nil {
		return log.DebugLevel, err
	}

	return lvl, nil
}

// Logger returns a logfmt logger tagged with the provided source.
func Logger(source string) *log.Logger {
	Init()
	return baseLogger.With("source", source)
}

// StdLogger returns a stdlib logger that writes logfmt output with a source.
func StdLogger(source string) *stdlog.Logger {
	Init()
	return baseLogger.With("source", source).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
}
