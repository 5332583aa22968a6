/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/flamego"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health reports whether the service can reach its database.
func (s *Service) Health(c flamego.Context) {
	if s.Ping != nil {
		if err := s.Ping(c.Request().Context()); err != nil {
			logger.Error("Health check failed", "error", err)
			writeJSON(c, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics serves the task metrics registry in the Prometheus text format.
func (s *Service) Metrics(c flamego.Context) {
	handler := promhttp.HandlerFor(s.Tasks.Metrics().Registry(), promhttp.HandlerOpts{})
	handler.ServeHTTP(c.ResponseWriter(), c.Request().Request)
}
