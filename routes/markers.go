/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"math"
	"net/http"
	"strings"

	"github.com/flamego/flamego"

	"github.com/humaidq/labrisk/ranges"
	"github.com/humaidq/labrisk/utils"
)

// ListMarkers returns every catalog marker.
func (s *Service) ListMarkers(c flamego.Context) {
	markers, err := s.Catalog.ListMarkers(c.Request().Context())
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]interface{}{"markers": markers})
}

// ResolveMarker resolves the ranges of one marker, and classifies value when
// one is given.
func (s *Service) ResolveMarker(c flamego.Context) {
	unitSystem, err := s.unitSystemParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var value *float64
	if raw := strings.TrimSpace(c.Query("value")); raw != "" {
		v, err := utils.ParseNumber(raw)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			writeError(c, errInvalidValue)
			return
		}

		value = &v
	}

	marker, err := s.Catalog.GetMarker(c.Request().Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, ranges.Resolve(marker, unitSystem, value))
}
