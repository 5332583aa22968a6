/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/labrisk/catalog"
	"github.com/humaidq/labrisk/db"
)

type observationRequest struct {
	Marker     string   `json:"marker"`
	Value      *float64 `json:"value"`
	UnitSystem string   `json:"unit_system"`
	RecordedAt string   `json:"recorded_at"`
}

// RecordObservation stores a value for the caller. The marker must exist in
// the catalog.
func (s *Service) RecordObservation(c flamego.Context, user UserID) {
	ctx := c.Request().Context()

	var req observationRequest
	if err := decodeBody(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if req.Value == nil {
		writeError(c, errInvalidValue)
		return
	}

	unitSystem := s.defaultUnitSystem()
	if req.UnitSystem != "" {
		parsed, err := catalog.ParseUnitSystem(req.UnitSystem)
		if err != nil {
			writeError(c, err)
			return
		}

		unitSystem = parsed
	}

	var recordedAt time.Time
	if raw := strings.TrimSpace(req.RecordedAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(c, errInvalidRecordedAt)
			return
		}

		recordedAt = parsed
	}

	marker, err := s.Catalog.GetMarker(ctx, strings.TrimSpace(req.Marker))
	if err != nil {
		writeError(c, err)
		return
	}

	record, err := s.Observations.SaveObservation(ctx, user.UUID(), marker.Name, *req.Value, unitSystem, recordedAt)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, record)
}

// LatestObservations returns the caller's newest value per marker.
func (s *Service) LatestObservations(c flamego.Context, user UserID) {
	obs, err := s.Observations.GetLatestObservations(c.Request().Context(), user.UUID())
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]interface{}{"observations": obs})
}

// ListProgress returns the caller's latest completed risk scores.
func (s *Service) ListProgress(c flamego.Context, user UserID) {
	if s.Progress == nil {
		writeJSON(c, http.StatusOK, map[string]interface{}{"progress": []db.ConditionProgress{}})
		return
	}

	progress, err := s.Progress(c.Request().Context(), user.UUID())
	if err != nil {
		writeError(c, err)
		return
	}

	if progress == nil {
		progress = []db.ConditionProgress{}
	}

	writeJSON(c, http.StatusOK, map[string]interface{}{"progress": progress})
}
