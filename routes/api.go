/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labrisk/apperr"
	"github.com/humaidq/labrisk/catalog"
	"github.com/humaidq/labrisk/db"
	"github.com/humaidq/labrisk/matcher"
	"github.com/humaidq/labrisk/tasks"
)

// ObservationStore reads and records patient values.
type ObservationStore interface {
	catalog.ObservationSource
	SaveObservation(ctx context.Context, userID uuid.UUID, markerName string, value float64, unitSystem catalog.UnitSystem, recordedAt time.Time) (*db.ObservationRecord, error)
}

// Suggester proposes candidate conditions for a marker analysis.
type Suggester interface {
	SuggestConditions(ctx context.Context, analysis string, conditionIDs []string) ([]matcher.Candidate, error)
}

// ProgressLister returns a user's latest completed risk scores.
type ProgressLister func(ctx context.Context, userID uuid.UUID) ([]db.ConditionProgress, error)

// Service holds the dependencies of the JSON API.
type Service struct {
	Catalog           catalog.Catalog
	Observations      ObservationStore
	Tasks             *tasks.Manager
	Matcher           *matcher.Matcher
	Suggester         Suggester
	Progress          ProgressLister
	Ping              func(ctx context.Context) error
	DefaultUnitSystem catalog.UnitSystem
}

// Mount registers the API routes on f.
func (s *Service) Mount(f *flamego.Flame) {
	f.Get("/healthz", s.Health)
	f.Get("/metrics", s.Metrics)

	f.Group("/api", func() {
		f.Get("/markers", s.ListMarkers)
		f.Get("/markers/{name}/resolve", s.ResolveMarker)
		f.Get("/conditions", s.ListConditions)
		f.Get("/conditions/{id}", s.GetCondition)
		f.Post("/conditions/match", s.MatchConditions)

		f.Group("", func() {
			f.Get("/conditions/{id}/context", s.ConditionContext)
			f.Post("/conditions/{id}/review", s.ReviewCondition)
			f.Get("/tasks/{id}", s.TaskStatus)
			f.Post("/suggestions", s.SuggestConditions)
			f.Post("/observations", s.RecordObservation)
			f.Get("/observations/latest", s.LatestObservations)
			f.Get("/progress", s.ListProgress)
		}, RequireUser)
	}, NoCacheHeaders())
}

func (s *Service) defaultUnitSystem() catalog.UnitSystem {
	if s.DefaultUnitSystem == "" {
		return catalog.Conventional
	}

	return s.DefaultUnitSystem
}

// unitSystemParam reads the unit_system query parameter, falling back to the
// service default when it is absent.
func (s *Service) unitSystemParam(c flamego.Context) (catalog.UnitSystem, error) {
	raw := c.Query("unit_system")
	if raw == "" {
		return s.defaultUnitSystem(), nil
	}

	return catalog.ParseUnitSystem(raw)
}

func writeJSON(c flamego.Context, status int, v interface{}) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "path", c.Request().URL.Path, "error", err)
	}
}

func writeError(c flamego.Context, err error) {
	status := apperr.HTTPStatus(err)
	logRequestError(c, status, err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	writeJSON(c, status, map[string]string{
		"error": message,
		"kind":  apperr.Kind(err),
	})
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// untouched.
func decodeBody(c flamego.Context, v interface{}) error {
	dec := json.NewDecoder(c.Request().Body().ReadCloser())
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return errInvalidRequestBody
	}

	return nil
}
