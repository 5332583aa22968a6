/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labrisk/apperr"
	"github.com/humaidq/labrisk/catalog"
)

var errInvalidObservation = fmt.Errorf("%w: observation value must be finite", apperr.ErrInvalidInput)

// Observations reads patient values from the observations table.
type Observations struct{}

var _ catalog.ObservationSource = Observations{}

// ObservationRecord is one stored patient value.
type ObservationRecord struct {
	ID         int64              `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	MarkerName string             `json:"marker_name"`
	Value      float64            `json:"value"`
	UnitSystem catalog.UnitSystem `json:"unit_system"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// GetLatestObservations returns the newest value per marker for a user.
func (Observations) GetLatestObservations(ctx context.Context, userID uuid.UUID) (catalog.ObservationSet, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT DISTINCT ON (marker_name) marker_name, value, unit_system, recorded_at
		FROM observations
		WHERE user_id = $1
		ORDER BY marker_name, recorded_at DESC, id DESC
	`

	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	set := make(catalog.ObservationSet)

	for rows.Next() {
		var (
			name string
			obs  catalog.Observation
			unit string
		)

		if err := rows.Scan(&name, &obs.Value, &unit, &obs.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		obs.UnitSystem = catalog.NormalizeUnitSystem(unit)
		set[name] = obs
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return set, nil
}

// SaveObservation records a value for a user. A zero recordedAt uses the
// current time.
func (Observations) SaveObservation(ctx context.Context, userID uuid.UUID, markerName string, value float64, unitSystem catalog.UnitSystem, recordedAt time.Time) (*ObservationRecord, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	markerName = strings.TrimSpace(markerName)
	if markerName == "" {
		return nil, catalog.ErrEmptyMarkerName
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, errInvalidObservation
	}

	if unitSystem == "" {
		unitSystem = catalog.Conventional
	}

	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	record := ObservationRecord{
		UserID:     userID,
		MarkerName: markerName,
		Value:      value,
		UnitSystem: unitSystem,
	}

	query := `
		INSERT INTO observations (user_id, marker_name, value, unit_system, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, recorded_at
	`

	err := pool.QueryRow(ctx, query, userID, markerName, value, string(unitSystem), recordedAt).
		Scan(&record.ID, &record.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save observation: %w", err)
	}

	logger.Debug("Saved observation", "user_id", userID, "marker", markerName, "unit_system", unitSystem)

	return &record, nil
}

// ListObservations returns a user's values for one marker, newest first.
func (Observations) ListObservations(ctx context.Context, userID uuid.UUID, markerName string) ([]ObservationRecord, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, user_id, marker_name, value, unit_system, recorded_at
		FROM observations
		WHERE user_id = $1 AND marker_name = $2
		ORDER BY recorded_at DESC, id DESC
	`

	rows, err := pool.Query(ctx, query, userID, markerName)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	var records []ObservationRecord

	for rows.Next() {
		var (
			r    ObservationRecord
			unit string
		)

		if err := rows.Scan(&r.ID, &r.UserID, &r.MarkerName, &r.Value, &unit, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		r.UnitSystem = catalog.NormalizeUnitSystem(unit)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return records, nil
}
