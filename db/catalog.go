/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/humaidq/labrisk/catalog"
)

const markerColumns = `
	m.name, m.display_name, m.background, m.discussion,
	m.standard_min_conventional, m.standard_max_conventional,
	m.standard_min_international, m.standard_max_international,
	m.optimal_min_conventional, m.optimal_max_conventional,
	m.optimal_min_international, m.optimal_max_international,
	m.conventional_unit, m.international_unit,
	m.low_clinical_implications, m.low_other_conditions, m.low_interfering_factors, m.low_drug_causes,
	m.high_clinical_implications, m.high_other_conditions, m.high_interfering_factors, m.high_drug_causes,
	m.drug_tests`

// Catalog serves markers and conditions from the catalog tables.
type Catalog struct{}

var _ catalog.Catalog = Catalog{}

func markerScanTargets(m *catalog.Marker) []any {
	return []any{
		&m.Name, &m.DisplayName, &m.Background, &m.Discussion,
		&m.Standard.Conventional.Min, &m.Standard.Conventional.Max,
		&m.Standard.International.Min, &m.Standard.International.Max,
		&m.Optimal.Conventional.Min, &m.Optimal.Conventional.Max,
		&m.Optimal.International.Min, &m.Optimal.International.Max,
		&m.ConventionalUnit, &m.InternationalUnit,
		&m.Low.ClinicalImplications, &m.Low.OtherConditions, &m.Low.InterferingFactors, &m.Low.DrugCauses,
		&m.High.ClinicalImplications, &m.High.OtherConditions, &m.High.InterferingFactors, &m.High.DrugCauses,
		&m.DrugTests,
	}
}

// GetMarker returns the named marker.
func (Catalog) GetMarker(ctx context.Context, name string) (*catalog.Marker, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var marker catalog.Marker

	query := `SELECT ` + markerColumns + ` FROM markers m WHERE m.name = $1`

	err := pool.QueryRow(ctx, query, name).Scan(markerScanTargets(&marker)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", catalog.ErrMarkerNotFound, name)
		}

		return nil, fmt.Errorf("failed to get marker: %w", err)
	}

	return &marker, nil
}

// ListMarkers returns every marker ordered by name.
func (Catalog) ListMarkers(ctx context.Context) ([]catalog.Marker, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `SELECT `+markerColumns+` FROM markers m ORDER BY m.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list markers: %w", err)
	}
	defer rows.Close()

	var markers []catalog.Marker

	for rows.Next() {
		var marker catalog.Marker
		if err := rows.Scan(markerScanTargets(&marker)...); err != nil {
			return nil, fmt.Errorf("failed to scan marker: %w", err)
		}

		markers = append(markers, marker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating markers: %w", err)
	}

	return markers, nil
}

// GetCondition returns a condition with its associated markers in catalog order.
func (c Catalog) GetCondition(ctx context.Context, conditionID string) (*catalog.HealthCondition, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var cond catalog.HealthCondition

	query := `
		SELECT condition_id, display_name, background, signs_and_symptoms, expert_comment
		FROM health_conditions
		WHERE condition_id = $1
	`

	err := pool.QueryRow(ctx, query, conditionID).Scan(
		&cond.ConditionID, &cond.DisplayName, &cond.Background,
		&cond.SignsAndSymptoms, &cond.ExpertComment,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", catalog.ErrConditionNotFound, conditionID)
		}

		return nil, fmt.Errorf("failed to get condition: %w", err)
	}

	byCondition := map[string]*catalog.HealthCondition{cond.ConditionID: &cond}
	if err := loadConditionMarkers(ctx, byCondition, &conditionID); err != nil {
		return nil, err
	}

	return &cond, nil
}

// ListConditions returns every condition ordered by id.
func (Catalog) ListConditions(ctx context.Context) ([]catalog.HealthCondition, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT condition_id, display_name, background, signs_and_symptoms, expert_comment
		FROM health_conditions
		ORDER BY condition_id
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	defer rows.Close()

	var conditions []catalog.HealthCondition

	for rows.Next() {
		var cond catalog.HealthCondition
		if err := rows.Scan(
			&cond.ConditionID, &cond.DisplayName, &cond.Background,
			&cond.SignsAndSymptoms, &cond.ExpertComment,
		); err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}

		conditions = append(conditions, cond)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conditions: %w", err)
	}

	byCondition := make(map[string]*catalog.HealthCondition, len(conditions))
	for i := range conditions {
		byCondition[conditions[i].ConditionID] = &conditions[i]
	}

	if err := loadConditionMarkers(ctx, byCondition, nil); err != nil {
		return nil, err
	}

	return conditions, nil
}

// loadConditionMarkers fills AssociatedLow and AssociatedHigh. A nil
// conditionID loads links for every condition.
func loadConditionMarkers(ctx context.Context, byCondition map[string]*catalog.HealthCondition, conditionID *string) error {
	query := `
		SELECT cm.condition_id, cm.direction, ` + markerColumns + `
		FROM condition_markers cm
		JOIN markers m ON m.name = cm.marker_name
		WHERE $1::text IS NULL OR cm.condition_id = $1
		ORDER BY cm.condition_id, cm.direction, cm.position
	`

	rows, err := pool.Query(ctx, query, conditionID)
	if err != nil {
		return fmt.Errorf("failed to load condition markers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id        string
			direction string
			marker    catalog.Marker
		)

		targets := append([]any{&id, &direction}, markerScanTargets(&marker)...)
		if err := rows.Scan(targets...); err != nil {
			return fmt.Errorf("failed to scan condition marker: %w", err)
		}

		cond, ok := byCondition[id]
		if !ok {
			continue
		}

		if catalog.Direction(direction) == catalog.DirectionLow {
			cond.AssociatedLow = append(cond.AssociatedLow, marker)
		} else {
			cond.AssociatedHigh = append(cond.AssociatedHigh, marker)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating condition markers: %w", err)
	}

	return nil
}

// CountMarkers returns the number of stored markers.
func CountMarkers(ctx context.Context) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM markers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count markers: %w", err)
	}

	return count, nil
}

// SyncCatalog upserts markers and conditions in one transaction. Condition
// marker links are replaced for every condition given.
func SyncCatalog(ctx context.Context, markers []catalog.Marker, conditions []catalog.HealthCondition) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	// NewMemory rejects invalid ranges and duplicate names before anything is written.
	if _, err := catalog.NewMemory(markers, conditions); err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to rollback catalog sync", "error", err)
		}
	}()

	for i := range markers {
		if err := upsertMarker(ctx, tx, &markers[i]); err != nil {
			return err
		}
	}

	for i := range conditions {
		if err := upsertCondition(ctx, tx, &conditions[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog sync: %w", err)
	}

	logger.Info("Synced catalog", "markers", len(markers), "conditions", len(conditions))

	return nil
}

func upsertMarker(ctx context.Context, tx pgx.Tx, m *catalog.Marker) error {
	query := `
		INSERT INTO markers (
			name, display_name, background, discussion,
			standard_min_conventional, standard_max_conventional,
			standard_min_international, standard_max_international,
			optimal_min_conventional, optimal_max_conventional,
			optimal_min_international, optimal_max_international,
			conventional_unit, international_unit,
			low_clinical_implications, low_other_conditions, low_interfering_factors, low_drug_causes,
			high_clinical_implications, high_other_conditions, high_interfering_factors, high_drug_causes,
			drug_tests
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (name)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			background = EXCLUDED.background,
			discussion = EXCLUDED.discussion,
			standard_min_conventional = EXCLUDED.standard_min_conventional,
			standard_max_conventional = EXCLUDED.standard_max_conventional,
			standard_min_international = EXCLUDED.standard_min_international,
			standard_max_international = EXCLUDED.standard_max_international,
			optimal_min_conventional = EXCLUDED.optimal_min_conventional,
			optimal_max_conventional = EXCLUDED.optimal_max_conventional,
			optimal_min_international = EXCLUDED.optimal_min_international,
			optimal_max_international = EXCLUDED.optimal_max_international,
			conventional_unit = EXCLUDED.conventional_unit,
			international_unit = EXCLUDED.international_unit,
			low_clinical_implications = EXCLUDED.low_clinical_implications,
			low_other_conditions = EXCLUDED.low_other_conditions,
			low_interfering_factors = EXCLUDED.low_interfering_factors,
			low_drug_causes = EXCLUDED.low_drug_causes,
			high_clinical_implications = EXCLUDED.high_clinical_implications,
			high_other_conditions = EXCLUDED.high_other_conditions,
			high_interfering_factors = EXCLUDED.high_interfering_factors,
			high_drug_causes = EXCLUDED.high_drug_causes,
			drug_tests = EXCLUDED.drug_tests,
			updated_at = now()
	`

	_, err := tx.Exec(ctx, query,
		m.Name, m.Label(), m.Background, m.Discussion,
		m.Standard.Conventional.Min, m.Standard.Conventional.Max,
		m.Standard.International.Min, m.Standard.International.Max,
		m.Optimal.Conventional.Min, m.Optimal.Conventional.Max,
		m.Optimal.International.Min, m.Optimal.International.Max,
		m.ConventionalUnit, m.InternationalUnit,
		m.Low.ClinicalImplications, m.Low.OtherConditions, m.Low.InterferingFactors, m.Low.DrugCauses,
		m.High.ClinicalImplications, m.High.OtherConditions, m.High.InterferingFactors, m.High.DrugCauses,
		m.DrugTests,
	)
	if err != nil {
		return fmt.Errorf("failed to sync marker %s: %w", m.Name, err)
	}

	return nil
}

func upsertCondition(ctx context.Context, tx pgx.Tx, c *catalog.HealthCondition) error {
	symptoms := c.SignsAndSymptoms
	if symptoms == nil {
		symptoms = []string{}
	}

	query := `
		INSERT INTO health_conditions (condition_id, display_name, background, signs_and_symptoms, expert_comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (condition_id)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			background = EXCLUDED.background,
			signs_and_symptoms = EXCLUDED.signs_and_symptoms,
			expert_comment = EXCLUDED.expert_comment,
			updated_at = now()
	`

	if _, err := tx.Exec(ctx, query, c.ConditionID, c.Label(), c.Background, symptoms, c.ExpertComment); err != nil {
		return fmt.Errorf("failed to sync condition %s: %w", c.ConditionID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM condition_markers WHERE condition_id = $1`, c.ConditionID); err != nil {
		return fmt.Errorf("failed to clear markers for %s: %w", c.ConditionID, err)
	}

	links := []struct {
		direction catalog.Direction
		markers   []catalog.Marker
	}{
		{catalog.DirectionLow, c.AssociatedLow},
		{catalog.DirectionHigh, c.AssociatedHigh},
	}

	for _, link := range links {
		for position, marker := range link.markers {
			// The referenced marker may not be part of this sync.
			if err := upsertMarker(ctx, tx, &marker); err != nil {
				return err
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO condition_markers (condition_id, marker_name, direction, position)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT DO NOTHING
			`, c.ConditionID, marker.Name, string(link.direction), position)
			if err != nil {
				return fmt.Errorf("failed to link %s to %s: %w", marker.Name, c.ConditionID, err)
			}
		}
	}

	return nil
}
