/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labrisk/tasks"
)

// ConditionProgress is the latest completed risk score for a condition.
type ConditionProgress struct {
	ConditionID string    `json:"condition_id"`
	RiskScore   float64   `json:"risk_score"`
	Explanation string    `json:"explanation"`
	TaskID      *int64    `json:"task_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecordConditionProgress stores a completed score. It has the
// tasks.ProgressFunc signature.
func RecordConditionProgress(ctx context.Context, p tasks.Progress) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	query := `
		INSERT INTO condition_progress (user_id, condition_id, risk_score, explanation, task_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, condition_id)
		DO UPDATE SET
			risk_score = EXCLUDED.risk_score,
			explanation = EXCLUDED.explanation,
			task_id = EXCLUDED.task_id,
			updated_at = now()
	`

	if _, err := pool.Exec(ctx, query, p.UserID, p.ConditionID, p.RiskScore, p.Explanation, p.TaskID); err != nil {
		return fmt.Errorf("failed to record condition progress: %w", err)
	}

	return nil
}

// ListConditionProgress returns a user's latest scores ordered by condition id.
func ListConditionProgress(ctx context.Context, userID uuid.UUID) ([]ConditionProgress, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT condition_id, risk_score, explanation, task_id, updated_at
		FROM condition_progress
		WHERE user_id = $1
		ORDER BY condition_id
	`

	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list condition progress: %w", err)
	}
	defer rows.Close()

	var progress []ConditionProgress

	for rows.Next() {
		var p ConditionProgress
		if err := rows.Scan(&p.ConditionID, &p.RiskScore, &p.Explanation, &p.TaskID, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan condition progress: %w", err)
		}

		progress = append(progress, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating condition progress: %w", err)
	}

	return progress, nil
}
