/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/labrisk/tasks"
)

const taskColumns = `id, user_id, condition_id, status, result, error, created_at, updated_at`

// TaskStore persists risk tasks in the risk_tasks table. A partial unique
// index keeps at most one queued or running task per user and condition.
type TaskStore struct{}

var _ tasks.Store = TaskStore{}

func scanTask(row pgx.Row) (*tasks.Task, error) {
	var (
		task   tasks.Task
		status string
		result []byte
		errMsg *string
	)

	err := row.Scan(&task.ID, &task.UserID, &task.ConditionID, &status, &result, &errMsg, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	task.Status, err = tasks.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	task.Result, err = tasks.UnmarshalResult(result)
	if err != nil {
		return nil, err
	}

	if errMsg != nil {
		task.Error = *errMsg
	}

	return &task, nil
}

// Create implements tasks.Store.
func (TaskStore) Create(ctx context.Context, userID uuid.UUID, conditionID string, result tasks.Result) (*tasks.Task, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	encoded, err := tasks.MarshalResult(result)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO risk_tasks (user_id, condition_id, status, result)
		VALUES ($1, $2, 'queued', $3)
		ON CONFLICT (user_id, condition_id) WHERE status IN ('queued', 'running')
		DO NOTHING
		RETURNING ` + taskColumns

	task, err := scanTask(pool.QueryRow(ctx, query, userID, conditionID, encoded))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tasks.ErrActiveTaskExists
		}

		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// Get implements tasks.Store.
func (TaskStore) Get(ctx context.Context, id int64) (*tasks.Task, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	task, err := scanTask(pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM risk_tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tasks.ErrTaskNotFound
		}

		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// FindActive implements tasks.Store.
func (TaskStore) FindActive(ctx context.Context, userID uuid.UUID, conditionID string) (*tasks.Task, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT ` + taskColumns + `
		FROM risk_tasks
		WHERE user_id = $1 AND condition_id = $2 AND status IN ('queued', 'running')
		ORDER BY id DESC
		LIMIT 1
	`

	task, err := scanTask(pool.QueryRow(ctx, query, userID, conditionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tasks.ErrTaskNotFound
		}

		return nil, fmt.Errorf("failed to find active task: %w", err)
	}

	return task, nil
}

// Transition implements tasks.Store as a compare-and-set on status.
func (s TaskStore) Transition(ctx context.Context, id int64, from, to tasks.Status, result tasks.Result, errMsg string) (*tasks.Task, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", tasks.ErrInvalidTransition, from, to)
	}

	encoded, err := tasks.MarshalResult(result)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE risk_tasks
		SET status = $3,
			result = COALESCE($4::jsonb, result),
			error = NULLIF($5, ''),
			updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + taskColumns

	task, err := scanTask(pool.QueryRow(ctx, query, id, string(from), string(to), encoded, errMsg))
	if err == nil {
		return task, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition task: %w", err)
	}

	current, getErr := s.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}

	return nil, fmt.Errorf("%w: task %d is %s, want %s -> %s", tasks.ErrInvalidTransition, id, current.Status, from, to)
}

// FailRunning implements tasks.Store.
func (TaskStore) FailRunning(ctx context.Context, before time.Time, errMsg string) (int64, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	tag, err := pool.Exec(ctx, `
		UPDATE risk_tasks
		SET status = 'error', error = $2, updated_at = now()
		WHERE status = 'running' AND updated_at < $1
	`, before, errMsg)
	if err != nil {
		return 0, fmt.Errorf("failed to fail running tasks: %w", err)
	}

	return tag.RowsAffected(), nil
}
