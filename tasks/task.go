/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package tasks tracks asynchronous risk computations for a user and a health
// condition, from queued through running to done or error.
package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task is one tracked risk computation.
type Task struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ConditionID string    `json:"condition_id"`
	Status      Status    `json:"status"`
	Result      Result    `json:"result"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists tasks. Implementations must make Create and Transition
// atomic: Create fails with ErrActiveTaskExists while the pair has a queued or
// running task, and Transition only applies when the stored status equals from.
type Store interface {
	// Create inserts a queued task with the given result.
	Create(ctx context.Context, userID uuid.UUID, conditionID string, result Result) (*Task, error)
	// Get returns the task with id or ErrTaskNotFound.
	Get(ctx context.Context, id int64) (*Task, error)
	// FindActive returns the newest queued or running task for the pair, or
	// ErrTaskNotFound.
	FindActive(ctx context.Context, userID uuid.UUID, conditionID string) (*Task, error)
	// Transition moves the task from one status to the next. A nil result
	// leaves the stored result unchanged.
	Transition(ctx context.Context, id int64, from, to Status, result Result, errMsg string) (*Task, error)
	// FailRunning moves running tasks last updated before the cutoff to error
	// with errMsg and returns how many tasks it moved.
	FailRunning(ctx context.Context, before time.Time, errMsg string) (int64, error)
}

// Progress is reported after a task completes successfully.
type Progress struct {
	TaskID      int64
	UserID      uuid.UUID
	ConditionID string
	RiskScore   float64
	Explanation string
}

// ProgressFunc receives completed risk scores.
type ProgressFunc func(ctx context.Context, p Progress) error

// Scorer turns a prompt into a risk score. It is called once per execution.
type Scorer interface {
	ScoreCondition(ctx context.Context, prompt string) (Scored, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, prompt string) (Scored, error)

// ScoreCondition implements Scorer.
func (f ScorerFunc) ScoreCondition(ctx context.Context, prompt string) (Scored, error) {
	return f(ctx, prompt)
}
