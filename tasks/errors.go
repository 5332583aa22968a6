/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package tasks

import (
	"errors"
	"fmt"

	"github.com/humaidq/labrisk/apperr"
)

var (
	// ErrTaskNotFound is returned for unknown task ids and tasks owned by another user.
	ErrTaskNotFound = fmt.Errorf("task %w", apperr.ErrNotFound)
	// ErrActiveTaskExists is returned by Store.Create when the pair already has a
	// queued or running task.
	ErrActiveTaskExists = errors.New("an active task already exists for this condition")
	// ErrInvalidTransition is returned when a task is not in the expected status.
	ErrInvalidTransition = errors.New("invalid task status transition")

	ErrEmptyConditionID = fmt.Errorf("%w: condition id is required", apperr.ErrInvalidInput)
	ErrInvalidUserID    = fmt.Errorf("%w: user id is required", apperr.ErrInvalidInput)
	ErrNilTask          = fmt.Errorf("%w: task is required", apperr.ErrInvalidInput)
	ErrInvalidStatus    = fmt.Errorf("%w: unknown task status", apperr.ErrInvalidInput)

	ErrScoringFailed = fmt.Errorf("%w: risk scoring failed", apperr.ErrUpstreamFailure)
	ErrInvalidScore  = fmt.Errorf("%w: invalid risk score", apperr.ErrUpstreamFailure)

	errUnknownResultKind = errors.New("unknown task result kind")
	errExecutionPanic    = errors.New("task execution panicked")
	errRecordResult      = errors.New("failed to record result")
	errInterrupted       = errors.New("task interrupted before completion")
)
