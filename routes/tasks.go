/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/flamego/flamego"

	"github.com/humaidq/labrisk/tasks"
)

type reviewRequest struct {
	SymptomAnswers []tasks.SymptomAnswer `json:"symptom_answers"`
}

// ReviewCondition starts or reuses a risk task for the caller and condition.
// A task that is still queued is executed; the response is 202 with the task.
func (s *Service) ReviewCondition(c flamego.Context, user UserID) {
	ctx := c.Request().Context()

	var req reviewRequest
	if err := decodeBody(c, &req); err != nil {
		writeError(c, err)
		return
	}

	task, err := s.Tasks.StartOrReuse(ctx, user.UUID(), c.Param("id"), req.SymptomAnswers)
	if err != nil {
		writeError(c, err)
		return
	}

	if task.Status == tasks.StatusQueued {
		running, err := s.Tasks.Execute(ctx, task)

		switch {
		case err == nil:
			task = running
		case errors.Is(err, tasks.ErrInvalidTransition):
			// A concurrent request started it first.
			task, err = s.Tasks.GetStatus(ctx, task.ID, user.UUID())
			if err != nil {
				writeError(c, err)
				return
			}
		default:
			writeError(c, err)
			return
		}
	}

	writeJSON(c, http.StatusAccepted, task)
}

// TaskStatus returns one of the caller's tasks.
func (s *Service) TaskStatus(c flamego.Context, user UserID) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, errInvalidTaskID)
		return
	}

	task, err := s.Tasks.GetStatus(c.Request().Context(), id, user.UUID())
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, task)
}
