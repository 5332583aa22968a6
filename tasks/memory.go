/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*Task
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[int64]*Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, userID uuid.UUID, conditionID string, result Result) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeLocked(userID, conditionID) != nil {
		return nil, ErrActiveTaskExists
	}

	s.nextID++
	now := s.now()
	task := &Task{
		ID:          s.nextID,
		UserID:      userID,
		ConditionID: conditionID,
		Status:      StatusQueued,
		Result:      result,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[task.ID] = task

	out := *task

	return &out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id int64) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	out := *task

	return &out, nil
}

// FindActive implements Store.
func (s *MemoryStore) FindActive(_ context.Context, userID uuid.UUID, conditionID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.activeLocked(userID, conditionID)
	if task == nil {
		return nil, ErrTaskNotFound
	}

	out := *task

	return &out, nil
}

// Transition implements Store.
func (s *MemoryStore) Transition(_ context.Context, id int64, from, to Status, result Result, errMsg string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	if task.Status != from || !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: task %d is %s, want %s -> %s", ErrInvalidTransition, id, task.Status, from, to)
	}

	task.Status = to
	task.Error = errMsg
	task.UpdatedAt = s.now()

	if result != nil {
		task.Result = result
	}

	out := *task

	return &out, nil
}

// FailRunning implements Store.
func (s *MemoryStore) FailRunning(_ context.Context, before time.Time, errMsg string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64

	for _, task := range s.tasks {
		if task.Status != StatusRunning || !task.UpdatedAt.Before(before) {
			continue
		}

		task.Status = StatusError
		task.Error = errMsg
		task.UpdatedAt = s.now()
		n++
	}

	return n, nil
}

func (s *MemoryStore) activeLocked(userID uuid.UUID, conditionID string) *Task {
	var newest *Task

	for _, task := range s.tasks {
		if task.UserID != userID || task.ConditionID != conditionID || !task.Status.Active() {
			continue
		}

		if newest == nil || task.ID > newest.ID {
			newest = task
		}
	}

	return newest
}
