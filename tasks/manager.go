/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/humaidq/labrisk/brief"
	"github.com/humaidq/labrisk/catalog"
)

const (
	defaultFinishRetries = 3
	defaultFinishBackoff = 200 * time.Millisecond
)

// Manager owns the task lifecycle. StartOrReuse and GetStatus never wait on
// the scorer; Execute hands the scoring workflow to its own goroutine.
type Manager struct {
	store        Store
	catalog      catalog.Catalog
	observations catalog.ObservationSource
	scorer       Scorer

	progress          ProgressFunc
	metrics           *Metrics
	defaultUnitSystem catalog.UnitSystem

	// Final status writes are retried this many times, backing off
	// exponentially from retryBase.
	retries   uint64
	retryBase time.Duration

	// startMu serialises StartOrReuse within this process; the store's
	// conflict rule covers other processes.
	startMu sync.Mutex
	wg      sync.WaitGroup
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithProgress registers the callback invoked after a task reaches done.
func WithProgress(fn ProgressFunc) ManagerOption {
	return func(m *Manager) {
		m.progress = fn
	}
}

// WithMetrics replaces the default collectors.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithDefaultUnitSystem sets the unit system used for markers without an
// observed unit system.
func WithDefaultUnitSystem(u catalog.UnitSystem) ManagerOption {
	return func(m *Manager) {
		m.defaultUnitSystem = catalog.NormalizeUnitSystem(string(u))
	}
}

// WithFinishRetries sets how often a failed final status write is retried and
// the initial backoff between attempts.
func WithFinishRetries(retries uint64, base time.Duration) ManagerOption {
	return func(m *Manager) {
		m.retries = retries
		if base > 0 {
			m.retryBase = base
		}
	}
}

// NewManager returns a Manager backed by store.
func NewManager(store Store, cat catalog.Catalog, observations catalog.ObservationSource, scorer Scorer, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:             store,
		catalog:           cat,
		observations:      observations,
		scorer:            scorer,
		defaultUnitSystem: catalog.Conventional,
		retries:           defaultFinishRetries,
		retryBase:         defaultFinishBackoff,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.metrics == nil {
		m.metrics = NewMetrics("labrisk")
	}

	return m
}

// Metrics returns the collectors updated by the manager.
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// StartOrReuse returns the queued or running task for the pair, or creates a
// queued one carrying answers. Answers are ignored when a task is reused.
func (m *Manager) StartOrReuse(ctx context.Context, userID uuid.UUID, conditionID string, answers []SymptomAnswer) (*Task, error) {
	conditionID = strings.TrimSpace(conditionID)
	if conditionID == "" {
		return nil, ErrEmptyConditionID
	}

	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	if _, err := m.catalog.GetCondition(ctx, conditionID); err != nil {
		return nil, err
	}

	m.startMu.Lock()
	defer m.startMu.Unlock()

	task, err := m.store.FindActive(ctx, userID, conditionID)
	if err == nil {
		m.metrics.Reused.Inc()
		return task, nil
	}

	if !errors.Is(err, ErrTaskNotFound) {
		return nil, fmt.Errorf("failed to look up active task: %w", err)
	}

	var result Result
	if len(answers) > 0 {
		result = Pending{SymptomAnswers: answers}
	}

	task, err = m.store.Create(ctx, userID, conditionID, result)
	if errors.Is(err, ErrActiveTaskExists) {
		m.metrics.Reused.Inc()
		return m.store.FindActive(ctx, userID, conditionID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	m.metrics.Created.Inc()
	logger.Info("task queued", "task_id", task.ID, "condition_id", conditionID, "status", task.Status)

	return task, nil
}

// Execute moves a queued task to running and scores it in the background.
// The background work is detached from ctx cancellation. A task that is not
// queued yields ErrInvalidTransition.
func (m *Manager) Execute(ctx context.Context, task *Task) (*Task, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	running, err := m.store.Transition(ctx, task.ID, StatusQueued, StatusRunning, nil, "")
	if err != nil {
		return nil, err
	}

	m.metrics.Running.Inc()
	logger.Info("task running", "task_id", running.ID, "condition_id", running.ConditionID, "status", running.Status)

	m.wg.Add(1)

	go m.run(context.WithoutCancel(ctx), running.ID)

	return running, nil
}

// GetStatus returns the task if it belongs to userID.
func (m *Manager) GetStatus(ctx context.Context, taskID int64, userID uuid.UUID) (*Task, error) {
	task, err := m.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.UserID != userID {
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// Wait blocks until every background execution has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// RecoverInterrupted moves tasks that have been running since before the
// cutoff to error. The cutoff must lie further back than any execution can
// take, so only tasks abandoned by a stopped process are affected.
func (m *Manager) RecoverInterrupted(ctx context.Context, before time.Time) (int64, error) {
	n, err := m.store.FailRunning(ctx, before, errInterrupted.Error())
	if err != nil {
		return 0, fmt.Errorf("failed to recover interrupted tasks: %w", err)
	}

	if n > 0 {
		m.metrics.Finished.WithLabelValues(string(StatusError)).Add(float64(n))
		logger.Warn("interrupted tasks marked as failed", "count", n)
	}

	return n, nil
}

// run is the only writer of task id once it is running.
func (m *Manager) run(ctx context.Context, id int64) {
	defer m.wg.Done()
	defer m.metrics.Running.Dec()

	start := time.Now()

	task, scored, err := m.score(ctx, id)

	m.metrics.ScoringDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		m.fail(ctx, id, err)
		return
	}

	m.complete(ctx, task, scored)
}

func (m *Manager) score(ctx context.Context, id int64) (task *Task, scored Scored, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errExecutionPanic, r)
		}
	}()

	task, err = m.store.Get(ctx, id)
	if err != nil {
		return nil, Scored{}, fmt.Errorf("failed to load task: %w", err)
	}

	cond, err := m.catalog.GetCondition(ctx, task.ConditionID)
	if err != nil {
		return task, Scored{}, fmt.Errorf("failed to load condition: %w", err)
	}

	obs := catalog.ObservationSet{}
	if m.observations != nil {
		obs, err = m.observations.GetLatestObservations(ctx, task.UserID)
		if err != nil {
			return task, Scored{}, fmt.Errorf("failed to load observations: %w", err)
		}
	}

	var answers []SymptomAnswer
	if pending, ok := task.Result.(Pending); ok {
		answers = pending.SymptomAnswers
	}

	markerContext := brief.BuildContext(cond, obs, obs.UnitSystems(), m.defaultUnitSystem)
	prompt := ComposePrompt(cond, answers, markerContext)

	scored, err = m.scorer.ScoreCondition(ctx, prompt)
	if err != nil {
		if !errors.Is(err, ErrScoringFailed) {
			err = fmt.Errorf("%w: %w", ErrScoringFailed, err)
		}

		return task, Scored{}, err
	}

	if err := scored.Validate(); err != nil {
		return task, Scored{}, err
	}

	return task, scored, nil
}

// finish writes a final status, retrying failed writes. A task that is no
// longer running is not retried.
func (m *Manager) finish(ctx context.Context, id int64, to Status, result Result, errMsg string) (*Task, error) {
	var task *Task

	backoff := retry.WithMaxRetries(m.retries, retry.NewExponential(m.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error

		task, err = m.store.Transition(ctx, id, StatusRunning, to, result, errMsg)
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrTaskNotFound) {
			return err
		}

		logger.Warn("retrying task status write", "task_id", id, "status", to, "error", err)

		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (m *Manager) fail(ctx context.Context, id int64, cause error) {
	task, err := m.finish(ctx, id, StatusError, nil, cause.Error())
	if err != nil {
		logger.Error("failed to record task error", "task_id", id, "cause", cause, "error", err)
		return
	}

	m.metrics.Finished.WithLabelValues(string(StatusError)).Inc()
	logger.Warn("task failed", "task_id", id, "condition_id", task.ConditionID, "status", task.Status, "error", cause)
}

func (m *Manager) complete(ctx context.Context, task *Task, scored Scored) {
	done, err := m.finish(ctx, task.ID, StatusDone, scored, "")
	if err != nil {
		logger.Error("failed to record task result", "task_id", task.ID, "error", err)
		m.fail(ctx, task.ID, fmt.Errorf("%w: %w", errRecordResult, err))

		return
	}

	m.metrics.Finished.WithLabelValues(string(StatusDone)).Inc()
	logger.Info("task done", "task_id", done.ID, "condition_id", done.ConditionID, "status", done.Status, "risk_score", scored.RiskScore)

	if m.progress == nil {
		return
	}

	progress := Progress{
		TaskID:      done.ID,
		UserID:      done.UserID,
		ConditionID: done.ConditionID,
		RiskScore:   scored.RiskScore,
		Explanation: scored.Explanation,
	}

	if err := m.reportProgress(ctx, progress); err != nil {
		logger.Error("failed to record condition progress", "task_id", done.ID, "condition_id", done.ConditionID, "error", err)
	}
}

func (m *Manager) reportProgress(ctx context.Context, p Progress) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("progress callback panicked: %v", r)
		}
	}()

	return m.progress(ctx, p)
}
