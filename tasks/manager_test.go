// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/humaidq/labrisk/apperr"
	"github.com/humaidq/labrisk/catalog"
)

func floatPtr(value float64) *float64 {
	return &value
}

type fakeScorer struct {
	calls   atomic.Int32
	release chan struct{}
	score   func(prompt string) (Scored, error)

	mu      sync.Mutex
	prompts []string
}

func (f *fakeScorer) ScoreCondition(_ context.Context, prompt string) (Scored, error) {
	f.calls.Add(1)

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}

	return f.score(prompt)
}

func (f *fakeScorer) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.prompts) == 0 {
		return ""
	}

	return f.prompts[len(f.prompts)-1]
}

type fakeObservations map[uuid.UUID]catalog.ObservationSet

func (f fakeObservations) GetLatestObservations(_ context.Context, userID uuid.UUID) (catalog.ObservationSet, error) {
	return f[userID], nil
}

func testCatalog(t *testing.T) *catalog.Memory {
	t.Helper()

	tsh := catalog.Marker{
		Name:             "tsh",
		DisplayName:      "TSH",
		ConventionalUnit: "µIU/mL",
		Standard: catalog.RangeSet{
			Conventional: catalog.Bounds{Min: floatPtr(0.4), Max: floatPtr(4.5)},
		},
		Optimal: catalog.RangeSet{
			Conventional: catalog.Bounds{Min: floatPtr(0.5), Max: floatPtr(2.5)},
		},
	}

	cat, err := catalog.NewMemory([]catalog.Marker{tsh}, []catalog.HealthCondition{
		{
			ConditionID:    "hypothyroidism",
			DisplayName:    "Hypothyroidism",
			AssociatedHigh: []catalog.Marker{tsh},
			ExpertComment:  "Watch the upper normal TSH.",
		},
		{ConditionID: "hyperthyroidism", DisplayName: "Hyperthyroidism"},
	})
	if err != nil {
		t.Fatalf("NewMemory failed: %v", err)
	}

	return cat
}

func okScore(string) (Scored, error) {
	return Scored{RiskScore: 64, Explanation: "TSH above optimal range"}, nil
}

type progressRecorder struct {
	mu    sync.Mutex
	calls []Progress
}

func (p *progressRecorder) record(_ context.Context, progress Progress) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, progress)

	return nil
}

func (p *progressRecorder) snapshot() []Progress {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Progress(nil), p.calls...)
}

func TestStartOrReuseReturnsActiveTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	manager := NewManager(NewMemoryStore(), testCatalog(t), nil, &fakeScorer{score: okScore})

	first, err := manager.StartOrReuse(ctx, user, "hypothyroidism", []SymptomAnswer{{Symptom: "Fatigue", Answer: "yes"}})
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	second, err := manager.StartOrReuse(ctx, user, "hypothyroidism", []SymptomAnswer{{Symptom: "Tremor", Answer: "no"}})
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected the same task, got %d and %d", first.ID, second.ID)
	}

	pending, ok := second.Result.(Pending)
	if !ok || len(pending.SymptomAnswers) != 1 || pending.SymptomAnswers[0].Symptom != "Fatigue" {
		t.Fatalf("expected seed answers of the first call, got %#v", second.Result)
	}

	other, err := manager.StartOrReuse(ctx, uuid.New(), "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if other.ID == first.ID || other.Result != nil {
		t.Fatalf("expected a separate task without result for another user, got %#v", other)
	}
}

func TestStartOrReuseConcurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	manager := NewManager(NewMemoryStore(), testCatalog(t), nil, &fakeScorer{score: okScore})

	const workers = 16

	ids := make([]int64, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			task, err := manager.StartOrReuse(ctx, user, "hypothyroidism", nil)
			if err != nil {
				t.Errorf("StartOrReuse failed: %v", err)
				return
			}

			ids[i] = task.ID
		}()
	}

	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("expected one task id, got %v", ids)
		}
	}
}

func TestStartOrReuseValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := NewManager(NewMemoryStore(), testCatalog(t), nil, &fakeScorer{score: okScore})

	if _, err := manager.StartOrReuse(ctx, uuid.New(), "  ", nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	if _, err := manager.StartOrReuse(ctx, uuid.Nil, "hypothyroidism", nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for nil user, got %v", err)
	}

	if _, err := manager.StartOrReuse(ctx, uuid.New(), "thyroid_storm", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExecuteScoresTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	scorer := &fakeScorer{score: okScore}
	progress := &progressRecorder{}
	observations := fakeObservations{
		user: {"tsh": {Value: 3.8, UnitSystem: catalog.Conventional}},
	}

	manager := NewManager(NewMemoryStore(), testCatalog(t), observations, scorer, WithProgress(progress.record))

	task, err := manager.StartOrReuse(ctx, user, "hypothyroidism", []SymptomAnswer{{Symptom: "Fatigue", Answer: "yes", Info: "afternoons"}})
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	running, err := manager.Execute(ctx, task)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if running.Status != StatusRunning {
		t.Fatalf("expected running, got %s", running.Status)
	}

	manager.Wait()

	final, err := manager.GetStatus(ctx, task.ID, user)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}

	if final.Status != StatusDone || final.Error != "" {
		t.Fatalf("expected done without error, got %s %q", final.Status, final.Error)
	}

	scored, ok := final.Result.(Scored)
	if !ok || scored.RiskScore != 64 {
		t.Fatalf("expected scored result, got %#v", final.Result)
	}

	if calls := scorer.calls.Load(); calls != 1 {
		t.Fatalf("expected one scorer call, got %d", calls)
	}

	prompt := scorer.lastPrompt()
	for _, want := range []string{
		"Hypothyroidism (hypothyroidism)",
		"Expert commentary: Watch the upper normal TSH.",
		"Fatigue: Yes (afternoons)",
		"[tsh] TSH (association: HIGH)",
		"Patient value: 3.8 µIU/mL",
		ResponseInstruction,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, prompt)
		}
	}

	calls := progress.snapshot()
	if len(calls) != 1 || calls[0].ConditionID != "hypothyroidism" || calls[0].RiskScore != 64 || calls[0].UserID != user {
		t.Fatalf("unexpected progress calls: %+v", calls)
	}

	next, err := manager.StartOrReuse(ctx, user, "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if next.ID == task.ID {
		t.Fatalf("expected a new task after completion")
	}
}

func TestExecuteUpstreamFailure(t *testing.T) {
	t.Parallel()

	cases := map[string]func(string) (Scored, error){
		"parse error": func(string) (Scored, error) {
			return Scored{}, fmt.Errorf("%w: invalid character 'S' looking for beginning of value", apperr.ErrUpstreamFailure)
		},
		"out of range": func(string) (Scored, error) {
			return Scored{RiskScore: 140, Explanation: "very high"}, nil
		},
		"panic": func(string) (Scored, error) {
			panic("scorer exploded")
		},
	}

	for name, score := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			user := uuid.New()
			scorer := &fakeScorer{score: score}
			progress := &progressRecorder{}
			manager := NewManager(NewMemoryStore(), testCatalog(t), nil, scorer, WithProgress(progress.record))

			answers := []SymptomAnswer{{Symptom: "Fatigue", Answer: "no"}}

			task, err := manager.StartOrReuse(ctx, user, "hypothyroidism", answers)
			if err != nil {
				t.Fatalf("StartOrReuse failed: %v", err)
			}

			if _, err := manager.Execute(ctx, task); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			manager.Wait()

			final, err := manager.GetStatus(ctx, task.ID, user)
			if err != nil {
				t.Fatalf("GetStatus failed: %v", err)
			}

			if final.Status != StatusError || final.Error == "" {
				t.Fatalf("expected error status with message, got %s %q", final.Status, final.Error)
			}

			if _, ok := final.Result.(Pending); !ok {
				t.Fatalf("expected pending answers to be kept, got %#v", final.Result)
			}

			if calls := scorer.calls.Load(); calls != 1 {
				t.Fatalf("expected one scorer call, got %d", calls)
			}

			if len(progress.snapshot()) != 0 {
				t.Fatalf("expected no progress callback on failure")
			}
		})
	}
}

func TestExecuteRequiresQueuedTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	manager := NewManager(NewMemoryStore(), testCatalog(t), nil, &fakeScorer{score: okScore})

	task, err := manager.StartOrReuse(ctx, user, "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if _, err := manager.Execute(ctx, task); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if _, err := manager.Execute(ctx, task); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on second execute, got %v", err)
	}

	manager.Wait()

	if _, err := manager.Execute(ctx, nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for nil task, got %v", err)
	}
}

func TestExecuteIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	user := uuid.New()
	scorer := &fakeScorer{score: okScore, release: make(chan struct{})}
	manager := NewManager(NewMemoryStore(), testCatalog(t), nil, scorer)

	ctx, cancel := context.WithCancel(context.Background())

	task, err := manager.StartOrReuse(ctx, user, "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if _, err := manager.Execute(ctx, task); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	cancel()
	close(scorer.release)
	manager.Wait()

	final, err := manager.GetStatus(context.Background(), task.ID, user)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}

	if final.Status != StatusDone {
		t.Fatalf("expected done after caller cancellation, got %s", final.Status)
	}
}

func TestStatusNeverMovesBackward(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	scorer := &fakeScorer{score: okScore, release: make(chan struct{})}
	manager := NewManager(NewMemoryStore(), testCatalog(t), nil, scorer)

	task, err := manager.StartOrReuse(ctx, user, "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	rank := map[Status]int{StatusQueued: 0, StatusRunning: 1, StatusDone: 2, StatusError: 2}

	stop := make(chan struct{})
	observed := make(chan []Status, 1)

	go func() {
		var seen []Status

		for {
			current, err := manager.GetStatus(ctx, task.ID, user)
			if err == nil {
				seen = append(seen, current.Status)
			}

			select {
			case <-stop:
				observed <- seen
				return
			default:
			}
		}
	}()

	if _, err := manager.Execute(ctx, task); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	close(scorer.release)
	manager.Wait()
	close(stop)

	seen := <-observed
	for i := 1; i < len(seen); i++ {
		if rank[seen[i]] < rank[seen[i-1]] {
			t.Fatalf("status moved backward: %v", seen)
		}
	}
}

func TestGetStatusChecksOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	owner := uuid.New()
	manager := NewManager(NewMemoryStore(), testCatalog(t), nil, &fakeScorer{score: okScore})

	task, err := manager.StartOrReuse(ctx, owner, "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if _, err := manager.GetStatus(ctx, task.ID, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for another user, got %v", err)
	}

	if _, err := manager.GetStatus(ctx, task.ID+100, owner); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown task, got %v", err)
	}
}

// failingFinishStore fails every final status write to one of the listed
// statuses.
type failingFinishStore struct {
	*MemoryStore

	failTo map[Status]bool
	writes atomic.Int32
}

func (s *failingFinishStore) Transition(ctx context.Context, id int64, from, to Status, result Result, errMsg string) (*Task, error) {
	if s.failTo[to] {
		s.writes.Add(1)
		return nil, errors.New("connection reset by peer")
	}

	return s.MemoryStore.Transition(ctx, id, from, to, result, errMsg)
}

func finishedCount(manager *Manager, status Status) float64 {
	return testutil.ToFloat64(manager.Metrics().Finished.WithLabelValues(string(status)))
}

func TestExecuteRecordsErrorWhenResultWriteFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	store := &failingFinishStore{MemoryStore: NewMemoryStore(), failTo: map[Status]bool{StatusDone: true}}
	progress := &progressRecorder{}
	manager := NewManager(store, testCatalog(t), nil, &fakeScorer{score: okScore},
		WithProgress(progress.record),
		WithFinishRetries(2, time.Millisecond),
	)

	task, err := manager.StartOrReuse(ctx, user, "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if _, err := manager.Execute(ctx, task); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	manager.Wait()

	final, err := manager.GetStatus(ctx, task.ID, user)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}

	if final.Status != StatusError || !strings.Contains(final.Error, "failed to record result") {
		t.Fatalf("expected error status after failed result write, got %s %q", final.Status, final.Error)
	}

	if writes := store.writes.Load(); writes != 3 {
		t.Fatalf("expected the done write to be tried 3 times, got %d", writes)
	}

	if len(progress.snapshot()) != 0 {
		t.Fatalf("expected no progress callback without a stored result")
	}

	if got := finishedCount(manager, StatusError); got != 1 {
		t.Fatalf("expected one finished error, got %v", got)
	}

	if got := finishedCount(manager, StatusDone); got != 0 {
		t.Fatalf("expected no finished done, got %v", got)
	}

	next, err := manager.StartOrReuse(ctx, user, "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if next.ID == task.ID {
		t.Fatalf("expected a new task once the failed one is finished")
	}
}

func TestFailedErrorWriteIsRecoveredLater(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	store := &failingFinishStore{
		MemoryStore: NewMemoryStore(),
		failTo:      map[Status]bool{StatusDone: true, StatusError: true},
	}
	manager := NewManager(store, testCatalog(t), nil, &fakeScorer{score: okScore},
		WithFinishRetries(1, time.Millisecond),
	)

	task, err := manager.StartOrReuse(ctx, user, "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if _, err := manager.Execute(ctx, task); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	manager.Wait()

	if got := finishedCount(manager, StatusError); got != 0 {
		t.Fatalf("expected unrecorded errors not to be counted, got %v", got)
	}

	n, err := manager.RecoverInterrupted(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("RecoverInterrupted failed: %v", err)
	}

	if n != 1 {
		t.Fatalf("expected one recovered task, got %d", n)
	}

	final, err := manager.GetStatus(ctx, task.ID, user)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}

	if final.Status != StatusError || final.Error != errInterrupted.Error() {
		t.Fatalf("expected interrupted error, got %s %q", final.Status, final.Error)
	}

	if got := finishedCount(manager, StatusError); got != 1 {
		t.Fatalf("expected one finished error after recovery, got %v", got)
	}
}

func TestRecoverInterruptedSkipsRecentTasks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	started := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	store.now = func() time.Time { return started }

	manager := NewManager(store, testCatalog(t), nil, &fakeScorer{score: okScore})

	task, err := manager.StartOrReuse(ctx, uuid.New(), "hypothyroidism", nil)
	if err != nil {
		t.Fatalf("StartOrReuse failed: %v", err)
	}

	if _, err := store.Transition(ctx, task.ID, StatusQueued, StatusRunning, nil, ""); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	n, err := manager.RecoverInterrupted(ctx, started)
	if err != nil || n != 0 {
		t.Fatalf("expected no recovery at the start time, got %d, %v", n, err)
	}

	n, err = manager.RecoverInterrupted(ctx, started.Add(time.Second))
	if err != nil || n != 1 {
		t.Fatalf("expected one recovered task, got %d, %v", n, err)
	}

	final, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if final.Status != StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
}
