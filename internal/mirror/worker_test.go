package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"callbooker/internal/calendar"
)

type fakeStore struct {
	mu       sync.Mutex
	pending  []Task
	mirrored map[int64]string
	failures []failure
}

type failure struct {
	meetingID int64
	attempts  int
	next      time.Time
	giveUp    bool
}

func newFakeStore(tasks ...Task) *fakeStore {
	return &fakeStore{pending: tasks, mirrored: map[int64]string{}}
}

func (s *fakeStore) PendingMirrors(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for _, t := range s.pending {
		if !t.NextAttemptAt.After(now) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkMirrored(ctx context.Context, meetingID int64, externalID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrored[meetingID] = externalID
	return nil
}

func (s *fakeStore) MarkMirrorFailed(ctx context.Context, meetingID int64, attempts int, next time.Time, lastErr string, giveUp bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{meetingID: meetingID, attempts: attempts, next: next, giveUp: giveUp})
	return nil
}

type fakeAuditor struct{ gaveUp []int64 }

func (a *fakeAuditor) LogMirrorFailed(ctx context.Context, meetingID int64, attempts int, lastErr string) error {
	a.gaveUp = append(a.gaveUp, meetingID)
	return nil
}

func testEvent(id int64) calendar.Event {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return calendar.Event{MeetingID: id, AdminEmail: "ann@example.com", Summary: "call", Start: start, End: start.Add(30 * time.Minute)}
}

func TestBackoff(t *testing.T) {
	cases := map[int]time.Duration{
		0:  30 * time.Second,
		1:  30 * time.Second,
		2:  time.Minute,
		3:  2 * time.Minute,
		8:  time.Hour,
		20: time.Hour,
	}
	for attempts, want := range cases {
		if got := Backoff(attempts); got != want {
			t.Fatalf("Backoff(%d) = %v, want %v", attempts, got, want)
		}
	}
}

func TestDispatch_Success(t *testing.T) {
	store := newFakeStore()
	gw := calendar.NewMemoryGateway()
	w := NewWorker(store, gw, nil, Options{})

	w.Dispatch(context.Background(), Task{MeetingID: 1, Event: testEvent(1)})

	if store.mirrored[1] == "" {
		t.Fatalf("expected meeting marked mirrored")
	}
	if len(gw.Events()) != 1 {
		t.Fatalf("expected one calendar event")
	}
}

func TestDispatch_FailureSchedulesRetry(t *testing.T) {
	store := newFakeStore()
	gw := calendar.NewMemoryGateway()
	gw.FailWith = errors.New("503")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	w := NewWorker(store, gw, nil, Options{MaxAttempts: 3})
	w.clock = func() time.Time { return now }

	w.Dispatch(context.Background(), Task{MeetingID: 1, Event: testEvent(1), Attempts: 1})

	if len(store.failures) != 1 {
		t.Fatalf("expected failure recorded")
	}
	f := store.failures[0]
	if f.attempts != 2 || f.giveUp || !f.next.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected failure record: %+v", f)
	}
}

func TestDispatch_GivesUpAfterMaxAttempts(t *testing.T) {
	store := newFakeStore()
	gw := calendar.NewMemoryGateway()
	gw.FailWith = errors.New("503")
	aud := &fakeAuditor{}

	w := NewWorker(store, gw, aud, Options{MaxAttempts: 3})
	w.Dispatch(context.Background(), Task{MeetingID: 9, Event: testEvent(9), Attempts: 2})

	if !store.failures[0].giveUp {
		t.Fatalf("expected give up at max attempts")
	}
	if len(aud.gaveUp) != 1 || aud.gaveUp[0] != 9 {
		t.Fatalf("expected audit of give up, got %v", aud.gaveUp)
	}
}

func TestSweep_OnlyDueTasks(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(
		Task{MeetingID: 1, Event: testEvent(1), NextAttemptAt: now.Add(-time.Minute)},
		Task{MeetingID: 2, Event: testEvent(2), NextAttemptAt: now.Add(time.Minute)},
	)
	w := NewWorker(store, calendar.NewMemoryGateway(), nil, Options{})
	w.clock = func() time.Time { return now }

	n, err := w.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 task, got %d", n)
	}
	if _, ok := store.mirrored[1]; !ok {
		t.Fatalf("expected due task mirrored")
	}
	if _, ok := store.mirrored[2]; ok {
		t.Fatalf("expected future task left alone")
	}
}
