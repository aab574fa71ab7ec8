package calendar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryGateway is an in-process calendar for tests and local runs.
type MemoryGateway struct {
	mu     sync.Mutex
	busy   map[string][]busySlot
	events []Event
	seq    int

	// FailWith, when set, is returned (wrapped in ErrUnavailable) by every call.
	FailWith error
	// Delay is applied before answering and respects ctx cancellation.
	Delay time.Duration
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{busy: make(map[string][]busySlot)}
}

// Block marks [start, end) busy for email.
func (m *MemoryGateway) Block(email string, start, end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	m.busy[key] = append(m.busy[key], busySlot{Start: start, End: end})
}

func (m *MemoryGateway) wait(ctx context.Context) error {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-t.C:
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, m.FailWith)
	}
	return nil
}

func (m *MemoryGateway) IsFree(ctx context.Context, email string, start, end time.Time) (bool, error) {
	if err := m.wait(ctx); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.busy[strings.ToLower(email)] {
		if overlaps(start, end, b.Start, b.End) {
			return false, nil
		}
	}
	return true, nil
}

// CreateEvent records the event and marks its interval busy.
func (m *MemoryGateway) CreateEvent(ctx context.Context, ev Event) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.events = append(m.events, ev)
	key := strings.ToLower(ev.AdminEmail)
	m.busy[key] = append(m.busy[key], busySlot{Start: ev.Start, End: ev.End})
	return fmt.Sprintf("mem-%d", m.seq), nil
}

func (m *MemoryGateway) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
