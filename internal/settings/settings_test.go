package settings

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Hour != 9 || got.Minute != 30 || got.String() != "09:30" {
		t.Fatalf("unexpected value: %+v", got)
	}
	if _, err := ParseTimeOfDay("17:00:00"); err != nil {
		t.Fatalf("expected seconds=00 accepted, got %v", err)
	}
	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "10:00:30"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}

	s := Defaults()
	s.MeetingDurMins = 0
	if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}

	s = Defaults()
	s.MeetingBufferMins = -1
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for negative buffer")
	}

	s = Defaults()
	s.MeetingMinStart, s.MeetingMaxEnd = s.MeetingMaxEnd, s.MeetingMinStart
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for inverted window")
	}
}

func TestTimeOfDayOn_UsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	got := MustTimeOfDay("09:00").On(2024, time.July, 1, loc)
	if got.UTC().Hour() != 8 {
		t.Fatalf("expected 08:00 UTC during BST, got %v", got.UTC())
	}
}

type flakySource struct {
	next Settings
	err  error
}

func (f *flakySource) Load(context.Context) (Settings, error) { return f.next, f.err }

func TestStore_RefreshKeepsPreviousOnFailure(t *testing.T) {
	src := &flakySource{next: Defaults()}
	store, err := NewStore(context.Background(), src)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	snap := store.Snapshot()

	src.err = errors.New("db down")
	if err := store.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if store.Snapshot() != snap {
		t.Fatalf("expected previous snapshot retained")
	}

	src.err = nil
	src.next = Settings{MeetingDurMins: -5, MeetingMinStart: MustTimeOfDay("09:00"), MeetingMaxEnd: MustTimeOfDay("17:00")}
	if err := store.Refresh(context.Background()); err == nil {
		t.Fatalf("expected invalid settings rejected")
	}
	if store.Snapshot() != snap {
		t.Fatalf("expected previous snapshot retained after invalid load")
	}

	src.next = Settings{MeetingDurMins: 60, MeetingMinStart: MustTimeOfDay("10:00"), MeetingMaxEnd: MustTimeOfDay("16:00")}
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if store.Snapshot().MeetingDurMins != 60 {
		t.Fatalf("expected new snapshot published")
	}
	if snap.MeetingDurMins != 30 {
		t.Fatalf("expected earlier snapshot to stay immutable")
	}
}

func TestNewStore_FailsWithoutInitialSettings(t *testing.T) {
	if _, err := NewStore(context.Background(), &flakySource{err: ErrNotConfigured}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestStaticSource(t *testing.T) {
	want := Defaults()
	got, err := StaticSource(want).Load(context.Background())
	if err != nil || got != want {
		t.Fatalf("unexpected: %+v %v", got, err)
	}
}
