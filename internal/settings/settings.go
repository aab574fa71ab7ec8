package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" (seconds must be zero).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("time of day must be HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day hour invalid in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day minute invalid in %q", s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return TimeOfDay{}, fmt.Errorf("time of day must not carry seconds, got %q", s)
	}
	t := TimeOfDay{Hour: h, Minute: m}
	if !t.valid() {
		return TimeOfDay{}, fmt.Errorf("time of day out of range: %q", s)
	}
	return t, nil
}

func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// On returns the instant of t on the given calendar date in loc.
func (t TimeOfDay) On(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Settings are the scheduling parameters shared by availability and booking.
// A Settings value is never mutated after it is published by a Store.
type Settings struct {
	MeetingDurMins    int
	MeetingBufferMins int
	MeetingMinStart   TimeOfDay
	MeetingMaxEnd     TimeOfDay
}

// Defaults match the values seeded into the configs table.
func Defaults() Settings {
	return Settings{
		MeetingDurMins:    30,
		MeetingBufferMins: 15,
		MeetingMinStart:   TimeOfDay{Hour: 9},
		MeetingMaxEnd:     TimeOfDay{Hour: 17},
	}
}

var ErrInvalidSettings = errors.New("settings: invalid")

func (s Settings) Validate() error {
	var problems []string
	if s.MeetingDurMins <= 0 {
		problems = append(problems, "meeting_dur_mins must be > 0")
	}
	if s.MeetingBufferMins < 0 {
		problems = append(problems, "meeting_buffer_mins must be >= 0")
	}
	if !s.MeetingMinStart.valid() || !s.MeetingMaxEnd.valid() {
		problems = append(problems, "meeting window bounds out of range")
	} else if s.MeetingMinStart.Minutes() >= s.MeetingMaxEnd.Minutes() {
		problems = append(problems, "meeting_min_start must be before meeting_max_end")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
}

// Duration is the meeting length.
func (s Settings) Duration() time.Duration {
	return time.Duration(s.MeetingDurMins) * time.Minute
}

// Step is the distance between consecutive slot starts.
func (s Settings) Step() time.Duration {
	return time.Duration(s.MeetingDurMins+s.MeetingBufferMins) * time.Minute
}
