// Package availability computes bookable slots for an admin.
//
// Slots come only from the admin's working window and the meetings already
// committed here; the external calendar is consulted at booking time, not here.
package availability

import (
	"time"

	"callbooker/internal/settings"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether a and b share any instant. Touching ends do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// ComputeSlots returns the free slots in [rangeStart, rangeEnd), ascending.
//
// For every admin-local calendar day touching the range, the window
// [day+MeetingMinStart, day+MeetingMaxEnd) in loc is tiled from its start with
// slots of MeetingDurMins, one every MeetingDurMins+MeetingBufferMins. A slot
// is dropped if it runs past the window end, overlaps a booked interval,
// starts before now, or falls outside the range. Results are expressed in
// rangeStart's location.
func ComputeSlots(s settings.Settings, loc *time.Location, rangeStart, rangeEnd time.Time, booked []Interval, now time.Time) []Interval {
	if loc == nil {
		loc = time.UTC
	}
	dur, step := s.Duration(), s.Step()
	if dur <= 0 || step <= 0 || !rangeStart.Before(rangeEnd) {
		return nil
	}
	out := rangeStart.Location()

	first := rangeStart.In(loc)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)

	var slots []Interval
	for ; day.Before(rangeEnd); day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc) {
		winStart := s.MeetingMinStart.On(day.Year(), day.Month(), day.Day(), loc)
		winEnd := s.MeetingMaxEnd.On(day.Year(), day.Month(), day.Day(), loc)

		for start := winStart; !start.Add(dur).After(winEnd); start = start.Add(step) {
			slot := Interval{Start: start, End: start.Add(dur)}
			if slot.Start.Before(now) || slot.Start.Before(rangeStart) || slot.End.After(rangeEnd) {
				continue
			}
			if overlapsAny(slot, booked) {
				continue
			}
			slots = append(slots, Interval{Start: slot.Start.In(out), End: slot.End.In(out)})
		}
	}
	return slots
}

func overlapsAny(slot Interval, booked []Interval) bool {
	for _, b := range booked {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}
