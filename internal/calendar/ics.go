package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apognu/gocal"
	"github.com/go-resty/resty/v2"
)

// ICSFeed treats published iCalendar feeds as additional busy sources.
// Admins without a feed are always free here.
type ICSFeed struct {
	http  *resty.Client
	feeds map[string]string
}

func NewICSFeed(feeds map[string]string, timeout time.Duration) *ICSFeed {
	return &ICSFeed{
		http:  resty.New().SetTimeout(timeout),
		feeds: feeds,
	}
}

func (f *ICSFeed) IsFree(ctx context.Context, email string, start, end time.Time) (bool, error) {
	url, ok := f.feeds[strings.ToLower(email)]
	if !ok {
		return true, nil
	}

	resp, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return false, fmt.Errorf("%w: ics feed: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("%w: ics feed: status %d", ErrUnavailable, resp.StatusCode())
	}

	busy, err := busyFromICS(resp.String(), start, end)
	if err != nil {
		return false, err
	}
	for _, b := range busy {
		if overlaps(start, end, b.Start, b.End) {
			return false, nil
		}
	}
	return true, nil
}

// busyFromICS expands the feed (including recurrences) over [from, to) and
// returns the intervals that are not cancelled. A body that is not a calendar
// or does not parse is ErrUnavailable, never an empty calendar.
func busyFromICS(data string, from, to time.Time) ([]busySlot, error) {
	if !strings.Contains(data, "BEGIN:VCALENDAR") {
		return nil, fmt.Errorf("%w: ics feed: body is not an iCalendar document", ErrUnavailable)
	}
	parser := gocal.NewParser(strings.NewReader(data))
	parser.Start, parser.End = &from, &to
	if err := parser.Parse(); err != nil {
		return nil, fmt.Errorf("%w: ics feed: %v", ErrUnavailable, err)
	}

	var out []busySlot
	for _, e := range parser.Events {
		if e.Start == nil || e.End == nil {
			continue
		}
		if strings.EqualFold(e.Status, "CANCELLED") {
			continue
		}
		out = append(out, busySlot{Start: *e.Start, End: *e.End})
	}
	return out, nil
}
