package calendar

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// GoogleClient talks to the Google Calendar v3 REST API.
type GoogleClient struct {
	http *resty.Client
}

func NewGoogleClient(baseURL, token string, timeout time.Duration) *GoogleClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &GoogleClient{http: c}
}

type freeBusyItem struct {
	ID string `json:"id"`
}

type freeBusyRequest struct {
	TimeMin string         `json:"timeMin"`
	TimeMax string         `json:"timeMax"`
	Items   []freeBusyItem `json:"items"`
}

type busySlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type calendarError struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

type freeBusyCalendar struct {
	Busy   []busySlot      `json:"busy"`
	Errors []calendarError `json:"errors"`
}

type freeBusyResponse struct {
	Calendars map[string]freeBusyCalendar `json:"calendars"`
}

func (g *GoogleClient) IsFree(ctx context.Context, email string, start, end time.Time) (bool, error) {
	var out freeBusyResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(freeBusyRequest{
			TimeMin: start.UTC().Format(time.RFC3339),
			TimeMax: end.UTC().Format(time.RFC3339),
			Items:   []freeBusyItem{{ID: email}},
		}).
		SetResult(&out).
		Post("/freeBusy")
	if err != nil {
		return false, fmt.Errorf("%w: freeBusy: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("%w: freeBusy: status %d", ErrUnavailable, resp.StatusCode())
	}

	cal, ok := out.Calendars[email]
	if !ok {
		return false, fmt.Errorf("%w: freeBusy: calendar %q missing from response", ErrUnavailable, email)
	}
	if len(cal.Errors) > 0 {
		return false, fmt.Errorf("%w: freeBusy: %s", ErrUnavailable, cal.Errors[0].Reason)
	}
	for _, b := range cal.Busy {
		if overlaps(start, end, b.Start, b.End) {
			return false, nil
		}
	}
	return true, nil
}

type eventTime struct {
	DateTime string `json:"dateTime"`
}

type eventAttendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type eventRequest struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	Start       eventTime       `json:"start"`
	End         eventTime       `json:"end"`
	Attendees   []eventAttendee `json:"attendees,omitempty"`
}

type eventResponse struct {
	ID string `json:"id"`
}

func (g *GoogleClient) CreateEvent(ctx context.Context, ev Event) (string, error) {
	body := eventRequest{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       eventTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         eventTime{DateTime: ev.End.Format(time.RFC3339)},
	}
	for _, a := range ev.Attendees {
		body.Attendees = append(body.Attendees, eventAttendee{Email: a.Email, DisplayName: a.Name})
	}

	var out eventResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("sendUpdates", "all").
		SetBody(body).
		SetResult(&out).
		Post("/calendars/" + url.PathEscape(ev.AdminEmail) + "/events")
	if err != nil {
		return "", fmt.Errorf("%w: create event: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: create event: status %d", ErrUnavailable, resp.StatusCode())
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: create event: empty id", ErrUnavailable)
	}
	return out.ID, nil
}
