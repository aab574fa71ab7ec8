package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// BookingsSummaryRequest asks for one admin's meetings overlapping Range.
type BookingsSummaryRequest struct {
	AdminID int64     `json:"admin_id"`
	Range   TimeRange `json:"range"`
}

type BookingsSummary struct {
	AdminID int64     `json:"admin_id"`
	Range   TimeRange `json:"range"`

	TotalMeetings   int `json:"total_meetings"`
	SalesMeetings   int `json:"sales_meetings"`
	SupportMeetings int `json:"support_meetings"`

	BookedMinutes     int `json:"booked_minutes"`
	DistinctCompanies int `json:"distinct_companies"`
	DistinctContacts  int `json:"distinct_contacts"`

	FirstMeeting *time.Time `json:"first_meeting,omitempty"`
	LastMeeting  *time.Time `json:"last_meeting,omitempty"`
}
