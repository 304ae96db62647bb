package models

import "github.com/2002jaebin-rgb/PTLog/pkg/timegrid"

type OverlapClass string

const (
	OverlapNone        OverlapClass = "none"
	OverlapDuplicate   OverlapClass = "duplicate"
	OverlapReplaceable OverlapClass = "replaceable"
	OverlapPending     OverlapClass = "pending"
	OverlapBooked      OverlapClass = "booked"
)

type ClassifiedSession struct {
	Session Session      `json:"session"`
	Class   OverlapClass `json:"class"`
}

// OverlapReport holds the existing sessions on the candidates' dates, each in
// exactly one class.
type OverlapReport struct {
	Sessions []ClassifiedSession `json:"sessions"`
}

func (r OverlapReport) Of(class OverlapClass) []Session {
	out := make([]Session, 0)
	for _, cs := range r.Sessions {
		if cs.Class == class {
			out = append(out, cs.Session)
		}
	}
	return out
}

// Replaceable returns the sessions that may be deleted to make room.
func (r OverlapReport) Replaceable() []Session {
	return r.Of(OverlapReplaceable)
}

// Protected returns the overlapping sessions that must never be touched.
func (r OverlapReport) Protected() []Session {
	return append(r.Of(OverlapPending), r.Of(OverlapBooked)...)
}

type ReconcileResult struct {
	Inserted   int       `json:"inserted"`
	Skipped    int       `json:"skipped"`
	Deleted    int       `json:"deleted"`
	Blocked    int       `json:"blocked"`
	Duplicates int       `json:"duplicates"`
	Nothing    bool      `json:"nothing_new"`
	Sessions   []Session `json:"sessions"`
}

type DeleteSessionsResult struct {
	Deleted   []int64 `json:"deleted"`
	Protected []int64 `json:"protected"`
}

type WeekSchedule struct {
	Monday       string         `json:"monday"`
	Days         []timegrid.Day `json:"days"`
	Times        []string       `json:"times"`
	Sessions     []Session      `json:"sessions"`
	Reservations []Reservation  `json:"pending_reservations"`
}
