package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusAvailable = "available"
	SessionStatusBooked    = "booked"
)

type Session struct {
	ID            int64     `json:"session_id"`
	TrainerID     uuid.UUID `json:"trainer_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	SessionLength float64   `json:"session_length"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Key identifies a session by its slot: date|start|end.
func (s Session) Key() string {
	return SlotKey(s.Date, s.StartTime, s.EndTime)
}

func SlotKey(date, start, end string) string {
	return date + "|" + start + "|" + end
}

// Cell is one selected 30-minute grid cell.
type Cell struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// SelectionRange is a run of contiguous selected cells on one date.
type SelectionRange struct {
	Day   string `json:"day"`
	Date  string `json:"date"`
	Start int    `json:"start_minute"`
	End   int    `json:"end_minute"`
}

// Selection is a merged cell selection and the blocks cut from it. Ranges
// includes runs too short to yield a block.
type Selection struct {
	Ranges     []SelectionRange   `json:"ranges"`
	Candidates []SessionCandidate `json:"candidates"`
}

// SessionCandidate is a partitioned block that has not been persisted yet.
type SessionCandidate struct {
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	SessionLength float64 `json:"session_length"`
	RangeStart    string  `json:"range_start"`
	RangeEnd      string  `json:"range_end"`
}

func (c SessionCandidate) Key() string {
	return SlotKey(c.Date, c.StartTime, c.EndTime)
}
