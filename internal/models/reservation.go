package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReservationStatusPending  = "pending"
	ReservationStatusApproved = "approved"
	ReservationStatusRejected = "rejected"
)

type Reservation struct {
	ID              int64     `json:"reservation_id"`
	SessionID       int64     `json:"session_id"`
	MemberID        uuid.UUID `json:"member_id"`
	Status          string    `json:"status"`
	ReservationTime time.Time `json:"reservation_time"`
}

// ReservationDetail is a reservation joined with the session and member it
// refers to, for list views.
type ReservationDetail struct {
	Reservation
	Session *Session    `json:"session,omitempty"`
	Member  *MemberInfo `json:"member,omitempty"`
}
