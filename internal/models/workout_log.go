package models

import (
	"time"

	"github.com/google/uuid"
)

// A log is pending until the member accepts it; accepting consumes a credit.
const (
	WorkoutLogStatusPending  = "pending"
	WorkoutLogStatusAccepted = "accepted"
)

type ExerciseSet struct {
	Weight string `json:"weight"`
	Reps   string `json:"reps"`
}

type Exercise struct {
	Name string        `json:"name"`
	Sets []ExerciseSet `json:"sets"`
}

type WorkoutLog struct {
	ID        int64      `json:"id"`
	SessionID int64      `json:"session_id"`
	TrainerID uuid.UUID  `json:"trainer_id"`
	MemberID  uuid.UUID  `json:"member_id"`
	Notes     *string    `json:"notes,omitempty"`
	Exercises []Exercise `json:"exercises"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// LoggableSession is a finished booked session with the member who attended.
type LoggableSession struct {
	Session
	Member MemberInfo `json:"member"`
}
