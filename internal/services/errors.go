package services

import (
	"errors"
	"fmt"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrEmptySelection         = errors.New("select at least one time cell")
	ErrConfirmationRequired   = errors.New("replacing existing sessions requires confirmation")
	ErrSlotTaken              = errors.New("slot already taken")
	ErrAlreadyPending         = errors.New("reservation already pending")
	ErrAlreadyHandled         = errors.New("reservation already handled")
	ErrSessionUnavailable     = errors.New("session no longer available")
	ErrSessionNotFound        = errors.New("session not found")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrMemberNotFound         = errors.New("member not found")
	ErrNoSessionsRemaining    = errors.New("no sessions remaining")
	ErrAlreadyLogged          = errors.New("workout already logged")
	ErrWorkoutLogNotFound     = errors.New("workout log not found")
	ErrLogAlreadyAccepted     = errors.New("workout log already accepted")
)

// ConfirmationRequiredError carries the sessions a publish would replace.
// It matches ErrConfirmationRequired under errors.Is.
type ConfirmationRequiredError struct {
	Replaceable []models.Session
	Protected   []models.ClassifiedSession
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("%s: %d session(s) would be replaced", ErrConfirmationRequired, len(e.Replaceable))
}

func (e *ConfirmationRequiredError) Is(target error) bool {
	return target == ErrConfirmationRequired
}

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// translateStoreError maps constraint violations raised by a concurrent
// writer onto ErrConflict.
func translateStoreError(err error) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation, pgExclusionViolation:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
