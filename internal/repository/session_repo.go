package repository

import (
	"context"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `
	session_id,
	trainer_id,
	to_char(date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'),
	to_char(end_time, 'HH24:MI'),
	session_length::float8,
	status,
	created_at
`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.TrainerID,
		&session.Date,
		&session.StartTime,
		&session.EndTime,
		&session.SessionLength,
		&session.Status,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func collectSessions(rows pgx.Rows) ([]models.Session, error) {
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE session_id = $1
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE session_id = $1
		FOR UPDATE
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) ListByIDs(ctx context.Context, sessionIDs []int64) ([]models.Session, error) {
	if len(sessionIDs) == 0 {
		return []models.Session{}, nil
	}

	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE session_id = ANY($1)
		ORDER BY date ASC, start_time ASC
	`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ListByTrainerInRange returns the trainer's sessions with from <= date <= to.
func (r *SessionRepository) ListByTrainerInRange(
	ctx context.Context,
	trainerID uuid.UUID,
	from string,
	to string,
) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE trainer_id = $1
		  AND date BETWEEN $2::date AND $3::date
		ORDER BY date ASC, start_time ASC, session_id ASC
	`
	rows, err := r.db.Query(ctx, query, trainerID, from, to)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ListBookedEndedBy returns booked sessions that finished at or before the
// given wall-clock moment, newest first.
func (r *SessionRepository) ListBookedEndedBy(
	ctx context.Context,
	trainerID uuid.UUID,
	date string,
	clock string,
) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE trainer_id = $1
		  AND status = 'booked'
		  AND (date < $2::date OR (date = $2::date AND end_time <= $3::time))
		ORDER BY date DESC, start_time DESC
	`
	rows, err := r.db.Query(ctx, query, trainerID, date, clock)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// InsertAvailable bulk-inserts candidates as available sessions.
func (r *SessionRepository) InsertAvailable(
	ctx context.Context,
	trainerID uuid.UUID,
	candidates []models.SessionCandidate,
) ([]models.Session, error) {
	if len(candidates) == 0 {
		return []models.Session{}, nil
	}

	dates := make([]string, 0, len(candidates))
	starts := make([]string, 0, len(candidates))
	ends := make([]string, 0, len(candidates))
	lengths := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		dates = append(dates, c.Date)
		starts = append(starts, c.StartTime)
		ends = append(ends, c.EndTime)
		lengths = append(lengths, c.SessionLength)
	}

	query := `
		INSERT INTO sessions (trainer_id, date, start_time, end_time, session_length, status)
		SELECT $1, d::date, s::time, e::time, l, 'available'
		FROM unnest($2::text[], $3::text[], $4::text[], $5::float8[]) AS t(d, s, e, l)
		RETURNING ` + sessionColumns

	rows, err := r.db.Query(ctx, query, trainerID, dates, starts, ends, lengths)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// DeleteAvailable deletes the given sessions of a trainer, but only those
// still available and not referenced by a pending or approved reservation.
// It returns the ids actually deleted.
func (r *SessionRepository) DeleteAvailable(
	ctx context.Context,
	trainerID uuid.UUID,
	sessionIDs []int64,
) ([]int64, error) {
	deleted := make([]int64, 0, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return deleted, nil
	}

	query := `
		DELETE FROM sessions s
		WHERE s.trainer_id = $1
		  AND s.session_id = ANY($2)
		  AND s.status = 'available'
		  AND NOT EXISTS (
			SELECT 1
			FROM reservations r
			WHERE r.session_id = s.session_id
			  AND r.status IN ('pending', 'approved')
		  )
		RETURNING s.session_id
	`
	rows, err := r.db.Query(ctx, query, trainerID, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deleted, nil
}

// UpdateStatusIfCurrent moves a session to nextStatus only while it still has
// currentStatus. A lost race surfaces as pgx.ErrNoRows.
func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = $3
		WHERE session_id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}
