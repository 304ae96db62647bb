package repository

import (
	"context"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var reservation models.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.SessionID,
		&reservation.MemberID,
		&reservation.Status,
		&reservation.ReservationTime,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func collectReservations(rows pgx.Rows) ([]models.Reservation, error) {
	defer rows.Close()

	reservations := make([]models.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *ReservationRepository) Create(
	ctx context.Context,
	sessionID int64,
	memberID uuid.UUID,
) (*models.Reservation, error) {
	query := `
		INSERT INTO reservations (session_id, member_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING reservation_id, session_id, member_id, status, reservation_time
	`
	return scanReservation(r.db.QueryRow(ctx, query, sessionID, memberID))
}

func (r *ReservationRepository) GetByID(ctx context.Context, reservationID int64) (*models.Reservation, error) {
	query := `
		SELECT reservation_id, session_id, member_id, status, reservation_time
		FROM reservations
		WHERE reservation_id = $1
	`
	return scanReservation(r.db.QueryRow(ctx, query, reservationID))
}

// ListBySessionIDs returns reservations on the given sessions, optionally
// filtered by status, newest request first.
func (r *ReservationRepository) ListBySessionIDs(
	ctx context.Context,
	sessionIDs []int64,
	status string,
) ([]models.Reservation, error) {
	if len(sessionIDs) == 0 {
		return []models.Reservation{}, nil
	}

	query := `
		SELECT reservation_id, session_id, member_id, status, reservation_time
		FROM reservations
		WHERE session_id = ANY($1)
		  AND ($2 = '' OR status = $2)
		ORDER BY reservation_time DESC, reservation_id DESC
	`
	rows, err := r.db.Query(ctx, query, sessionIDs, status)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *ReservationRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Reservation, error) {
	query := `
		SELECT reservation_id, session_id, member_id, status, reservation_time
		FROM reservations
		WHERE member_id = $1
		ORDER BY reservation_time DESC, reservation_id DESC
	`
	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// UpdateStatusIfCurrent is the compare-and-swap primitive for reservations:
// the row only changes while its status is still currentStatus, otherwise
// pgx.ErrNoRows is returned.
func (r *ReservationRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	reservationID int64,
	currentStatus string,
	nextStatus string,
) (*models.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $3
		WHERE reservation_id = $1 AND status = $2
		RETURNING reservation_id, session_id, member_id, status, reservation_time
	`
	return scanReservation(r.db.QueryRow(ctx, query, reservationID, currentStatus, nextStatus))
}

// RejectPendingExcept rejects every other pending reservation on a session.
func (r *ReservationRepository) RejectPendingExcept(
	ctx context.Context,
	sessionID int64,
	keepReservationID int64,
) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE reservations
		SET status = 'rejected'
		WHERE session_id = $1
		  AND reservation_id <> $2
		  AND status = 'pending'
	`, sessionID, keepReservationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
