package repository

import (
	"context"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreateWorkoutLogInput struct {
	SessionID int64
	TrainerID uuid.UUID
	MemberID  uuid.UUID
	Notes     *string
	Exercises []models.Exercise
}

type WorkoutLogRepository struct {
	db DBTX
}

func NewWorkoutLogRepository(db DBTX) *WorkoutLogRepository {
	return &WorkoutLogRepository{db: db}
}

func scanWorkoutLog(row pgx.Row) (*models.WorkoutLog, error) {
	var log models.WorkoutLog
	err := row.Scan(
		&log.ID,
		&log.SessionID,
		&log.TrainerID,
		&log.MemberID,
		&log.Notes,
		&log.Exercises,
		&log.Status,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *WorkoutLogRepository) Create(
	ctx context.Context,
	input CreateWorkoutLogInput,
) (*models.WorkoutLog, error) {
	query := `
		INSERT INTO workout_logs (session_id, trainer_id, member_id, notes, exercises)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, trainer_id, member_id, notes, exercises, status, created_at
	`
	return scanWorkoutLog(r.db.QueryRow(
		ctx,
		query,
		input.SessionID,
		input.TrainerID,
		input.MemberID,
		input.Notes,
		input.Exercises,
	))
}

func (r *WorkoutLogRepository) GetByID(ctx context.Context, id int64) (*models.WorkoutLog, error) {
	query := `
		SELECT id, session_id, trainer_id, member_id, notes, exercises, status, created_at
		FROM workout_logs
		WHERE id = $1
	`
	return scanWorkoutLog(r.db.QueryRow(ctx, query, id))
}

// UpdateStatusIfCurrent moves a log from currentStatus to nextStatus and
// returns pgx.ErrNoRows when the log is no longer in currentStatus.
func (r *WorkoutLogRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	id int64,
	currentStatus string,
	nextStatus string,
) (*models.WorkoutLog, error) {
	query := `
		UPDATE workout_logs
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING id, session_id, trainer_id, member_id, notes, exercises, status, created_at
	`
	return scanWorkoutLog(r.db.QueryRow(ctx, query, id, currentStatus, nextStatus))
}

func (r *WorkoutLogRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.WorkoutLog, error) {
	query := `
		SELECT id, session_id, trainer_id, member_id, notes, exercises, status, created_at
		FROM workout_logs
		WHERE member_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]models.WorkoutLog, 0)
	for rows.Next() {
		log, err := scanWorkoutLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// LoggedSessionIDs reports which of the given sessions already have a log.
func (r *WorkoutLogRepository) LoggedSessionIDs(ctx context.Context, sessionIDs []int64) (map[int64]bool, error) {
	logged := make(map[int64]bool, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return logged, nil
	}

	rows, err := r.db.Query(ctx, `SELECT session_id FROM workout_logs WHERE session_id = ANY($1)`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		logged[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logged, nil
}
