package repository

import (
	"context"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MemberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var member models.Member
	err := row.Scan(
		&member.ID,
		&member.TrainerID,
		&member.Name,
		&member.Email,
		&member.SessionsTotal,
		&member.SessionsUsed,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `
		SELECT id, trainer_id, name, email, sessions_total, sessions_used
		FROM members
		WHERE id = $1
	`
	return scanMember(r.db.QueryRow(ctx, query, id))
}

// ListByIDs returns the members keyed by id; unknown ids are absent.
func (r *MemberRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error) {
	members := make(map[uuid.UUID]models.Member, len(ids))
	if len(ids) == 0 {
		return members, nil
	}

	query := `
		SELECT id, trainer_id, name, email, sessions_total, sessions_used
		FROM members
		WHERE id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members[member.ID] = *member
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// ListByTrainer returns the trainer's members ordered by name.
func (r *MemberRepository) ListByTrainer(ctx context.Context, trainerID uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT id, trainer_id, name, email, sessions_total, sessions_used
		FROM members
		WHERE trainer_id = $1
		ORDER BY name, id
	`
	rows, err := r.db.Query(ctx, query, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// IncrementSessionsUsed consumes one session credit. It only applies while
// credits remain; an exhausted member surfaces as pgx.ErrNoRows.
func (r *MemberRepository) IncrementSessionsUsed(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `
		UPDATE members
		SET sessions_used = sessions_used + 1
		WHERE id = $1 AND sessions_used < sessions_total
		RETURNING id, trainer_id, name, email, sessions_total, sessions_used
	`
	return scanMember(r.db.QueryRow(ctx, query, id))
}
