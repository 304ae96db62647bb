package services

import (
	"context"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionStore interface {
	GetByID(ctx context.Context, sessionID int64) (*models.Session, error)
	GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.Session, error)
	ListByIDs(ctx context.Context, sessionIDs []int64) ([]models.Session, error)
	ListByTrainerInRange(ctx context.Context, trainerID uuid.UUID, from, to string) ([]models.Session, error)
	ListBookedEndedBy(ctx context.Context, trainerID uuid.UUID, date, clock string) ([]models.Session, error)
	InsertAvailable(ctx context.Context, trainerID uuid.UUID, candidates []models.SessionCandidate) ([]models.Session, error)
	DeleteAvailable(ctx context.Context, trainerID uuid.UUID, sessionIDs []int64) ([]int64, error)
	UpdateStatusIfCurrent(ctx context.Context, sessionID int64, currentStatus, nextStatus string) (*models.Session, error)
}

type ReservationStore interface {
	Create(ctx context.Context, sessionID int64, memberID uuid.UUID) (*models.Reservation, error)
	GetByID(ctx context.Context, reservationID int64) (*models.Reservation, error)
	ListBySessionIDs(ctx context.Context, sessionIDs []int64, status string) ([]models.Reservation, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Reservation, error)
	UpdateStatusIfCurrent(ctx context.Context, reservationID int64, currentStatus, nextStatus string) (*models.Reservation, error)
	RejectPendingExcept(ctx context.Context, sessionID, keepReservationID int64) (int64, error)
}

type MemberStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error)
	ListByTrainer(ctx context.Context, trainerID uuid.UUID) ([]models.Member, error)
	IncrementSessionsUsed(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

type WorkoutLogStore interface {
	Create(ctx context.Context, input repository.CreateWorkoutLogInput) (*models.WorkoutLog, error)
	GetByID(ctx context.Context, id int64) (*models.WorkoutLog, error)
	UpdateStatusIfCurrent(ctx context.Context, id int64, currentStatus, nextStatus string) (*models.WorkoutLog, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.WorkoutLog, error)
	LoggedSessionIDs(ctx context.Context, sessionIDs []int64) (map[int64]bool, error)
}

// Repos is one consistent view of the data. Inside Store.InTx every
// repository shares the same transaction.
type Repos struct {
	Sessions     SessionStore
	Reservations ReservationStore
	Members      MemberStore
	WorkoutLogs  WorkoutLogStore

	savepoint func(ctx context.Context, fn func(Repos) error) error
}

// Savepoint runs fn in a nested transaction. A failure inside fn rolls back
// only fn's writes and leaves the enclosing transaction usable.
func (r Repos) Savepoint(ctx context.Context, fn func(Repos) error) error {
	if r.savepoint == nil {
		return fn(r)
	}
	return r.savepoint(ctx, fn)
}

type Store interface {
	Repos() Repos
	InTx(ctx context.Context, fn func(Repos) error) error
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Repos() Repos {
	return reposFor(s.db)
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(Repos) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(txRepos(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func reposFor(db repository.DBTX) Repos {
	return Repos{
		Sessions:     repository.NewSessionRepository(db),
		Reservations: repository.NewReservationRepository(db),
		Members:      repository.NewMemberRepository(db),
		WorkoutLogs:  repository.NewWorkoutLogRepository(db),
	}
}

func txRepos(tx pgx.Tx) Repos {
	repos := reposFor(tx)
	repos.savepoint = func(ctx context.Context, fn func(Repos) error) error {
		// Begin on a pgx.Tx issues SAVEPOINT; Commit releases it.
		nested, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = nested.Rollback(ctx)
		}()

		if err := fn(txRepos(nested)); err != nil {
			return err
		}
		return nested.Commit(ctx)
	}
	return repos
}
