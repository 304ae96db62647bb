package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/internal/repository"
	"github.com/2002jaebin-rgb/PTLog/pkg/timegrid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type WorkoutLogService struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

func NewWorkoutLogService(store Store, loc *time.Location, logger *zap.Logger) *WorkoutLogService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkoutLogService{store: store, loc: loc, logger: logger, now: time.Now}
}

type LogWorkoutInput struct {
	SessionID int64
	Notes     *string
	Exercises []models.Exercise
}

// SanitizeExercises trims names, drops sets missing weight or reps and drops
// exercises left with neither a name nor a set.
func SanitizeExercises(exercises []models.Exercise) []models.Exercise {
	cleaned := make([]models.Exercise, 0, len(exercises))
	for _, exercise := range exercises {
		name := strings.TrimSpace(exercise.Name)
		sets := make([]models.ExerciseSet, 0, len(exercise.Sets))
		for _, set := range exercise.Sets {
			weight := strings.TrimSpace(set.Weight)
			reps := strings.TrimSpace(set.Reps)
			if weight == "" || reps == "" {
				continue
			}
			sets = append(sets, models.ExerciseSet{Weight: weight, Reps: reps})
		}
		if name == "" && len(sets) == 0 {
			continue
		}
		cleaned = append(cleaned, models.Exercise{Name: name, Sets: sets})
	}
	return cleaned
}

func hasNamedExercise(exercises []models.Exercise) bool {
	for _, exercise := range exercises {
		if exercise.Name != "" {
			return true
		}
	}
	return false
}

func (s *WorkoutLogService) clock() (string, string) {
	now := s.now().In(s.loc)
	return timegrid.FormatDate(now), now.Format("15:04")
}

func sessionEnded(session *models.Session, date, clock string) bool {
	if session.Date != date {
		return session.Date < date
	}
	return timegrid.TimeToMinutes(session.EndTime) <= timegrid.TimeToMinutes(clock)
}

// ListLoggableSessions returns the trainer's finished booked sessions that
// have an attending member and no log yet, newest first.
func (s *WorkoutLogService) ListLoggableSessions(
	ctx context.Context,
	actor models.Identity,
) ([]models.LoggableSession, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}

	repos := s.store.Repos()
	date, clock := s.clock()
	sessions, err := repos.Sessions.ListBookedEndedBy(ctx, actor.ID, date, clock)
	if err != nil {
		return nil, err
	}
	ids := sessionIDs(sessions)

	approved, err := repos.Reservations.ListBySessionIDs(ctx, ids, models.ReservationStatusApproved)
	if err != nil {
		return nil, err
	}
	logged, err := repos.WorkoutLogs.LoggedSessionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	attendee := make(map[int64]uuid.UUID, len(approved))
	memberIDs := make([]uuid.UUID, 0, len(approved))
	for _, r := range approved {
		attendee[r.SessionID] = r.MemberID
		memberIDs = append(memberIDs, r.MemberID)
	}
	members, err := repos.Members.ListByIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	loggable := make([]models.LoggableSession, 0, len(sessions))
	for _, session := range sessions {
		memberID, ok := attendee[session.ID]
		if !ok || logged[session.ID] {
			continue
		}
		item := models.LoggableSession{Session: session, Member: models.MemberInfo{ID: memberID}}
		if member, ok := members[memberID]; ok {
			item.Member = member.Info()
		}
		loggable = append(loggable, item)
	}
	return loggable, nil
}

// LogWorkout records what was done in a finished session as a pending log.
// The member's credit is consumed only when the member accepts it.
func (s *WorkoutLogService) LogWorkout(
	ctx context.Context,
	actor models.Identity,
	input LogWorkoutInput,
) (*models.WorkoutLog, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	if input.SessionID <= 0 {
		return nil, ErrInvalidInput
	}

	exercises := SanitizeExercises(input.Exercises)
	if !hasNamedExercise(exercises) {
		return nil, fmt.Errorf("%w: at least one named exercise is required", ErrInvalidInput)
	}

	var notes *string
	if input.Notes != nil {
		trimmed := strings.TrimSpace(*input.Notes)
		if trimmed != "" {
			notes = &trimmed
		}
	}

	date, clock := s.clock()
	var created *models.WorkoutLog
	err := s.store.InTx(ctx, func(repos Repos) error {
		session, err := repos.Sessions.GetByIDForUpdate(ctx, input.SessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSessionNotFound
			}
			return err
		}
		if session.TrainerID != actor.ID {
			return ErrForbidden
		}
		if session.Status != models.SessionStatusBooked || !sessionEnded(session, date, clock) {
			return ErrInvalidStateTransition
		}

		approved, err := repos.Reservations.ListBySessionIDs(
			ctx,
			[]int64{session.ID},
			models.ReservationStatusApproved,
		)
		if err != nil {
			return err
		}
		if len(approved) == 0 {
			return ErrInvalidStateTransition
		}
		memberID := approved[0].MemberID

		member, err := repos.Members.GetByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrMemberNotFound
			}
			return err
		}
		if member.SessionsRemaining() == 0 {
			return ErrNoSessionsRemaining
		}

		created, err = repos.WorkoutLogs.Create(ctx, repository.CreateWorkoutLogInput{
			SessionID: session.ID,
			TrainerID: actor.ID,
			MemberID:  memberID,
			Notes:     notes,
			Exercises: exercises,
		})
		if err != nil {
			if pgErrorCode(err) == pgUniqueViolation {
				return ErrAlreadyLogged
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workout logged",
		zap.Int64("log_id", created.ID),
		zap.Int64("session_id", created.SessionID),
		zap.String("member_id", created.MemberID.String()),
	)
	return created, nil
}

// AcceptLog lets a member confirm a pending log written for them. The log
// turns accepted and one session credit is consumed, both or neither.
func (s *WorkoutLogService) AcceptLog(
	ctx context.Context,
	actor models.Identity,
	logID int64,
) (*models.WorkoutLog, error) {
	if !actor.IsMember() {
		return nil, ErrForbidden
	}
	if logID <= 0 {
		return nil, ErrInvalidInput
	}

	var (
		accepted *models.WorkoutLog
		member   *models.Member
	)
	err := s.store.InTx(ctx, func(repos Repos) error {
		log, err := repos.WorkoutLogs.GetByID(ctx, logID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrWorkoutLogNotFound
			}
			return err
		}
		if log.MemberID != actor.ID {
			return ErrForbidden
		}

		accepted, err = repos.WorkoutLogs.UpdateStatusIfCurrent(
			ctx,
			logID,
			models.WorkoutLogStatusPending,
			models.WorkoutLogStatusAccepted,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrLogAlreadyAccepted
			}
			return err
		}

		member, err = repos.Members.IncrementSessionsUsed(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNoSessionsRemaining
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workout log accepted",
		zap.Int64("log_id", accepted.ID),
		zap.String("member_id", accepted.MemberID.String()),
		zap.Int("sessions_remaining", member.SessionsRemaining()),
	)
	return accepted, nil
}

// ListMemberLogs returns a member's workout history. Members may read their
// own; trainers may read their members'.
func (s *WorkoutLogService) ListMemberLogs(
	ctx context.Context,
	actor models.Identity,
	memberID uuid.UUID,
) ([]models.WorkoutLog, error) {
	repos := s.store.Repos()
	switch {
	case actor.IsMember():
		if actor.ID != memberID {
			return nil, ErrForbidden
		}
	case actor.IsTrainer():
		member, err := repos.Members.GetByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrMemberNotFound
			}
			return nil, err
		}
		if member.TrainerID == nil || *member.TrainerID != actor.ID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	return repos.WorkoutLogs.ListByMember(ctx, memberID)
}
