package services

import (
	"context"
	"errors"
	"time"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/pkg/timegrid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// lastScheduleDate bounds open-ended session range queries.
const lastScheduleDate = "9999-12-31"

type ReservationService struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger
}

func NewReservationService(store Store, loc *time.Location, logger *zap.Logger) *ReservationService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{store: store, loc: loc, logger: logger}
}

// RequestReservation places a pending request by the member on one of their
// trainer's available sessions. The session row is locked for the duration,
// so two members racing for the same slot cannot both get a pending request.
func (s *ReservationService) RequestReservation(
	ctx context.Context,
	actor models.Identity,
	sessionID int64,
) (*models.Reservation, error) {
	if !actor.IsMember() {
		return nil, ErrForbidden
	}

	var created *models.Reservation
	err := s.store.InTx(ctx, func(repos Repos) error {
		member, err := repos.Members.GetByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrMemberNotFound
			}
			return err
		}

		session, err := repos.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSessionNotFound
			}
			return err
		}
		if member.TrainerID == nil || *member.TrainerID != session.TrainerID {
			return ErrForbidden
		}
		if session.Status != models.SessionStatusAvailable {
			return ErrSlotTaken
		}

		pending, err := repos.Reservations.ListBySessionIDs(ctx, []int64{sessionID}, models.ReservationStatusPending)
		if err != nil {
			return err
		}
		for _, r := range pending {
			if r.MemberID == actor.ID {
				return ErrAlreadyPending
			}
		}
		if len(pending) > 0 {
			return ErrSlotTaken
		}

		created, err = repos.Reservations.Create(ctx, sessionID, actor.ID)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return created, nil
}

// RequestReservationAt resolves a calendar cell of the member's trainer to a
// session and requests it.
func (s *ReservationService) RequestReservationAt(
	ctx context.Context,
	actor models.Identity,
	date string,
	hhmm string,
) (*models.Reservation, error) {
	if !actor.IsMember() {
		return nil, ErrForbidden
	}

	repos := s.store.Repos()
	trainerID, err := scheduleOwner(ctx, repos, actor)
	if err != nil {
		return nil, err
	}
	sessions, err := repos.Sessions.ListByTrainerInRange(ctx, trainerID, date, date)
	if err != nil {
		return nil, err
	}
	session, ok := MatchSlot(sessions, date, hhmm)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.RequestReservation(ctx, actor, session.ID)
}

// AcceptReservation approves a pending request and books its session in one
// transaction. sessionID may be zero, in which case the reservation's session
// is used. Rejecting the remaining pending requests on the session is best
// effort: its failure is logged and does not undo the acceptance.
func (s *ReservationService) AcceptReservation(
	ctx context.Context,
	actor models.Identity,
	reservationID int64,
	sessionID int64,
) (*models.Reservation, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}

	var (
		approved *models.Reservation
		rejected int64
	)
	err := s.store.InTx(ctx, func(repos Repos) error {
		reservation, err := repos.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrReservationNotFound
			}
			return err
		}
		if sessionID == 0 {
			sessionID = reservation.SessionID
		}
		if reservation.SessionID != sessionID {
			return ErrInvalidInput
		}

		// Lock the session first so concurrent accepts on it serialize here.
		session, err := repos.Sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSessionNotFound
			}
			return err
		}
		if session.TrainerID != actor.ID {
			return ErrForbidden
		}

		approved, err = repos.Reservations.UpdateStatusIfCurrent(
			ctx,
			reservationID,
			models.ReservationStatusPending,
			models.ReservationStatusApproved,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAlreadyHandled
			}
			return err
		}

		if _, err := repos.Sessions.UpdateStatusIfCurrent(
			ctx,
			sessionID,
			models.SessionStatusAvailable,
			models.SessionStatusBooked,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSessionUnavailable
			}
			return err
		}

		err = repos.Savepoint(ctx, func(sp Repos) error {
			n, err := sp.Reservations.RejectPendingExcept(ctx, sessionID, reservationID)
			rejected = n
			return err
		})
		if err != nil {
			rejected = 0
			s.logger.Warn("failed to reject sibling reservations",
				zap.Int64("reservation_id", reservationID),
				zap.Int64("session_id", sessionID),
				zap.Error(err),
			)
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("reservation accepted",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("session_id", sessionID),
		zap.Int64("siblings_rejected", rejected),
	)
	return approved, nil
}

// RejectReservation declines a pending request. A request that was already
// resolved is left as is and returned unchanged.
func (s *ReservationService) RejectReservation(
	ctx context.Context,
	actor models.Identity,
	reservationID int64,
) (*models.Reservation, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}

	repos := s.store.Repos()
	reservation, err := repos.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	session, err := repos.Sessions.GetByID(ctx, reservation.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.TrainerID != actor.ID {
		return nil, ErrForbidden
	}

	updated, err := repos.Reservations.UpdateStatusIfCurrent(
		ctx,
		reservationID,
		models.ReservationStatusPending,
		models.ReservationStatusRejected,
	)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	current, err := repos.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return current, nil
}

// ListPendingForTrainer returns the pending requests on the trainer's
// sessions from today on, with session and member details.
func (s *ReservationService) ListPendingForTrainer(
	ctx context.Context,
	actor models.Identity,
	from time.Time,
) ([]models.ReservationDetail, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}

	repos := s.store.Repos()
	fromDate := timegrid.FormatDate(from.In(s.loc))
	sessions, err := repos.Sessions.ListByTrainerInRange(ctx, actor.ID, fromDate, lastScheduleDate)
	if err != nil {
		return nil, err
	}
	pending, err := repos.Reservations.ListBySessionIDs(ctx, sessionIDs(sessions), models.ReservationStatusPending)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]uuid.UUID, 0, len(pending))
	for _, r := range pending {
		memberIDs = append(memberIDs, r.MemberID)
	}
	members, err := repos.Members.ListByIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	return joinReservations(pending, sessions, members), nil
}

func (s *ReservationService) ListForMember(
	ctx context.Context,
	actor models.Identity,
) ([]models.ReservationDetail, error) {
	if !actor.IsMember() {
		return nil, ErrForbidden
	}

	repos := s.store.Repos()
	reservations, err := repos.Reservations.ListByMember(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(reservations))
	for _, r := range reservations {
		ids = append(ids, r.SessionID)
	}
	sessions, err := repos.Sessions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return joinReservations(reservations, sessions, nil), nil
}

func joinReservations(
	reservations []models.Reservation,
	sessions []models.Session,
	members map[uuid.UUID]models.Member,
) []models.ReservationDetail {
	sessionsByID := make(map[int64]models.Session, len(sessions))
	for _, session := range sessions {
		sessionsByID[session.ID] = session
	}

	details := make([]models.ReservationDetail, 0, len(reservations))
	for _, r := range reservations {
		detail := models.ReservationDetail{Reservation: r}
		if session, ok := sessionsByID[r.SessionID]; ok {
			sessionCopy := session
			detail.Session = &sessionCopy
		}
		if member, ok := members[r.MemberID]; ok {
			info := member.Info()
			detail.Member = &info
		}
		details = append(details, detail)
	}
	return details
}
