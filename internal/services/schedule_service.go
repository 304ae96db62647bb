package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/pkg/timegrid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ScheduleService struct {
	store  Store
	grid   timegrid.Grid
	loc    *time.Location
	logger *zap.Logger
}

func NewScheduleService(store Store, grid timegrid.Grid, loc *time.Location, logger *zap.Logger) *ScheduleService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{store: store, grid: grid, loc: loc, logger: logger}
}

// PublishInput is one week's cell selection. Week may be any date inside the
// target week.
type PublishInput struct {
	Week               time.Time
	Cells              []models.Cell
	SessionLengthHours float64
	ConfirmReplace     bool
}

type PublishPreview struct {
	Ranges     []models.SelectionRange   `json:"ranges"`
	Candidates []models.SessionCandidate `json:"candidates"`
	Report     models.OverlapReport      `json:"overlaps"`
}

func (s *ScheduleService) selectionFor(input PublishInput) (models.Selection, error) {
	if len(input.Cells) == 0 {
		return models.Selection{}, ErrEmptySelection
	}
	for _, cell := range input.Cells {
		if !s.grid.Contains(cell.Time) {
			return models.Selection{}, fmt.Errorf("%w: %s is outside the schedule grid", ErrInvalidInput, cell.Time)
		}
	}
	days := timegrid.WeekDays(timegrid.MondayOf(input.Week.In(s.loc)))
	return PartitionSelection(input.Cells, input.SessionLengthHours, days)
}

// Preview partitions the selection and classifies the overlaps without
// writing anything.
func (s *ScheduleService) Preview(
	ctx context.Context,
	actor models.Identity,
	input PublishInput,
) (*PublishPreview, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	selection, err := s.selectionFor(input)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	existing, pending, err := loadWindow(ctx, repos, actor.ID, selection.Ranges)
	if err != nil {
		return nil, err
	}
	return &PublishPreview{
		Ranges:     selection.Ranges,
		Candidates: selection.Candidates,
		Report:     ClassifyOverlaps(selection, existing, pending),
	}, nil
}

func (s *ScheduleService) Publish(
	ctx context.Context,
	actor models.Identity,
	input PublishInput,
) (*models.ReconcileResult, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	selection, err := s.selectionFor(input)
	if err != nil {
		return nil, err
	}
	return s.ReconcileAndPersist(ctx, actor, selection, input.ConfirmReplace)
}

// ReconcileAndPersist writes the selection's candidates as available
// sessions. Replaceable sessions under any selected range are deleted only
// with confirmReplace; booked and pending sessions are never touched and
// block the candidates they intersect. Everything runs in one transaction.
func (s *ScheduleService) ReconcileAndPersist(
	ctx context.Context,
	actor models.Identity,
	selection models.Selection,
	confirmReplace bool,
) (*models.ReconcileResult, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	if len(selection.Ranges) == 0 {
		return &models.ReconcileResult{Nothing: true, Sessions: []models.Session{}}, nil
	}
	candidates := selection.Candidates

	var result models.ReconcileResult
	err := s.store.InTx(ctx, func(repos Repos) error {
		existing, pending, err := loadWindow(ctx, repos, actor.ID, selection.Ranges)
		if err != nil {
			return err
		}

		plan := PlanReconcile(selection, existing, pending)
		if len(plan.Delete) > 0 && !confirmReplace {
			protected := make([]models.ClassifiedSession, 0)
			for _, cs := range plan.Report.Sessions {
				if cs.Class == models.OverlapPending || cs.Class == models.OverlapBooked {
					protected = append(protected, cs)
				}
			}
			return &ConfirmationRequiredError{
				Replaceable: plan.Report.Replaceable(),
				Protected:   protected,
			}
		}

		deleted, err := repos.Sessions.DeleteAvailable(ctx, actor.ID, plan.Delete)
		if err != nil {
			return err
		}

		insert, blocked, duplicates := SelectInserts(candidates, withoutSessions(existing, deleted))
		inserted, err := repos.Sessions.InsertAvailable(ctx, actor.ID, insert)
		if err != nil {
			return err
		}

		result = models.ReconcileResult{
			Inserted:   len(inserted),
			Skipped:    blocked + duplicates,
			Deleted:    len(deleted),
			Blocked:    blocked,
			Duplicates: duplicates,
			Nothing:    len(inserted) == 0 && len(deleted) == 0,
			Sessions:   inserted,
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("schedule published",
		zap.String("trainer_id", actor.ID.String()),
		zap.Int("ranges", len(selection.Ranges)),
		zap.Int("candidates", len(candidates)),
		zap.Int("inserted", result.Inserted),
		zap.Int("deleted", result.Deleted),
		zap.Int("blocked", result.Blocked),
		zap.Int("duplicates", result.Duplicates),
	)
	return &result, nil
}

// DeleteSessions removes the trainer's available sessions that carry no
// pending or approved reservation. Every other requested id is reported as
// protected.
func (s *ScheduleService) DeleteSessions(
	ctx context.Context,
	actor models.Identity,
	sessionIDs []int64,
) (*models.DeleteSessionsResult, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	if len(sessionIDs) == 0 {
		return nil, fmt.Errorf("%w: no sessions selected", ErrInvalidInput)
	}

	deleted, err := s.store.Repos().Sessions.DeleteAvailable(ctx, actor.ID, sessionIDs)
	if err != nil {
		return nil, err
	}

	gone := make(map[int64]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}
	protected := make([]int64, 0)
	for _, id := range sessionIDs {
		if !gone[id] {
			protected = append(protected, id)
		}
	}
	return &models.DeleteSessionsResult{Deleted: deleted, Protected: protected}, nil
}

// WeekSchedule returns the grid for the week containing day. Trainers see
// their own sessions; members see their trainer's, with other members'
// pending requests anonymised.
func (s *ScheduleService) WeekSchedule(
	ctx context.Context,
	actor models.Identity,
	day time.Time,
) (*models.WeekSchedule, error) {
	repos := s.store.Repos()
	trainerID, err := scheduleOwner(ctx, repos, actor)
	if err != nil {
		return nil, err
	}

	monday := timegrid.MondayOf(day.In(s.loc))
	days := timegrid.WeekDays(monday)
	sessions, err := repos.Sessions.ListByTrainerInRange(ctx, trainerID, days[0].Date, days[len(days)-1].Date)
	if err != nil {
		return nil, err
	}

	pending, err := repos.Reservations.ListBySessionIDs(ctx, sessionIDs(sessions), models.ReservationStatusPending)
	if err != nil {
		return nil, err
	}
	if actor.IsMember() {
		for i := range pending {
			if pending[i].MemberID != actor.ID {
				pending[i].MemberID = uuid.Nil
			}
		}
	}

	return &models.WeekSchedule{
		Monday:       timegrid.FormatDate(monday),
		Days:         days,
		Times:        s.grid.Times(),
		Sessions:     sessions,
		Reservations: pending,
	}, nil
}

func scheduleOwner(ctx context.Context, repos Repos, actor models.Identity) (uuid.UUID, error) {
	switch {
	case actor.IsTrainer():
		return actor.ID, nil
	case actor.IsMember():
		member, err := repos.Members.GetByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return uuid.Nil, ErrMemberNotFound
			}
			return uuid.Nil, err
		}
		if member.TrainerID == nil {
			return uuid.Nil, fmt.Errorf("%w: member has no trainer", ErrForbidden)
		}
		return *member.TrainerID, nil
	default:
		return uuid.Nil, ErrForbidden
	}
}

// loadWindow reads the trainer's sessions on the selected dates and the
// pending reservations on them.
func loadWindow(
	ctx context.Context,
	repos Repos,
	trainerID uuid.UUID,
	ranges []models.SelectionRange,
) ([]models.Session, []models.Reservation, error) {
	if len(ranges) == 0 {
		return []models.Session{}, []models.Reservation{}, nil
	}
	from, to := ranges[0].Date, ranges[0].Date
	for _, r := range ranges[1:] {
		if r.Date < from {
			from = r.Date
		}
		if r.Date > to {
			to = r.Date
		}
	}

	existing, err := repos.Sessions.ListByTrainerInRange(ctx, trainerID, from, to)
	if err != nil {
		return nil, nil, err
	}
	pending, err := repos.Reservations.ListBySessionIDs(ctx, sessionIDs(existing), models.ReservationStatusPending)
	if err != nil {
		return nil, nil, err
	}
	return existing, pending, nil
}

func sessionIDs(sessions []models.Session) []int64 {
	ids := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}
