package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/internal/repository"
	"github.com/2002jaebin-rgb/PTLog/pkg/timegrid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type memData struct {
	sessions      map[int64]models.Session
	reservations  map[int64]models.Reservation
	members       map[uuid.UUID]models.Member
	logs          map[int64]models.WorkoutLog
	nextSession   int64
	nextReserve   int64
	nextWorkoutID int64
}

func (d *memData) clone() *memData {
	c := &memData{
		sessions:      make(map[int64]models.Session, len(d.sessions)),
		reservations:  make(map[int64]models.Reservation, len(d.reservations)),
		members:       make(map[uuid.UUID]models.Member, len(d.members)),
		logs:          make(map[int64]models.WorkoutLog, len(d.logs)),
		nextSession:   d.nextSession,
		nextReserve:   d.nextReserve,
		nextWorkoutID: d.nextWorkoutID,
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.reservations {
		c.reservations[k] = v
	}
	for k, v := range d.members {
		c.members[k] = v
	}
	for k, v := range d.logs {
		c.logs[k] = v
	}
	return c
}

// memStore is an in-memory Store. Transactions are serialized by one mutex
// and roll back by restoring a snapshot.
type memStore struct {
	mu   sync.Mutex
	data *memData

	rejectSiblingsErr error
	insertErr         error
	// beforeDelete runs inside DeleteAvailable, standing in for a writer
	// that commits between classification and deletion.
	beforeDelete func(d *memData)
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		sessions:     map[int64]models.Session{},
		reservations: map[int64]models.Reservation{},
		members:      map[uuid.UUID]models.Member{},
		logs:         map[int64]models.WorkoutLog{},
	}}
}

func (s *memStore) Repos() Repos {
	return s.view(false)
}

func (s *memStore) InTx(ctx context.Context, fn func(Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.view(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *memStore) view(inTx bool) Repos {
	v := &memView{store: s, inTx: inTx}
	repos := Repos{
		Sessions:     &memSessions{v},
		Reservations: &memReservations{v},
		Members:      &memMembers{v},
		WorkoutLogs:  &memWorkoutLogs{v},
	}
	if inTx {
		repos.savepoint = func(_ context.Context, fn func(Repos) error) error {
			snapshot := s.data.clone()
			if err := fn(s.view(true)); err != nil {
				s.data = snapshot
				return err
			}
			return nil
		}
	}
	return repos
}

type memView struct {
	store *memStore
	inTx  bool
}

// with runs fn against the current data, taking the store lock unless the
// caller already holds it through a transaction.
func (v *memView) with(fn func(d *memData)) {
	if !v.inTx {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	fn(v.store.data)
}

// seeding helpers

func (s *memStore) addMember(trainerID uuid.UUID, total, used int) models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	tid := trainerID
	m := models.Member{
		ID:            uuid.New(),
		TrainerID:     &tid,
		Name:          "member",
		Email:         "member@example.com",
		SessionsTotal: total,
		SessionsUsed:  used,
	}
	s.data.members[m.ID] = m
	return m
}

func (s *memStore) addSession(trainerID uuid.UUID, date, start, end, status string) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.nextSession++
	session := models.Session{
		ID:            s.data.nextSession,
		TrainerID:     trainerID,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		SessionLength: float64(timegrid.TimeToMinutes(end)-timegrid.TimeToMinutes(start)) / 60,
		Status:        status,
		CreatedAt:     time.Now(),
	}
	s.data.sessions[session.ID] = session
	return session
}

func (s *memStore) addReservation(sessionID int64, memberID uuid.UUID, status string) models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.nextReserve++
	r := models.Reservation{
		ID:              s.data.nextReserve,
		SessionID:       sessionID,
		MemberID:        memberID,
		Status:          status,
		ReservationTime: time.Now(),
	}
	s.data.reservations[r.ID] = r
	return r
}

func (s *memStore) session(id int64) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.data.sessions[id]
	return session, ok
}

func (s *memStore) reservation(id int64) models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.reservations[id]
}

func (s *memStore) member(id uuid.UUID) models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.members[id]
}

func (s *memStore) workoutLog(id int64) models.WorkoutLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.logs[id]
}

func (s *memStore) trainerSessions(trainerID uuid.UUID) []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Session, 0)
	for _, session := range s.data.sessions {
		if session.TrainerID == trainerID {
			out = append(out, session)
		}
	}
	sortSessions(out)
	return out
}

func (s *memStore) reservationsOn(sessionID int64) []models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Reservation, 0)
	for _, r := range s.data.reservations {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out
}

func sortSessions(sessions []models.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date < sessions[j].Date
		}
		if sessions[i].StartTime != sessions[j].StartTime {
			return sessions[i].StartTime < sessions[j].StartTime
		}
		return sessions[i].ID < sessions[j].ID
	})
}

type memSessions struct{ v *memView }

func (r *memSessions) GetByID(_ context.Context, id int64) (*models.Session, error) {
	var (
		session models.Session
		ok      bool
	)
	r.v.with(func(d *memData) { session, ok = d.sessions[id] })
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &session, nil
}

func (r *memSessions) GetByIDForUpdate(ctx context.Context, id int64) (*models.Session, error) {
	return r.GetByID(ctx, id)
}

func (r *memSessions) ListByIDs(_ context.Context, ids []int64) ([]models.Session, error) {
	out := make([]models.Session, 0, len(ids))
	r.v.with(func(d *memData) {
		for _, id := range ids {
			if session, ok := d.sessions[id]; ok {
				out = append(out, session)
			}
		}
	})
	sortSessions(out)
	return out, nil
}

func (r *memSessions) ListByTrainerInRange(_ context.Context, trainerID uuid.UUID, from, to string) ([]models.Session, error) {
	out := make([]models.Session, 0)
	r.v.with(func(d *memData) {
		for _, session := range d.sessions {
			if session.TrainerID == trainerID && session.Date >= from && session.Date <= to {
				out = append(out, session)
			}
		}
	})
	sortSessions(out)
	return out, nil
}

func (r *memSessions) ListBookedEndedBy(_ context.Context, trainerID uuid.UUID, date, clock string) ([]models.Session, error) {
	out := make([]models.Session, 0)
	r.v.with(func(d *memData) {
		for _, session := range d.sessions {
			if session.TrainerID != trainerID || session.Status != models.SessionStatusBooked {
				continue
			}
			if session.Date < date || (session.Date == date && session.EndTime <= clock) {
				out = append(out, session)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].StartTime > out[j].StartTime
	})
	return out, nil
}

func (r *memSessions) InsertAvailable(_ context.Context, trainerID uuid.UUID, candidates []models.SessionCandidate) ([]models.Session, error) {
	if r.v.store.insertErr != nil {
		return nil, r.v.store.insertErr
	}
	out := make([]models.Session, 0, len(candidates))
	var err error
	r.v.with(func(d *memData) {
		for _, c := range candidates {
			start, end := timegrid.TimeToMinutes(c.StartTime), timegrid.TimeToMinutes(c.EndTime)
			for _, existing := range d.sessions {
				if existing.TrainerID == trainerID && existing.Date == c.Date &&
					timegrid.Overlaps(start, end, timegrid.TimeToMinutes(existing.StartTime), timegrid.TimeToMinutes(existing.EndTime)) {
					err = errors.New("sessions_no_overlap violated")
					return
				}
			}
			d.nextSession++
			session := models.Session{
				ID:            d.nextSession,
				TrainerID:     trainerID,
				Date:          c.Date,
				StartTime:     c.StartTime,
				EndTime:       c.EndTime,
				SessionLength: c.SessionLength,
				Status:        models.SessionStatusAvailable,
				CreatedAt:     time.Now(),
			}
			d.sessions[session.ID] = session
			out = append(out, session)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memSessions) DeleteAvailable(_ context.Context, trainerID uuid.UUID, ids []int64) ([]int64, error) {
	deleted := make([]int64, 0, len(ids))
	r.v.with(func(d *memData) {
		if r.v.store.beforeDelete != nil {
			r.v.store.beforeDelete(d)
		}
		for _, id := range ids {
			session, ok := d.sessions[id]
			if !ok || session.TrainerID != trainerID || session.Status != models.SessionStatusAvailable {
				continue
			}
			referenced := false
			for _, res := range d.reservations {
				if res.SessionID == id && (res.Status == models.ReservationStatusPending || res.Status == models.ReservationStatusApproved) {
					referenced = true
					break
				}
			}
			if referenced {
				continue
			}
			delete(d.sessions, id)
			deleted = append(deleted, id)
		}
	})
	return deleted, nil
}

func (r *memSessions) UpdateStatusIfCurrent(_ context.Context, id int64, current, next string) (*models.Session, error) {
	var (
		session models.Session
		ok      bool
	)
	r.v.with(func(d *memData) {
		session, ok = d.sessions[id]
		if !ok || session.Status != current {
			ok = false
			return
		}
		session.Status = next
		d.sessions[id] = session
	})
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &session, nil
}

type memReservations struct{ v *memView }

func (r *memReservations) Create(_ context.Context, sessionID int64, memberID uuid.UUID) (*models.Reservation, error) {
	var (
		res models.Reservation
		dup bool
	)
	r.v.with(func(d *memData) {
		for _, existing := range d.reservations {
			if existing.SessionID == sessionID && existing.Status == models.ReservationStatusPending {
				dup = true
				return
			}
		}
		d.nextReserve++
		res = models.Reservation{
			ID:              d.nextReserve,
			SessionID:       sessionID,
			MemberID:        memberID,
			Status:          models.ReservationStatusPending,
			ReservationTime: time.Now(),
		}
		d.reservations[res.ID] = res
	})
	if dup {
		return nil, uniqueViolation("uq_reservations_one_pending")
	}
	return &res, nil
}

func (r *memReservations) GetByID(_ context.Context, id int64) (*models.Reservation, error) {
	var (
		res models.Reservation
		ok  bool
	)
	r.v.with(func(d *memData) { res, ok = d.reservations[id] })
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &res, nil
}

func (r *memReservations) ListBySessionIDs(_ context.Context, ids []int64, status string) ([]models.Reservation, error) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]models.Reservation, 0)
	r.v.with(func(d *memData) {
		for _, res := range d.reservations {
			if want[res.SessionID] && (status == "" || res.Status == status) {
				out = append(out, res)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memReservations) ListByMember(_ context.Context, memberID uuid.UUID) ([]models.Reservation, error) {
	out := make([]models.Reservation, 0)
	r.v.with(func(d *memData) {
		for _, res := range d.reservations {
			if res.MemberID == memberID {
				out = append(out, res)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memReservations) UpdateStatusIfCurrent(_ context.Context, id int64, current, next string) (*models.Reservation, error) {
	var (
		res models.Reservation
		ok  bool
	)
	r.v.with(func(d *memData) {
		res, ok = d.reservations[id]
		if !ok || res.Status != current {
			ok = false
			return
		}
		res.Status = next
		d.reservations[id] = res
	})
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &res, nil
}

// RejectPendingExcept applies its writes before returning an injected error,
// so tests can observe the savepoint undoing them.
func (r *memReservations) RejectPendingExcept(_ context.Context, sessionID, keepID int64) (int64, error) {
	var n int64
	r.v.with(func(d *memData) {
		for id, res := range d.reservations {
			if res.SessionID == sessionID && id != keepID && res.Status == models.ReservationStatusPending {
				res.Status = models.ReservationStatusRejected
				d.reservations[id] = res
				n++
			}
		}
	})
	if err := r.v.store.rejectSiblingsErr; err != nil {
		return 0, err
	}
	return n, nil
}

type memMembers struct{ v *memView }

func (r *memMembers) GetByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	var (
		member models.Member
		ok     bool
	)
	r.v.with(func(d *memData) { member, ok = d.members[id] })
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &member, nil
}

func (r *memMembers) ListByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error) {
	out := make(map[uuid.UUID]models.Member, len(ids))
	r.v.with(func(d *memData) {
		for _, id := range ids {
			if member, ok := d.members[id]; ok {
				out[id] = member
			}
		}
	})
	return out, nil
}

func (r *memMembers) ListByTrainer(_ context.Context, trainerID uuid.UUID) ([]models.Member, error) {
	out := make([]models.Member, 0)
	r.v.with(func(d *memData) {
		for _, member := range d.members {
			if member.TrainerID != nil && *member.TrainerID == trainerID {
				out = append(out, member)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *memMembers) IncrementSessionsUsed(_ context.Context, id uuid.UUID) (*models.Member, error) {
	var (
		member models.Member
		ok     bool
	)
	r.v.with(func(d *memData) {
		member, ok = d.members[id]
		if !ok || member.SessionsUsed >= member.SessionsTotal {
			ok = false
			return
		}
		member.SessionsUsed++
		d.members[id] = member
	})
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &member, nil
}

type memWorkoutLogs struct{ v *memView }

func (r *memWorkoutLogs) Create(_ context.Context, input repository.CreateWorkoutLogInput) (*models.WorkoutLog, error) {
	var (
		log models.WorkoutLog
		dup bool
	)
	r.v.with(func(d *memData) {
		for _, existing := range d.logs {
			if existing.SessionID == input.SessionID {
				dup = true
				return
			}
		}
		d.nextWorkoutID++
		log = models.WorkoutLog{
			ID:        d.nextWorkoutID,
			SessionID: input.SessionID,
			TrainerID: input.TrainerID,
			MemberID:  input.MemberID,
			Notes:     input.Notes,
			Exercises: input.Exercises,
			Status:    models.WorkoutLogStatusPending,
			CreatedAt: time.Now(),
		}
		d.logs[log.ID] = log
	})
	if dup {
		return nil, uniqueViolation("workout_logs_session_id_key")
	}
	return &log, nil
}

func (r *memWorkoutLogs) GetByID(_ context.Context, id int64) (*models.WorkoutLog, error) {
	var (
		log models.WorkoutLog
		ok  bool
	)
	r.v.with(func(d *memData) { log, ok = d.logs[id] })
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &log, nil
}

func (r *memWorkoutLogs) UpdateStatusIfCurrent(_ context.Context, id int64, current, next string) (*models.WorkoutLog, error) {
	var (
		log models.WorkoutLog
		ok  bool
	)
	r.v.with(func(d *memData) {
		log, ok = d.logs[id]
		if !ok || log.Status != current {
			ok = false
			return
		}
		log.Status = next
		d.logs[id] = log
	})
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &log, nil
}

func (r *memWorkoutLogs) ListByMember(_ context.Context, memberID uuid.UUID) ([]models.WorkoutLog, error) {
	out := make([]models.WorkoutLog, 0)
	r.v.with(func(d *memData) {
		for _, log := range d.logs {
			if log.MemberID == memberID {
				out = append(out, log)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memWorkoutLogs) LoggedSessionIDs(_ context.Context, ids []int64) (map[int64]bool, error) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[int64]bool)
	r.v.with(func(d *memData) {
		for _, log := range d.logs {
			if want[log.SessionID] {
				out[log.SessionID] = true
			}
		}
	})
	return out, nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraint}
}
