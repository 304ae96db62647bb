package services

import (
	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/pkg/timegrid"
)

// ReconcilePlan is the destructive half of a publish: what would be reported
// to the trainer and which sessions may be deleted.
type ReconcilePlan struct {
	Report models.OverlapReport
	Delete []int64
}

// ClassifyOverlaps puts every existing session on a selected date into
// exactly one overlap class. Overlap is tested against the raw selection
// ranges, so a session under the unused tail of a selection, or under a run
// too short for one block, is still replaceable.
func ClassifyOverlaps(
	selection models.Selection,
	existing []models.Session,
	pending []models.Reservation,
) models.OverlapReport {
	report := models.OverlapReport{Sessions: make([]models.ClassifiedSession, 0)}
	if len(selection.Ranges) == 0 {
		return report
	}

	hasPending := make(map[int64]bool, len(pending))
	for _, r := range pending {
		if r.Status == models.ReservationStatusPending {
			hasPending[r.SessionID] = true
		}
	}

	candidateKeys := make(map[string]bool, len(selection.Candidates))
	for _, c := range selection.Candidates {
		candidateKeys[c.Key()] = true
	}
	rangesByDate := make(map[string][]models.SelectionRange)
	for _, r := range selection.Ranges {
		rangesByDate[r.Date] = append(rangesByDate[r.Date], r)
	}

	for _, s := range existing {
		ranges, ok := rangesByDate[s.Date]
		if !ok {
			continue
		}
		report.Sessions = append(report.Sessions, models.ClassifiedSession{
			Session: s,
			Class:   classifySession(s, ranges, candidateKeys, hasPending),
		})
	}
	return report
}

func classifySession(
	s models.Session,
	ranges []models.SelectionRange,
	candidateKeys map[string]bool,
	hasPending map[int64]bool,
) models.OverlapClass {
	start, end := timegrid.TimeToMinutes(s.StartTime), timegrid.TimeToMinutes(s.EndTime)
	overlapping := candidateKeys[s.Key()]
	for _, r := range ranges {
		if timegrid.Overlaps(start, end, r.Start, r.End) {
			overlapping = true
			break
		}
	}
	if !overlapping {
		return models.OverlapNone
	}

	switch {
	case s.Status != models.SessionStatusAvailable:
		return models.OverlapBooked
	case hasPending[s.ID]:
		return models.OverlapPending
	case candidateKeys[s.Key()]:
		return models.OverlapDuplicate
	default:
		return models.OverlapReplaceable
	}
}

// PlanReconcile classifies existing sessions against the selection and lists
// the sessions a confirmed publish may delete.
func PlanReconcile(
	selection models.Selection,
	existing []models.Session,
	pending []models.Reservation,
) ReconcilePlan {
	report := ClassifyOverlaps(selection, existing, pending)
	replaceable := report.Replaceable()

	ids := make([]int64, 0, len(replaceable))
	for _, s := range replaceable {
		ids = append(ids, s.ID)
	}
	return ReconcilePlan{Report: report, Delete: ids}
}

// SelectInserts drops candidates that intersect a remaining session with a
// different key (blocked) and candidates whose key already exists or repeats
// (duplicates). The rest are safe to insert.
func SelectInserts(
	candidates []models.SessionCandidate,
	remaining []models.Session,
) (insert []models.SessionCandidate, blocked int, duplicates int) {
	existingKeys := make(map[string]bool, len(remaining))
	byDate := make(map[string][]models.Session)
	for _, s := range remaining {
		existingKeys[s.Key()] = true
		byDate[s.Date] = append(byDate[s.Date], s)
	}

	insert = make([]models.SessionCandidate, 0, len(candidates))
	queued := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		key := c.Key()
		start, end := timegrid.TimeToMinutes(c.StartTime), timegrid.TimeToMinutes(c.EndTime)

		isBlocked := false
		for _, s := range byDate[c.Date] {
			if s.Key() == key {
				continue
			}
			if timegrid.Overlaps(start, end, timegrid.TimeToMinutes(s.StartTime), timegrid.TimeToMinutes(s.EndTime)) {
				isBlocked = true
				break
			}
		}
		if isBlocked {
			blocked++
			continue
		}
		if existingKeys[key] || queued[key] {
			duplicates++
			continue
		}
		queued[key] = true
		insert = append(insert, c)
	}
	return insert, blocked, duplicates
}

func withoutSessions(sessions []models.Session, ids []int64) []models.Session {
	if len(ids) == 0 {
		return sessions
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if !drop[s.ID] {
			kept = append(kept, s)
		}
	}
	return kept
}

// MatchSlot finds the session on date covering the 30-minute cell starting at
// hhmm. Sessions of one trainer never overlap, so there is at most one.
func MatchSlot(sessions []models.Session, date, hhmm string) (models.Session, bool) {
	cellStart := timegrid.TimeToMinutes(hhmm)
	cellEnd := cellStart + timegrid.CellMinutes
	for _, s := range sessions {
		if s.Date != date {
			continue
		}
		if timegrid.Overlaps(cellStart, cellEnd, timegrid.TimeToMinutes(s.StartTime), timegrid.TimeToMinutes(s.EndTime)) {
			return s, true
		}
	}
	return models.Session{}, false
}
