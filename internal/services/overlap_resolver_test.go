package services

import (
	"testing"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/google/uuid"
)

const monday = "2025-11-03"

func existingSession(id int64, date, start, end, status string) models.Session {
	return models.Session{ID: id, Date: date, StartTime: start, EndTime: end, Status: status}
}

func TestClassifyOverlapsAssignsOneClassEach(t *testing.T) {
	// 08:00-11:00 selected with 2h sessions: one candidate 08:00-10:00 and an
	// unused tail up to 11:00.
	selection, err := PartitionSelection(
		cells("mon", "08:00", "08:30", "09:00", "09:30", "10:00", "10:30"),
		2,
		testWeek(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	existing := []models.Session{
		existingSession(1, monday, "07:30", "08:30", models.SessionStatusBooked),
		existingSession(2, monday, "08:30", "09:00", models.SessionStatusAvailable),
		existingSession(3, monday, "09:00", "10:00", models.SessionStatusAvailable),
		existingSession(4, monday, "10:00", "10:30", models.SessionStatusAvailable),
		existingSession(5, monday, "10:30", "11:30", models.SessionStatusAvailable),
		existingSession(6, monday, "11:30", "12:00", models.SessionStatusAvailable),
		existingSession(7, "2025-11-04", "09:00", "10:00", models.SessionStatusAvailable),
	}
	pending := []models.Reservation{
		{ID: 10, SessionID: 2, MemberID: uuid.New(), Status: models.ReservationStatusPending},
		{ID: 11, SessionID: 3, MemberID: uuid.New(), Status: models.ReservationStatusRejected},
	}

	report := ClassifyOverlaps(selection, existing, pending)

	want := map[int64]models.OverlapClass{
		1: models.OverlapBooked,
		2: models.OverlapPending,
		3: models.OverlapReplaceable,
		4: models.OverlapReplaceable,
		5: models.OverlapReplaceable,
		6: models.OverlapNone,
	}
	if len(report.Sessions) != len(want) {
		t.Fatalf("expected %d classified sessions, got %d", len(want), len(report.Sessions))
	}
	seen := map[int64]bool{}
	for _, cs := range report.Sessions {
		if seen[cs.Session.ID] {
			t.Fatalf("session %d classified twice", cs.Session.ID)
		}
		seen[cs.Session.ID] = true
		if cs.Class != want[cs.Session.ID] {
			t.Fatalf("session %d: expected %s, got %s", cs.Session.ID, want[cs.Session.ID], cs.Class)
		}
	}
	if got := len(report.Protected()); got != 2 {
		t.Fatalf("expected 2 protected sessions, got %d", got)
	}
}

func TestClassifyOverlapsDuplicate(t *testing.T) {
	selection, _ := PartitionSelection(cells("mon", "09:00", "09:30"), 1, testWeek())
	existing := []models.Session{existingSession(1, monday, "09:00", "10:00", models.SessionStatusAvailable)}

	report := ClassifyOverlaps(selection, existing, nil)
	if report.Sessions[0].Class != models.OverlapDuplicate {
		t.Fatalf("expected duplicate, got %s", report.Sessions[0].Class)
	}

	pending := []models.Reservation{{SessionID: 1, Status: models.ReservationStatusPending}}
	report = ClassifyOverlaps(selection, existing, pending)
	if report.Sessions[0].Class != models.OverlapPending {
		t.Fatalf("expected pending to win over duplicate, got %s", report.Sessions[0].Class)
	}
}

func TestPlanReconcileListsReplaceableOnly(t *testing.T) {
	selection, _ := PartitionSelection(cells("mon", "09:00", "09:30", "10:00", "10:30"), 1, testWeek())
	existing := []models.Session{
		existingSession(1, monday, "09:00", "10:00", models.SessionStatusAvailable),
		existingSession(2, monday, "10:00", "10:30", models.SessionStatusAvailable),
		existingSession(3, monday, "10:30", "11:00", models.SessionStatusBooked),
	}

	plan := PlanReconcile(selection, existing, nil)
	if len(plan.Delete) != 1 || plan.Delete[0] != 2 {
		t.Fatalf("expected only session 2 to be deletable, got %v", plan.Delete)
	}
}

func TestClassifyOverlapsRunShorterThanOneBlock(t *testing.T) {
	// A lone 14:00 cell yields no 1h block but is still a selected range.
	selection, err := PartitionSelection(
		append(cells("mon", "14:00"), cells("tue", "10:00", "10:30")...),
		1,
		testWeek(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selection.Ranges) != 2 || len(selection.Candidates) != 1 {
		t.Fatalf("expected 2 ranges and 1 candidate, got %+v", selection)
	}

	existing := []models.Session{
		existingSession(1, monday, "14:00", "15:00", models.SessionStatusAvailable),
		existingSession(2, monday, "13:00", "14:00", models.SessionStatusAvailable),
		existingSession(3, monday, "13:30", "14:30", models.SessionStatusBooked),
	}

	report := ClassifyOverlaps(selection, existing, nil)
	want := map[int64]models.OverlapClass{
		1: models.OverlapReplaceable,
		2: models.OverlapNone,
		3: models.OverlapBooked,
	}
	if len(report.Sessions) != len(want) {
		t.Fatalf("expected %d classified sessions, got %+v", len(want), report.Sessions)
	}
	for _, cs := range report.Sessions {
		if cs.Class != want[cs.Session.ID] {
			t.Fatalf("session %d: expected %s, got %s", cs.Session.ID, want[cs.Session.ID], cs.Class)
		}
	}
}

func TestSelectInserts(t *testing.T) {
	selection, _ := PartitionSelection(cells("mon", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30"), 1, testWeek())
	remaining := []models.Session{
		existingSession(1, monday, "09:00", "10:00", models.SessionStatusAvailable),
		existingSession(2, monday, "10:30", "11:00", models.SessionStatusBooked),
	}

	insert, blocked, duplicates := SelectInserts(selection.Candidates, remaining)
	if blocked != 1 || duplicates != 1 {
		t.Fatalf("expected 1 blocked and 1 duplicate, got %d and %d", blocked, duplicates)
	}
	if len(insert) != 1 || insert[0].StartTime != "11:00" {
		t.Fatalf("expected only 11:00 to be inserted, got %+v", insert)
	}
}

func TestMatchSlot(t *testing.T) {
	sessions := []models.Session{
		existingSession(1, monday, "09:00", "10:30", models.SessionStatusAvailable),
		existingSession(2, monday, "11:00", "12:00", models.SessionStatusBooked),
		existingSession(3, "2025-11-04", "10:00", "11:00", models.SessionStatusAvailable),
	}

	tests := []struct {
		date   string
		time   string
		wantID int64
		found  bool
	}{
		{monday, "09:00", 1, true},
		{monday, "10:00", 1, true},
		{monday, "10:30", 0, false},
		{monday, "11:30", 2, true},
		{"2025-11-04", "10:30", 3, true},
		{"2025-11-04", "09:30", 0, false},
	}
	for _, tt := range tests {
		got, ok := MatchSlot(sessions, tt.date, tt.time)
		if ok != tt.found || got.ID != tt.wantID {
			t.Fatalf("%s %s: expected (%d, %v), got (%d, %v)", tt.date, tt.time, tt.wantID, tt.found, got.ID, ok)
		}
	}
}
