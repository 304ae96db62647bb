package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/pkg/timegrid"
)

var allowedSessionMinutes = map[int]bool{30: true, 60: true, 90: true, 120: true}

// SessionLengthMinutes validates a session length given in hours.
func SessionLengthMinutes(hours float64) (int, error) {
	minutes := int(math.Round(hours * 60))
	if !allowedSessionMinutes[minutes] || math.Abs(hours*60-float64(minutes)) > 1e-6 {
		return 0, fmt.Errorf("%w: session length %gh not one of 0.5, 1, 1.5, 2", ErrInvalidInput, hours)
	}
	return minutes, nil
}

// MergeSelection turns the selected cells into contiguous ranges per date,
// in week order.
func MergeSelection(cells []models.Cell, days []timegrid.Day) ([]models.SelectionRange, error) {
	if len(cells) == 0 {
		return nil, ErrEmptySelection
	}

	dates := make(map[string]string, len(days))
	for _, day := range days {
		dates[day.Key] = day.Date
	}

	minutesByDay := make(map[string][]int)
	seen := make(map[string]bool, len(cells))
	for _, cell := range cells {
		if _, ok := dates[cell.Day]; !ok {
			return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidInput, cell.Day)
		}
		minute, err := timegrid.ParseClock(cell.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if minute%timegrid.CellMinutes != 0 {
			return nil, fmt.Errorf("%w: %s is not on a cell boundary", ErrInvalidInput, cell.Time)
		}
		key := cell.Day + "|" + timegrid.MinutesToTime(minute)
		if seen[key] {
			continue
		}
		seen[key] = true
		minutesByDay[cell.Day] = append(minutesByDay[cell.Day], minute)
	}

	ranges := make([]models.SelectionRange, 0)
	for _, day := range days {
		minutes := minutesByDay[day.Key]
		if len(minutes) == 0 {
			continue
		}
		sort.Ints(minutes)

		start := minutes[0]
		for i := 1; i <= len(minutes); i++ {
			if i < len(minutes) && minutes[i] == minutes[i-1]+timegrid.CellMinutes {
				continue
			}
			ranges = append(ranges, models.SelectionRange{
				Day:   day.Key,
				Date:  day.Date,
				Start: start,
				End:   minutes[i-1] + timegrid.CellMinutes,
			})
			if i < len(minutes) {
				start = minutes[i]
			}
		}
	}
	return ranges, nil
}

// PartitionRanges cuts every range into back-to-back blocks of lengthMinutes.
// A tail shorter than one block is dropped.
func PartitionRanges(ranges []models.SelectionRange, lengthMinutes int) []models.SessionCandidate {
	candidates := make([]models.SessionCandidate, 0)
	if lengthMinutes <= 0 {
		return candidates
	}
	hours := float64(lengthMinutes) / 60

	for _, r := range ranges {
		blocks := (r.End - r.Start) / lengthMinutes
		for i := 0; i < blocks; i++ {
			start := r.Start + i*lengthMinutes
			candidates = append(candidates, models.SessionCandidate{
				Date:          r.Date,
				StartTime:     timegrid.MinutesToTime(start),
				EndTime:       timegrid.MinutesToTime(start + lengthMinutes),
				SessionLength: hours,
				RangeStart:    timegrid.MinutesToTime(r.Start),
				RangeEnd:      timegrid.MinutesToTime(r.End),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Date != candidates[j].Date {
			return candidates[i].Date < candidates[j].Date
		}
		return candidates[i].StartTime < candidates[j].StartTime
	})
	return candidates
}

// PartitionSelection merges the cells and cuts the ranges into candidates.
// Every merged range is kept, including those that yield no candidate.
func PartitionSelection(
	cells []models.Cell,
	sessionLengthHours float64,
	days []timegrid.Day,
) (models.Selection, error) {
	lengthMinutes, err := SessionLengthMinutes(sessionLengthHours)
	if err != nil {
		return models.Selection{}, err
	}
	ranges, err := MergeSelection(cells, days)
	if err != nil {
		return models.Selection{}, err
	}
	return models.Selection{
		Ranges:     ranges,
		Candidates: PartitionRanges(ranges, lengthMinutes),
	}, nil
}
