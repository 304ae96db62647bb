// Package timegrid converts between wall-clock strings, minute offsets and
// the 30-minute calendar cells of a weekly schedule grid.
package timegrid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	CellMinutes = 30
	DateLayout  = "2006-01-02"
)

var dayKeys = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var dayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Day is one column of the weekly grid.
type Day struct {
	Key   string `json:"key"`
	Date  string `json:"date"`
	Label string `json:"label"`
}

type Grid struct {
	StartHour int
	EndHour   int
}

var DefaultGrid = Grid{StartHour: 6, EndHour: 23}

func (g Grid) Validate() error {
	if g.StartHour < 0 || g.EndHour > 24 || g.StartHour >= g.EndHour {
		return fmt.Errorf("invalid grid window %02d:00-%02d:00", g.StartHour, g.EndHour)
	}
	return nil
}

// Times lists the start time of every cell in [StartHour, EndHour).
func (g Grid) Times() []string {
	times := make([]string, 0, (g.EndHour-g.StartHour)*60/CellMinutes)
	for m := g.StartHour * 60; m < g.EndHour*60; m += CellMinutes {
		times = append(times, MinutesToTime(m))
	}
	return times
}

// Contains reports whether hhmm starts a cell inside the grid window.
func (g Grid) Contains(hhmm string) bool {
	if !validClock(hhmm) {
		return false
	}
	m := TimeToMinutes(hhmm)
	return m%CellMinutes == 0 && m >= g.StartHour*60 && m < g.EndHour*60
}

// TimeToMinutes parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Empty or malformed input yields 0.
func TimeToMinutes(hhmm string) int {
	hourPart, minutePart, ok := clockFields(hhmm)
	if !ok {
		return 0
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0
	}
	return hour*60 + minute
}

func MinutesToTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock is the strict counterpart of TimeToMinutes.
func ParseClock(hhmm string) (int, error) {
	if !validClock(hhmm) {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return TimeToMinutes(hhmm), nil
}

// clockFields returns the hour and minute fields of "H:MM", "HH:MM" or
// "HH:MM:SS". Seconds are ignored.
func clockFields(hhmm string) (string, string, bool) {
	fields := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(fields) < 2 || len(fields) > 3 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func validClock(hhmm string) bool {
	hourPart, minutePart, ok := clockFields(hhmm)
	if !ok || len(minutePart) != 2 {
		return false
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 24 {
		return false
	}
	minute, err := strconv.Atoi(minutePart)
	return err == nil && minute >= 0 && minute < 60
}

// MondayOf returns midnight of the Monday starting the week that contains t.
// Sunday belongs to the week of the preceding Monday.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

func WeekDays(monday time.Time) []Day {
	days := make([]Day, 0, 7)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		days = append(days, Day{
			Key:   dayKeys[i],
			Date:  FormatDate(d),
			Label: fmt.Sprintf("%d/%d(%s)", int(d.Month()), d.Day(), dayLabels[i]),
		})
	}
	return days
}

// DayKeyOf returns the grid key ("mon" ... "sun") of a date.
func DayKeyOf(t time.Time) string {
	return dayKeys[(int(t.Weekday())+6)%7]
}

func IsDayKey(key string) bool {
	for _, k := range dayKeys {
		if k == key {
			return true
		}
	}
	return false
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}
