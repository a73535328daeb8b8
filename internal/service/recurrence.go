package service

import (
	"time"

	"daytracker/internal/model"
)

// weeklyScanDays bounds the weekly search; past it the fallback applies.
const weeklyScanDays = 14

// CalculateNextRun returns the template's next fire time after now. The
// template is not modified.
//
// Monthly schedules clamp dayOfMonth to the length of the target month, so
// the 31st fires on Feb 28/29, Apr 30, and so on.
func CalculateNextRun(tpl *model.Template, now time.Time) time.Time {
	rec := tpl.Recurrence
	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}
	loc := now.Location()
	hour, minute := rec.Time.Hour, rec.Time.Minute
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)

	switch rec.Type {
	case model.RecurWeekly:
		days := []int(rec.DaysOfWeek)
		if len(days) == 0 {
			days = []int{int(time.Monday)}
		}
		for i := 0; i < weeklyScanDays; i++ {
			check := candidate.AddDate(0, 0, i)
			if hasWeekday(days, check.Weekday()) && check.After(now) {
				return check
			}
		}
		return candidate.AddDate(0, 0, 7*interval)

	case model.RecurMonthly:
		day := rec.DayOfMonth
		if day < 1 {
			day = 1
		}
		next := onDayOfMonth(now.Year(), now.Month(), day, hour, minute, loc)
		if !next.After(now) {
			next = onDayOfMonth(now.Year(), now.Month()+time.Month(interval), day, hour, minute, loc)
		}
		return next

	default:
		// daily and custom
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, interval)
		}
		return candidate
	}
}

func hasWeekday(days []int, wd time.Weekday) bool {
	for _, d := range days {
		if d == int(wd) {
			return true
		}
	}
	return false
}

// onDayOfMonth builds the instant for day in (year, month), clamping day to
// the month's last day. month may overflow 12.
func onDayOfMonth(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, hour, minute, 0, 0, loc)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, 0, 0, loc)
}
