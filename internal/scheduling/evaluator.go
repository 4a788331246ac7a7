package scheduling

import (
	"sort"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
)

const clockLayout = "15:04"

// IsDue reports whether the campaign's schedule allows a post at now.
// Checks short-circuit in order: schedule toggle, start date, end date,
// day of week, then the mode specific rule.
//
// Daily and weekly schedules match the current minute exactly against
// PostingTimes, so callers have to poll at least once a minute. A slot
// already posted in the current minute is not due again.
func IsDue(c *models.Campaign, now time.Time) bool {
	s := c.Schedule

	if !s.IsScheduleActive {
		return false
	}
	if s.ScheduledStartDate != nil && now.Before(*s.ScheduledStartDate) {
		return false
	}
	if s.ScheduledEndDate != nil && now.After(*s.ScheduledEndDate) {
		return false
	}

	local := now.In(s.Location())
	if !dayAllowed(s.Days(), isoWeekday(local)) {
		return false
	}

	switch s.Type {
	case models.ScheduleTypeDaily, models.ScheduleTypeWeekly:
		// a slot posts once even when polled twice within its minute
		if c.LastPostedAt != nil && c.LastPostedAt.Truncate(time.Minute).Equal(now.Truncate(time.Minute)) {
			return false
		}
		current := local.Format(clockLayout)
		for _, t := range s.Times() {
			if t == current {
				return true
			}
		}
		return false
	default:
		return c.NextPostAt == nil || !now.Before(*c.NextPostAt)
	}
}

// NextDueTime returns the next instant the campaign becomes due after now,
// or nil when a daily/weekly schedule has no allowed day within a week.
func NextDueTime(c *models.Campaign, now time.Time) *time.Time {
	s := c.Schedule

	switch s.Type {
	case models.ScheduleTypeDaily, models.ScheduleTypeWeekly:
		return nextSlot(s, now)
	default:
		next := now.Add(s.Interval())
		return &next
	}
}

func nextSlot(s models.ScheduleConfig, now time.Time) *time.Time {
	slots := sortedSlots(s.Times())
	if len(slots) == 0 {
		return nil
	}

	loc := s.Location()
	local := now.In(loc)
	days := s.Days()
	year, month, day := local.Date()

	if dayAllowed(days, isoWeekday(local)) {
		for _, sl := range slots {
			candidate := time.Date(year, month, day, sl.hour, sl.minute, 0, 0, loc)
			if candidate.After(local) {
				return &candidate
			}
		}
	}

	for offset := 1; offset <= 7; offset++ {
		candidate := time.Date(year, month, day+offset, slots[0].hour, slots[0].minute, 0, 0, loc)
		if dayAllowed(days, isoWeekday(candidate)) {
			return &candidate
		}
	}

	return nil
}

type slot struct {
	hour   int
	minute int
}

// sortedSlots parses HH:MM entries, dropping malformed ones.
func sortedSlots(times []string) []slot {
	slots := make([]slot, 0, len(times))
	for _, t := range times {
		if !clockPattern.MatchString(t) {
			continue
		}
		parsed, err := time.Parse(clockLayout, t)
		if err != nil {
			continue
		}
		slots = append(slots, slot{hour: parsed.Hour(), minute: parsed.Minute()})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].hour != slots[j].hour {
			return slots[i].hour < slots[j].hour
		}
		return slots[i].minute < slots[j].minute
	})
	return slots
}

// isoWeekday maps time.Weekday onto Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func dayAllowed(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
