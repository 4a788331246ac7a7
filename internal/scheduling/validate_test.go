package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maheshrc27/autoposter/internal/models"
)

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, Validate(models.DefaultSchedule()))
	assert.NoError(t, Validate(WithDefaults(models.ScheduleConfig{})))
}

func TestValidateRejectsMalformed(t *testing.T) {
	cases := map[string]func(s *models.ScheduleConfig){
		"unknown type":       func(s *models.ScheduleConfig) { s.Type = "hourly" },
		"empty days":         func(s *models.ScheduleConfig) { s.DaysOfWeek = []int{} },
		"day out of range":   func(s *models.ScheduleConfig) { s.DaysOfWeek = []int{1, 8} },
		"day zero":           func(s *models.ScheduleConfig) { s.DaysOfWeek = []int{0} },
		"empty times":        func(s *models.ScheduleConfig) { s.PostingTimes = []string{} },
		"bad time":           func(s *models.ScheduleConfig) { s.PostingTimes = []string{"25:00"} },
		"single digit hour":  func(s *models.ScheduleConfig) { s.PostingTimes = []string{"9:00"} },
		"interval too short": func(s *models.ScheduleConfig) { s.IntervalMinutes = 30 },
		"interval too long":  func(s *models.ScheduleConfig) { s.IntervalMinutes = 20000 },
		"unknown timezone":   func(s *models.ScheduleConfig) { s.Timezone = "Mars/Olympus" },
		"start after end": func(s *models.ScheduleConfig) {
			s.ScheduledStartDate = ptr(at(5, 0, 0))
			s.ScheduledEndDate = ptr(at(1, 0, 0))
		},
		"start equals end": func(s *models.ScheduleConfig) {
			s.ScheduledStartDate = ptr(at(1, 0, 0))
			s.ScheduledEndDate = ptr(at(1, 0, 0))
		},
		"override platform": func(s *models.ScheduleConfig) {
			s.PlatformSchedules = map[string]models.PlatformSchedule{"myspace": {}}
		},
		"override bad time": func(s *models.ScheduleConfig) {
			s.PlatformSchedules = map[string]models.PlatformSchedule{"twitter": {PostingTimes: []string{"x"}}}
		},
		"override short step": func(s *models.ScheduleConfig) {
			s.PlatformSchedules = map[string]models.PlatformSchedule{"twitter": {IntervalMinutes: 5}}
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := models.DefaultSchedule()
			mutate(&s)
			err := Validate(s)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
		})
	}
}

func TestValidateAcceptsWindowAndOverrides(t *testing.T) {
	s := models.DefaultSchedule()
	s.Type = models.ScheduleTypeCustom
	s.ScheduledStartDate = ptr(at(1, 0, 0))
	s.ScheduledEndDate = ptr(at(31, 0, 0))
	s.Timezone = "Europe/Berlin"
	s.PlatformSchedules = map[string]models.PlatformSchedule{
		models.PlatformThreads: {IntervalMinutes: 120, PostingTimes: []string{"08:30"}},
	}
	assert.NoError(t, Validate(s))
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	s := WithDefaults(models.ScheduleConfig{Type: models.ScheduleTypeDaily, PostingTimes: []string{"18:00"}, IntervalHours: 4})

	assert.Equal(t, models.ScheduleTypeDaily, s.Type)
	assert.Equal(t, []string{"18:00"}, s.PostingTimes)
	assert.Equal(t, 0, s.IntervalMinutes)
	assert.Equal(t, 4, s.IntervalHours)
	assert.Equal(t, models.AllDaysOfWeek, s.DaysOfWeek)
	assert.Equal(t, "UTC", s.Timezone)
}
