package scheduling

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/maheshrc27/autoposter/internal/models"
)

const (
	MinIntervalMinutes = 60
	MaxIntervalMinutes = 10080
	MaxIntervalHours   = 168
)

var ErrInvalidSchedule = errors.New("invalid schedule")

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var scheduleTypes = []interface{}{
	models.ScheduleTypeInterval,
	models.ScheduleTypeDaily,
	models.ScheduleTypeWeekly,
	models.ScheduleTypeCustom,
}

// WithDefaults fills the fields a client may omit. Explicitly empty
// slices are kept so Validate can reject them.
func WithDefaults(s models.ScheduleConfig) models.ScheduleConfig {
	def := models.DefaultSchedule()
	if s.Type == "" {
		s.Type = def.Type
	}
	if s.IntervalMinutes == 0 && s.IntervalHours == 0 {
		s.IntervalMinutes = def.IntervalMinutes
	}
	if s.DaysOfWeek == nil {
		s.DaysOfWeek = def.DaysOfWeek
	}
	if s.PostingTimes == nil {
		s.PostingTimes = def.PostingTimes
	}
	if s.Timezone == "" {
		s.Timezone = def.Timezone
	}
	return s
}

// Validate rejects malformed schedules before they are persisted.
// Any failure wraps ErrInvalidSchedule.
func Validate(s models.ScheduleConfig) error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.Required, validation.In(scheduleTypes...)),
		validation.Field(&s.IntervalMinutes, validation.Min(MinIntervalMinutes), validation.Max(MaxIntervalMinutes)),
		validation.Field(&s.IntervalHours, validation.Min(1), validation.Max(MaxIntervalHours)),
		validation.Field(&s.DaysOfWeek, validation.Required, validation.Each(validation.Required, validation.Min(1), validation.Max(7))),
		validation.Field(&s.PostingTimes, validation.Required, validation.Each(validation.Required, validation.Match(clockPattern).Error("must be HH:MM"))),
		validation.Field(&s.Timezone, validation.By(func(interface{}) error {
			if s.Timezone == "" {
				return nil
			}
			if _, err := time.LoadLocation(s.Timezone); err != nil {
				return errors.New("unknown timezone")
			}
			return nil
		})),
		validation.Field(&s.ScheduledEndDate, validation.By(func(interface{}) error {
			if s.ScheduledStartDate == nil || s.ScheduledEndDate == nil {
				return nil
			}
			if !s.ScheduledStartDate.Before(*s.ScheduledEndDate) {
				return errors.New("must be after scheduled_start_date")
			}
			return nil
		})),
		validation.Field(&s.PlatformSchedules, validation.By(func(interface{}) error {
			return validateOverrides(s.PlatformSchedules)
		})),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	return nil
}

func validateOverrides(overrides map[string]models.PlatformSchedule) error {
	for platform, o := range overrides {
		if !models.IsSupportedPlatform(platform) {
			return fmt.Errorf("unknown platform %q", platform)
		}
		err := validation.ValidateStruct(&o,
			validation.Field(&o.IntervalMinutes, validation.Min(MinIntervalMinutes), validation.Max(MaxIntervalMinutes)),
			validation.Field(&o.PostingTimes, validation.Each(validation.Required, validation.Match(clockPattern).Error("must be HH:MM"))),
		)
		if err != nil {
			return fmt.Errorf("%s: %v", platform, err)
		}
	}
	return nil
}
