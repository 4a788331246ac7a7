package models

import (
	"encoding/json"
	"math"
	"time"
)

const (
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformThreads   = "threads"
)

// SupportedPlatforms lists every platform a campaign can target, in display order.
var SupportedPlatforms = []string{
	PlatformFacebook,
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformInstagram,
	PlatformTikTok,
	PlatformThreads,
}

func IsSupportedPlatform(p string) bool {
	for _, s := range SupportedPlatforms {
		if s == p {
			return true
		}
	}
	return false
}

const (
	CampaignStatusDraft   = "draft"
	CampaignStatusActive  = "active"
	CampaignStatusPaused  = "paused"
	CampaignStatusStopped = "stopped"
)

const (
	CampaignTypeRegular         = "regular"
	CampaignTypeThreadsAdvanced = "threads_advanced"
)

const (
	ScheduleTypeInterval = "interval"
	ScheduleTypeDaily    = "daily"
	ScheduleTypeWeekly   = "weekly"
	ScheduleTypeCustom   = "custom"
)

const (
	DefaultIntervalMinutes      = 360
	DefaultMaxMentionsPerPost   = 2
	DefaultMentionCooldownHours = 24
)

var (
	DefaultPostingTimes = []string{"09:00"}
	AllDaysOfWeek       = []int{1, 2, 3, 4, 5, 6, 7}
)

type Campaign struct {
	ID              int64          `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	Content         string         `db:"content" json:"content"`
	Platforms       []string       `db:"platforms" json:"platforms"`
	MediaURLs       []string       `db:"media_urls" json:"media_urls"`
	CampaignType    string         `db:"campaign_type" json:"campaign_type"`
	Status          string         `db:"status" json:"status"` // draft, active, paused, stopped
	TotalPosts      int            `db:"total_posts" json:"total_posts"`
	SuccessfulPosts int            `db:"successful_posts" json:"successful_posts"`
	TotalMentions   int            `db:"total_mentions" json:"total_mentions"`
	LastPostedAt    *time.Time     `db:"last_posted_at" json:"last_posted_at"`
	NextPostAt      *time.Time     `db:"next_post_at" json:"next_post_at"`
	LastMentionedAt *time.Time     `db:"last_mentioned_at" json:"last_mentioned_at"`
	StartedAt       *time.Time     `db:"started_at" json:"started_at"`
	StoppedAt       *time.Time     `db:"stopped_at" json:"stopped_at"`
	Schedule        ScheduleConfig `json:"schedule"`
	ThreadsConfig   *ThreadsConfig `json:"threads_config,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

type ScheduleConfig struct {
	Type               string                      `json:"schedule_type"`
	IntervalMinutes    int                         `json:"interval_minutes"`
	IntervalHours      int                         `json:"interval_hours"`
	ScheduledStartDate *time.Time                  `json:"scheduled_start_date"`
	ScheduledEndDate   *time.Time                  `json:"scheduled_end_date"`
	DaysOfWeek         []int                       `json:"days_of_week"`
	PostingTimes       []string                    `json:"posting_times"`
	PlatformSchedules  map[string]PlatformSchedule `json:"platform_schedules,omitempty"`
	IsScheduleActive   bool                        `json:"is_schedule_active"`
	Timezone           string                      `json:"timezone"`
}

// UnmarshalJSON treats a missing is_schedule_active as true.
func (s *ScheduleConfig) UnmarshalJSON(b []byte) error {
	type plain ScheduleConfig
	var in struct {
		plain
		IsScheduleActive *bool `json:"is_schedule_active"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*s = ScheduleConfig(in.plain)
	s.IsScheduleActive = in.IsScheduleActive == nil || *in.IsScheduleActive
	return nil
}

// PlatformSchedule is a per-platform override, only meaningful for custom schedules.
type PlatformSchedule struct {
	IntervalMinutes int      `json:"interval_minutes,omitempty"`
	PostingTimes    []string `json:"posting_times,omitempty"`
}

type ThreadsConfig struct {
	SearchKeywords       []string `json:"search_keywords"`
	MaxMentionsPerPost   int      `json:"max_mentions_per_post"`
	MentionCooldownHours int      `json:"mention_cooldown_hours"`
	IncludeTrendingTags  bool     `json:"include_trending_tags"`
}

// DefaultSchedule is the schedule a new campaign starts with.
func DefaultSchedule() ScheduleConfig {
	return ScheduleConfig{
		Type:             ScheduleTypeInterval,
		IntervalMinutes:  DefaultIntervalMinutes,
		DaysOfWeek:       append([]int(nil), AllDaysOfWeek...),
		PostingTimes:     append([]string(nil), DefaultPostingTimes...),
		IsScheduleActive: true,
		Timezone:         "UTC",
	}
}

func DefaultThreadsConfig() *ThreadsConfig {
	return &ThreadsConfig{
		MaxMentionsPerPost:   DefaultMaxMentionsPerPost,
		MentionCooldownHours: DefaultMentionCooldownHours,
		IncludeTrendingTags:  true,
	}
}

// Interval returns the fixed cadence. Minutes win over hours; zero falls back to the default.
func (s ScheduleConfig) Interval() time.Duration {
	switch {
	case s.IntervalMinutes > 0:
		return time.Duration(s.IntervalMinutes) * time.Minute
	case s.IntervalHours > 0:
		return time.Duration(s.IntervalHours) * time.Hour
	default:
		return DefaultIntervalMinutes * time.Minute
	}
}

func (s ScheduleConfig) Days() []int {
	if len(s.DaysOfWeek) == 0 {
		return AllDaysOfWeek
	}
	return s.DaysOfWeek
}

func (s ScheduleConfig) Times() []string {
	if len(s.PostingTimes) == 0 {
		return DefaultPostingTimes
	}
	return s.PostingTimes
}

// Location resolves Timezone, defaulting to UTC for empty or unknown names.
func (s ScheduleConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Campaign) IsActive() bool {
	return c.Status == CampaignStatusActive
}

// UniquePlatforms returns the target platforms in order with duplicates removed.
func (c *Campaign) UniquePlatforms() []string {
	seen := make(map[string]struct{}, len(c.Platforms))
	out := make([]string, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SuccessRate is the rounded success percentage across all runs.
func (c *Campaign) SuccessRate() int {
	if c.TotalPosts == 0 {
		return 0
	}
	return int(math.Round(float64(c.SuccessfulPosts) / float64(c.TotalPosts) * 100))
}

// DisplayStatus is the human facing status shown by the dashboard.
func (c *Campaign) DisplayStatus(now time.Time) string {
	switch c.Status {
	case CampaignStatusActive:
		if c.NextPostAt != nil && now.After(*c.NextPostAt) {
			return "Ready to Post"
		}
		return "Running"
	case CampaignStatusPaused:
		return "Paused"
	case CampaignStatusStopped:
		return "Stopped"
	default:
		return "Draft"
	}
}

func (c *Campaign) Threads() *ThreadsConfig {
	if c.ThreadsConfig == nil {
		return DefaultThreadsConfig()
	}
	tc := *c.ThreadsConfig
	if tc.MentionCooldownHours <= 0 {
		tc.MentionCooldownHours = DefaultMentionCooldownHours
	}
	return &tc
}
