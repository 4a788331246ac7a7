package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maheshrc27/autoposter/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the campaign changed under a run, usually a second run got there first.
	ErrConflict = errors.New("campaign was modified concurrently")
)

type CampaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Campaign, error)
	ListSchedulable(ctx context.Context, now time.Time) ([]int64, error)
	Update(ctx context.Context, c *models.Campaign) error
	Delete(ctx context.Context, id int64) error
	ApplyRun(ctx context.Context, run *models.CampaignRun) error
}

type campaignRepository struct {
	db       *sqlx.DB
	attempts PostAttemptRepository
}

func NewCampaignRepository(db *sqlx.DB, attempts PostAttemptRepository) CampaignRepository {
	return &campaignRepository{db: db, attempts: attempts}
}

// campaignRow mirrors the campaigns table. Schedule fields are flattened
// into typed columns, the two free-form maps live in jsonb.
type campaignRow struct {
	ID                 int64          `db:"id"`
	UserID             int64          `db:"user_id"`
	Name               string         `db:"name"`
	Description        string         `db:"description"`
	Content            string         `db:"content"`
	Platforms          pq.StringArray `db:"platforms"`
	MediaURLs          pq.StringArray `db:"media_urls"`
	CampaignType       string         `db:"campaign_type"`
	Status             string         `db:"status"`
	TotalPosts         int            `db:"total_posts"`
	SuccessfulPosts    int            `db:"successful_posts"`
	TotalMentions      int            `db:"total_mentions"`
	LastPostedAt       sql.NullTime   `db:"last_posted_at"`
	NextPostAt         sql.NullTime   `db:"next_post_at"`
	LastMentionedAt    sql.NullTime   `db:"last_mentioned_at"`
	StartedAt          sql.NullTime   `db:"started_at"`
	StoppedAt          sql.NullTime   `db:"stopped_at"`
	ScheduleType       string         `db:"schedule_type"`
	IntervalMinutes    int            `db:"interval_minutes"`
	IntervalHours      int            `db:"interval_hours"`
	ScheduledStartDate sql.NullTime   `db:"scheduled_start_date"`
	ScheduledEndDate   sql.NullTime   `db:"scheduled_end_date"`
	DaysOfWeek         pq.Int64Array  `db:"days_of_week"`
	PostingTimes       pq.StringArray `db:"posting_times"`
	PlatformSchedules  jsonb          `db:"platform_schedules"`
	IsScheduleActive   bool           `db:"is_schedule_active"`
	Timezone           string         `db:"timezone"`
	ThreadsConfig      jsonb          `db:"threads_config"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

const campaignColumns = `
	id, user_id, name, description, content, platforms, media_urls,
	campaign_type, status, total_posts, successful_posts, total_mentions,
	last_posted_at, next_post_at, last_mentioned_at, started_at, stopped_at,
	schedule_type, interval_minutes, interval_hours, scheduled_start_date,
	scheduled_end_date, days_of_week, posting_times, platform_schedules,
	is_schedule_active, timezone, threads_config, created_at, updated_at`

func toRow(c *models.Campaign) (*campaignRow, error) {
	s := c.Schedule

	schedules, err := json.Marshal(s.PlatformSchedules)
	if err != nil {
		return nil, fmt.Errorf("encode platform schedules: %w", err)
	}

	var threads jsonb
	if c.ThreadsConfig != nil {
		threads, err = json.Marshal(c.ThreadsConfig)
		if err != nil {
			return nil, fmt.Errorf("encode threads config: %w", err)
		}
	}

	days := make(pq.Int64Array, 0, len(s.DaysOfWeek))
	for _, d := range s.DaysOfWeek {
		days = append(days, int64(d))
	}

	return &campaignRow{
		ID:                 c.ID,
		UserID:             c.UserID,
		Name:               c.Name,
		Description:        c.Description,
		Content:            c.Content,
		Platforms:          stringArray(c.Platforms),
		MediaURLs:          stringArray(c.MediaURLs),
		CampaignType:       c.CampaignType,
		Status:             c.Status,
		TotalPosts:         c.TotalPosts,
		SuccessfulPosts:    c.SuccessfulPosts,
		TotalMentions:      c.TotalMentions,
		LastPostedAt:       nullTime(c.LastPostedAt),
		NextPostAt:         nullTime(c.NextPostAt),
		LastMentionedAt:    nullTime(c.LastMentionedAt),
		StartedAt:          nullTime(c.StartedAt),
		StoppedAt:          nullTime(c.StoppedAt),
		ScheduleType:       s.Type,
		IntervalMinutes:    s.IntervalMinutes,
		IntervalHours:      s.IntervalHours,
		ScheduledStartDate: nullTime(s.ScheduledStartDate),
		ScheduledEndDate:   nullTime(s.ScheduledEndDate),
		DaysOfWeek:         days,
		PostingTimes:       stringArray(s.PostingTimes),
		PlatformSchedules:  schedules,
		IsScheduleActive:   s.IsScheduleActive,
		Timezone:           s.Timezone,
		ThreadsConfig:      threads,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}, nil
}

func (r *campaignRow) toModel() (*models.Campaign, error) {
	days := make([]int, 0, len(r.DaysOfWeek))
	for _, d := range r.DaysOfWeek {
		days = append(days, int(d))
	}

	c := &models.Campaign{
		ID:              r.ID,
		UserID:          r.UserID,
		Name:            r.Name,
		Description:     r.Description,
		Content:         r.Content,
		Platforms:       []string(r.Platforms),
		MediaURLs:       []string(r.MediaURLs),
		CampaignType:    r.CampaignType,
		Status:          r.Status,
		TotalPosts:      r.TotalPosts,
		SuccessfulPosts: r.SuccessfulPosts,
		TotalMentions:   r.TotalMentions,
		LastPostedAt:    timePtr(r.LastPostedAt),
		NextPostAt:      timePtr(r.NextPostAt),
		LastMentionedAt: timePtr(r.LastMentionedAt),
		StartedAt:       timePtr(r.StartedAt),
		StoppedAt:       timePtr(r.StoppedAt),
		Schedule: models.ScheduleConfig{
			Type:               r.ScheduleType,
			IntervalMinutes:    r.IntervalMinutes,
			IntervalHours:      r.IntervalHours,
			ScheduledStartDate: timePtr(r.ScheduledStartDate),
			ScheduledEndDate:   timePtr(r.ScheduledEndDate),
			DaysOfWeek:         days,
			PostingTimes:       []string(r.PostingTimes),
			IsScheduleActive:   r.IsScheduleActive,
			Timezone:           r.Timezone,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	if len(r.PlatformSchedules) > 0 {
		if err := json.Unmarshal(r.PlatformSchedules, &c.Schedule.PlatformSchedules); err != nil {
			return nil, fmt.Errorf("decode platform schedules: %w", err)
		}
	}
	if len(r.ThreadsConfig) > 0 && string(r.ThreadsConfig) != "null" {
		c.ThreadsConfig = &models.ThreadsConfig{}
		if err := json.Unmarshal(r.ThreadsConfig, c.ThreadsConfig); err != nil {
			return nil, fmt.Errorf("decode threads config: %w", err)
		}
	}

	return c, nil
}

func (r *campaignRepository) Create(ctx context.Context, c *models.Campaign) (int64, error) {
	row, err := toRow(c)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO campaigns (
			user_id, name, description, content, platforms, media_urls,
			campaign_type, status, next_post_at, started_at,
			schedule_type, interval_minutes, interval_hours, scheduled_start_date,
			scheduled_end_date, days_of_week, posting_times, platform_schedules,
			is_schedule_active, timezone, threads_config
		)
		VALUES (
			:user_id, :name, :description, :content, :platforms, :media_urls,
			:campaign_type, :status, :next_post_at, :started_at,
			:schedule_type, :interval_minutes, :interval_hours, :scheduled_start_date,
			:scheduled_end_date, :days_of_week, :posting_times, :platform_schedules,
			:is_schedule_active, :timezone, :threads_config
		)
		RETURNING id`

	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare campaign insert: %w", err)
	}
	defer stmt.Close()

	var id int64
	if err := stmt.GetContext(ctx, &id, row); err != nil {
		return 0, fmt.Errorf("insert campaign: %w", err)
	}
	return id, nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	var row campaignRow
	err := r.db.GetContext(ctx, &row, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get campaign %d: %w", id, err)
	}
	return row.toModel()
}

func (r *campaignRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Campaign, error) {
	var rows []campaignRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+campaignColumns+` FROM campaigns WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	campaigns := make([]*models.Campaign, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}

// ListSchedulable returns active campaigns that may be due at now. Daily and
// weekly schedules are always returned since their slot check needs the
// campaign timezone; the orchestrator makes the final call.
func (r *campaignRepository) ListSchedulable(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		SELECT id FROM campaigns
		WHERE status = 'active'
			AND is_schedule_active
			AND (scheduled_start_date IS NULL OR scheduled_start_date <= $1)
			AND (scheduled_end_date IS NULL OR scheduled_end_date >= $1)
			AND (
				schedule_type IN ('daily', 'weekly')
				OR next_post_at IS NULL
				OR next_post_at <= $1
			)
		ORDER BY id`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, now); err != nil {
		return nil, fmt.Errorf("list schedulable campaigns: %w", err)
	}
	return ids, nil
}

// Update writes every user editable field plus lifecycle timestamps.
// Counters are only ever changed by ApplyRun.
func (r *campaignRepository) Update(ctx context.Context, c *models.Campaign) error {
	row, err := toRow(c)
	if err != nil {
		return err
	}

	query := `
		UPDATE campaigns SET
			name = :name,
			description = :description,
			content = :content,
			platforms = :platforms,
			media_urls = :media_urls,
			campaign_type = :campaign_type,
			status = :status,
			next_post_at = :next_post_at,
			started_at = :started_at,
			stopped_at = :stopped_at,
			schedule_type = :schedule_type,
			interval_minutes = :interval_minutes,
			interval_hours = :interval_hours,
			scheduled_start_date = :scheduled_start_date,
			scheduled_end_date = :scheduled_end_date,
			days_of_week = :days_of_week,
			posting_times = :posting_times,
			platform_schedules = :platform_schedules,
			is_schedule_active = :is_schedule_active,
			timezone = :timezone,
			threads_config = :threads_config,
			updated_at = NOW()
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update campaign %d: %w", c.ID, err)
	}
	return expectOneRow(res)
}

// Delete removes the campaign only. Post attempts are kept for analytics.
func (r *campaignRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign %d: %w", id, err)
	}
	return expectOneRow(res)
}

// ApplyRun records a run in one transaction: counters, timestamps and all
// attempts. The update only applies if next_post_at still holds the value
// the run was gated on, otherwise ErrConflict is returned and nothing is written.
func (r *campaignRepository) ApplyRun(ctx context.Context, run *models.CampaignRun) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		UPDATE campaigns SET
			total_posts = total_posts + $2,
			successful_posts = successful_posts + $3,
			total_mentions = total_mentions + $4,
			last_mentioned_at = CASE WHEN $4 > 0 THEN $5 ELSE last_mentioned_at END,
			last_posted_at = $5,
			next_post_at = $6,
			updated_at = NOW()
		WHERE id = $1 AND next_post_at IS NOT DISTINCT FROM $7`

	res, err := tx.ExecContext(ctx, query,
		run.CampaignID,
		run.Total,
		run.Successful,
		run.Mentions,
		run.PostedAt,
		nullTime(run.NextPostAt),
		nullTime(run.ExpectedNextPostAt),
	)
	if err != nil {
		return fmt.Errorf("update campaign counters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign counters: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}

	for _, a := range run.Attempts {
		if _, err = r.attempts.Create(ctx, tx, a); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// jsonb carries raw JSON. lib/pq would send a plain []byte as bytea.
type jsonb []byte

func (j jsonb) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return string(j), nil
}

func (j *jsonb) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(jsonb(nil), v...)
	case string:
		*j = jsonb(v)
	default:
		return fmt.Errorf("jsonb: unsupported column type %T", src)
	}
	return nil
}

func stringArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
