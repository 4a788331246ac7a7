package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/scheduling"
	"github.com/maheshrc27/autoposter/internal/transfer"
	"github.com/maheshrc27/autoposter/pkg/logger"
)

const maxMentionsPerPost = 5

type CampaignService interface {
	Create(ctx context.Context, userID int64, req transfer.CampaignRequest) (*models.Campaign, error)
	Get(ctx context.Context, userID, id int64) (*models.Campaign, error)
	List(ctx context.Context, userID int64) ([]*models.Campaign, error)
	Update(ctx context.Context, userID, id int64, req transfer.CampaignRequest) (*models.Campaign, error)
	Delete(ctx context.Context, userID, id int64) error
	Start(ctx context.Context, userID, id int64) (*models.Campaign, error)
	Pause(ctx context.Context, userID, id int64) (*models.Campaign, error)
	Stop(ctx context.Context, userID, id int64) (*models.Campaign, error)
	UpdateStatus(ctx context.Context, userID, id int64, status string) (*models.Campaign, error)
	GetSchedule(ctx context.Context, userID, id int64) (*transfer.ScheduleResponse, error)
	UpdateSchedule(ctx context.Context, userID, id int64, s models.ScheduleConfig) (*transfer.ScheduleResponse, error)
	ShouldPost(ctx context.Context, userID, id int64) (*transfer.ShouldPostResponse, error)
	ListAttempts(ctx context.Context, userID, id int64, limit int) ([]*models.PostAttempt, error)
}

type campaignService struct {
	campaigns repository.CampaignRepository
	attempts  repository.PostAttemptRepository
	clock     func() time.Time
	log       *logger.Logger
}

func NewCampaignService(
	campaigns repository.CampaignRepository,
	attempts repository.PostAttemptRepository,
	clock func() time.Time,
	log *logger.Logger) CampaignService {
	if clock == nil {
		clock = time.Now
	}
	return &campaignService{
		campaigns: campaigns,
		attempts:  attempts,
		clock:     clock,
		log:       log.WithComponent("campaigns"),
	}
}

func (s *campaignService) Create(ctx context.Context, userID int64, req transfer.CampaignRequest) (*models.Campaign, error) {
	if err := validateCampaignRequest(req); err != nil {
		return nil, err
	}

	c := &models.Campaign{
		UserID:       userID,
		Status:       models.CampaignStatusDraft,
		CampaignType: models.CampaignTypeRegular,
		Schedule:     models.DefaultSchedule(),
	}
	if err := applyRequest(c, req); err != nil {
		return nil, err
	}

	id, err := s.campaigns.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%w: create campaign: %v", ErrStore, err)
	}
	c.ID = id

	s.log.WithCampaignID(id).Info().Int64("user_id", userID).Strs("platforms", c.Platforms).Msg("campaign created")
	return c, nil
}

func (s *campaignService) Get(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("%w: get campaign: %v", ErrStore, err)
	}
	// Someone else's campaign looks the same as a missing one.
	if c.UserID != userID {
		return nil, ErrCampaignNotFound
	}
	return c, nil
}

func (s *campaignService) List(ctx context.Context, userID int64) ([]*models.Campaign, error) {
	list, err := s.campaigns.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list campaigns: %v", ErrStore, err)
	}
	return list, nil
}

func (s *campaignService) Update(ctx context.Context, userID, id int64, req transfer.CampaignRequest) (*models.Campaign, error) {
	if err := validateCampaignRequest(req); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	rescheduled := req.Schedule != nil
	if err := applyRequest(c, req); err != nil {
		return nil, err
	}
	if rescheduled && c.IsActive() {
		c.NextPostAt = scheduling.NextDueTime(c, s.clock())
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *campaignService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.campaigns.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("%w: delete campaign: %v", ErrStore, err)
	}
	s.log.WithCampaignID(id).Info().Msg("campaign deleted")
	return nil
}

func (s *campaignService) Start(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	return s.UpdateStatus(ctx, userID, id, models.CampaignStatusActive)
}

func (s *campaignService) Pause(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	return s.UpdateStatus(ctx, userID, id, models.CampaignStatusPaused)
}

func (s *campaignService) Stop(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	return s.UpdateStatus(ctx, userID, id, models.CampaignStatusStopped)
}

// UpdateStatus moves a campaign through its lifecycle. Requesting the
// current status is a no-op.
func (s *campaignService) UpdateStatus(ctx context.Context, userID, id int64, status string) (*models.Campaign, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c.Status == status {
		return c, nil
	}
	if !canTransition(c.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, c.Status, status)
	}

	now := s.clock()
	from := c.Status
	c.Status = status
	switch status {
	case models.CampaignStatusActive:
		c.StartedAt = &now
		c.StoppedAt = nil
		c.NextPostAt = scheduling.NextDueTime(c, now)
	case models.CampaignStatusPaused:
		c.NextPostAt = nil
	case models.CampaignStatusStopped:
		c.StoppedAt = &now
		c.NextPostAt = nil
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.log.WithCampaignID(id).Info().Str("from", from).Str("to", status).Msg("campaign status changed")
	return c, nil
}

func (s *campaignService) GetSchedule(ctx context.Context, userID, id int64) (*transfer.ScheduleResponse, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return scheduleResponse(c), nil
}

func (s *campaignService) UpdateSchedule(ctx context.Context, userID, id int64, sc models.ScheduleConfig) (*transfer.ScheduleResponse, error) {
	sc = scheduling.WithDefaults(sc)
	if err := scheduling.Validate(sc); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	c.Schedule = sc
	if c.IsActive() {
		c.NextPostAt = scheduling.NextDueTime(c, s.clock())
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return scheduleResponse(c), nil
}

func (s *campaignService) ShouldPost(ctx context.Context, userID, id int64) (*transfer.ShouldPostResponse, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	return &transfer.ShouldPostResponse{
		ShouldPost:     scheduling.IsDue(c, now),
		NextPostTime:   scheduling.NextDueTime(c, now),
		CurrentTime:    now,
		ScheduleActive: c.Schedule.IsScheduleActive,
	}, nil
}

func (s *campaignService) ListAttempts(ctx context.Context, userID, id int64, limit int) ([]*models.PostAttempt, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	list, err := s.attempts.ListByCampaignID(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list attempts: %v", ErrStore, err)
	}
	return list, nil
}

func (s *campaignService) save(ctx context.Context, c *models.Campaign) error {
	if err := s.campaigns.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("%w: update campaign: %v", ErrStore, err)
	}
	return nil
}

func canTransition(from, to string) bool {
	switch to {
	case models.CampaignStatusActive:
		return from == models.CampaignStatusDraft || from == models.CampaignStatusPaused || from == models.CampaignStatusStopped
	case models.CampaignStatusPaused:
		return from == models.CampaignStatusActive
	case models.CampaignStatusStopped:
		return from == models.CampaignStatusDraft || from == models.CampaignStatusActive || from == models.CampaignStatusPaused
	}
	return false
}

func scheduleResponse(c *models.Campaign) *transfer.ScheduleResponse {
	return &transfer.ScheduleResponse{
		CampaignID: c.ID,
		Name:       c.Name,
		Schedule:   c.Schedule,
		NextPostAt: c.NextPostAt,
	}
}

// applyRequest copies a validated request onto c.
func applyRequest(c *models.Campaign, req transfer.CampaignRequest) error {
	c.Name = req.Name
	c.Description = req.Description
	c.Content = req.Content
	c.Platforms = dedupe(req.Platforms)
	c.MediaURLs = req.MediaURLs
	if req.CampaignType != "" {
		c.CampaignType = req.CampaignType
	}
	if req.ThreadsConfig != nil {
		tc := *req.ThreadsConfig
		c.ThreadsConfig = &tc
	} else if c.ThreadsConfig == nil && c.CampaignType == models.CampaignTypeThreadsAdvanced {
		c.ThreadsConfig = models.DefaultThreadsConfig()
	}

	if req.Schedule != nil {
		sc := scheduling.WithDefaults(*req.Schedule)
		if err := scheduling.Validate(sc); err != nil {
			return err
		}
		c.Schedule = sc
	}
	return nil
}

func validateCampaignRequest(req transfer.CampaignRequest) error {
	platforms := make([]interface{}, len(models.SupportedPlatforms))
	for i, p := range models.SupportedPlatforms {
		platforms[i] = p
	}

	err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Content, validation.Required),
		validation.Field(&req.Platforms, validation.Required, validation.Each(validation.Required, validation.In(platforms...))),
		validation.Field(&req.MediaURLs, validation.Each(validation.Required)),
		validation.Field(&req.CampaignType, validation.In(models.CampaignTypeRegular, models.CampaignTypeThreadsAdvanced)),
		validation.Field(&req.ThreadsConfig, validation.By(validateThreadsConfig)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCampaign, err)
	}
	return nil
}

func validateThreadsConfig(value interface{}) error {
	tc, _ := value.(*models.ThreadsConfig)
	if tc == nil {
		return nil
	}
	return validation.ValidateStruct(tc,
		validation.Field(&tc.MaxMentionsPerPost, validation.Min(0), validation.Max(maxMentionsPerPost)),
		validation.Field(&tc.MentionCooldownHours, validation.Min(0)),
		validation.Field(&tc.SearchKeywords, validation.Each(validation.Required)),
	)
}

func dedupe(in []string) []string {
	c := models.Campaign{Platforms: in}
	return c.UniquePlatforms()
}
