package transfer

import (
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
)

type CampaignRequest struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Content       string                 `json:"content"`
	Platforms     []string               `json:"platforms"`
	MediaURLs     []string               `json:"media_urls"`
	CampaignType  string                 `json:"campaign_type"`
	ThreadsConfig *models.ThreadsConfig  `json:"threads_config"`
	Schedule      *models.ScheduleConfig `json:"schedule"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// CampaignResponse adds the derived fields the dashboard shows.
type CampaignResponse struct {
	*models.Campaign
	SuccessRate   int    `json:"success_rate"`
	DisplayStatus string `json:"display_status"`
	IsActive      bool   `json:"is_active"`
}

func NewCampaignResponse(c *models.Campaign, now time.Time) CampaignResponse {
	return CampaignResponse{
		Campaign:      c,
		SuccessRate:   c.SuccessRate(),
		DisplayStatus: c.DisplayStatus(now),
		IsActive:      c.IsActive(),
	}
}

type ScheduleResponse struct {
	CampaignID int64                 `json:"campaign_id"`
	Name       string                `json:"name"`
	Schedule   models.ScheduleConfig `json:"schedule"`
	NextPostAt *time.Time            `json:"next_post_at"`
}

type ShouldPostResponse struct {
	ShouldPost     bool       `json:"should_post"`
	NextPostTime   *time.Time `json:"next_post_time"`
	CurrentTime    time.Time  `json:"current_time"`
	ScheduleActive bool       `json:"schedule_active"`
}
