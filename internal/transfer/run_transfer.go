package transfer

import (
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
)

const ReasonNotReady = "not ready"

// RunResult is what a campaign run reports back, serialized as is by the API.
type RunResult struct {
	Success     bool                       `json:"success"`
	Reason      string                     `json:"reason,omitempty"`
	CampaignID  int64                      `json:"campaign_id"`
	NextPostAt  *time.Time                 `json:"next_post_at,omitempty"`
	PerPlatform map[string]PlatformOutcome `json:"per_platform"`
	Stats       RunStats                   `json:"stats"`
}

type PlatformOutcome struct {
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	PostID     string            `json:"post_id,omitempty"`
	Attempts   int               `json:"attempts"`
	Content    string            `json:"content,omitempty"`
	Mentions   []string          `json:"mentions,omitempty"`
	Engagement models.Engagement `json:"engagement"`
}

type RunStats struct {
	Total       int     `json:"total"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

func NewRunStats(total, successful int) RunStats {
	s := RunStats{Total: total, Successful: successful, Failed: total - successful}
	if total > 0 {
		s.SuccessRate = float64(successful) / float64(total)
	}
	return s
}
