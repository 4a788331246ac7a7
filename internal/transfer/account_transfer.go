package transfer

import (
	"time"

	"github.com/maheshrc27/autoposter/internal/formatter"
)

// ConnectAccountRequest registers tokens obtained elsewhere. Either
// ExpiresIn (seconds) or ExpiresAt may be set.
type ConnectAccountRequest struct {
	Platform        string     `json:"platform"`
	AccountID       string     `json:"account_id"`
	AccountName     string     `json:"account_name"`
	AccountUsername string     `json:"account_username"`
	AccessToken     string     `json:"access_token"`
	RefreshToken    string     `json:"refresh_token"`
	ExpiresIn       int        `json:"expires_in"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

type ThreadsPreviewRequest struct {
	Content              string   `json:"content"`
	SearchKeywords       []string `json:"search_keywords"`
	MaxMentionsPerPost   *int     `json:"max_mentions_per_post"`
	MentionCooldownHours int      `json:"mention_cooldown_hours"`
	IncludeTrendingTags  *bool    `json:"include_trending_tags"`
}

type ThreadsPreviewResponse struct {
	Content      string                `json:"content"`
	Keywords     []string              `json:"keywords"`
	Candidates   []formatter.Candidate `json:"candidates"`
	Mentions     []string              `json:"mentions"`
	TrendingTags []string              `json:"trending_tags"`
}

type MentionAnalytics struct {
	TotalUsersMentioned int                 `json:"total_users_mentioned"`
	RecentMentions      []formatter.Mention `json:"recent_mentions"`
}
