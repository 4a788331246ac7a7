package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// PostAttempt is an append-only record of one try at posting a campaign to one platform.
type PostAttempt struct {
	ID             int64      `db:"id" json:"id"`
	CampaignID     int64      `db:"campaign_id" json:"campaign_id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Platform       string     `db:"platform" json:"platform"`
	Attempt        int        `db:"attempt" json:"attempt"`
	Success        bool       `db:"success" json:"success"`
	PlatformPostID string     `db:"platform_post_id" json:"platform_post_id,omitempty"`
	ErrorMessage   string     `db:"error_message" json:"error_message,omitempty"`
	Content        string     `db:"content" json:"content"`
	Engagement     Engagement `db:"engagement" json:"engagement"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type Engagement struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
	Replies  int `json:"replies"`
}

// Value stores engagement as a jsonb document.
func (e Engagement) Value() (driver.Value, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (e *Engagement) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = Engagement{}
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return errors.New("engagement: unsupported column type")
	}
}

// CampaignRun is everything one orchestration run writes back in a single transaction.
type CampaignRun struct {
	CampaignID         int64
	ExpectedNextPostAt *time.Time
	Total              int
	Successful         int
	Mentions           int
	PostedAt           time.Time
	NextPostAt         *time.Time
	Attempts           []*PostAttempt
}
