package formatter

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
)

const (
	candidatePoolSize = 10
	trendingTagCount  = 3
)

// MentionSelector chooses the @handles and tags a Threads post carries.
type MentionSelector struct {
	directory Directory
	ledger    MentionLedger
}

func NewMentionSelector(directory Directory, ledger MentionLedger) *MentionSelector {
	return &MentionSelector{directory: directory, ledger: ledger}
}

// Selection is the outcome of a mention pass.
type Selection struct {
	Keywords   []string    `json:"keywords"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Extras     Extras      `json:"-"`
}

func (s Selection) Mentions() []string { return s.Extras.Mentions }

// Select ranks candidates for the campaign and reserves the winners in the
// ledger so no other post mentions them during the cooldown.
func (m *MentionSelector) Select(ctx context.Context, c *models.Campaign, now time.Time) (Selection, error) {
	cfg := c.Threads()
	sel, handles, err := m.candidates(ctx, c.Content, cfg)
	if err != nil {
		return sel, err
	}

	cooldown := time.Duration(cfg.MentionCooldownHours) * time.Hour
	reserved, err := m.ledger.Reserve(ctx, handles, cfg.MaxMentionsPerPost, cooldown, now)
	if err != nil {
		return sel, fmt.Errorf("reserve mentions: %w", err)
	}
	sel.Extras.Mentions = reserved
	return sel, nil
}

// Preview runs the same ranking as Select without touching the ledger.
// Handles still in cooldown are left out.
func (m *MentionSelector) Preview(ctx context.Context, content string, cfg *models.ThreadsConfig, now time.Time) (Selection, error) {
	if cfg == nil {
		cfg = models.DefaultThreadsConfig()
	}
	sel, handles, err := m.candidates(ctx, content, cfg)
	if err != nil {
		return sel, err
	}

	cooldown := time.Duration(cfg.MentionCooldownHours) * time.Hour
	recent, err := m.ledger.Recent(ctx, now.Add(-cooldown))
	if err != nil {
		return sel, fmt.Errorf("load recent mentions: %w", err)
	}
	blocked := make(map[string]struct{}, len(recent))
	for _, r := range recent {
		blocked[r.Handle] = struct{}{}
	}

	for _, h := range handles {
		if len(sel.Extras.Mentions) == cfg.MaxMentionsPerPost {
			break
		}
		if _, ok := blocked[h]; ok {
			continue
		}
		sel.Extras.Mentions = append(sel.Extras.Mentions, h)
	}
	return sel, nil
}

// Recent lists mentions made since the given instant, newest first.
func (m *MentionSelector) Recent(ctx context.Context, since time.Time) ([]Mention, error) {
	return m.ledger.Recent(ctx, since)
}

func (m *MentionSelector) candidates(ctx context.Context, content string, cfg *models.ThreadsConfig) (Selection, []string, error) {
	keywords := cfg.SearchKeywords
	if len(keywords) == 0 {
		keywords = ExtractKeywords(content)
	}

	sel := Selection{Keywords: keywords}
	if cfg.IncludeTrendingTags {
		sel.Extras.TrendingTags = TrendingTags(trendingTagCount)
	}

	found, err := m.directory.Search(ctx, keywords, candidatePoolSize)
	if err != nil {
		return sel, nil, fmt.Errorf("search mention candidates: %w", err)
	}
	sel.Candidates = found

	handles := make([]string, 0, len(found))
	for _, f := range found {
		handles = append(handles, f.Username)
	}
	return sel, handles, nil
}
