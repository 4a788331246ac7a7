package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/autoposter/internal/formatter"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type ThreadsService interface {
	Preview(ctx context.Context, req transfer.ThreadsPreviewRequest) (*transfer.ThreadsPreviewResponse, error)
	MentionAnalytics(ctx context.Context, window time.Duration) (*transfer.MentionAnalytics, error)
}

type threadsService struct {
	mentions *formatter.MentionSelector
	clock    func() time.Time
}

func NewThreadsService(mentions *formatter.MentionSelector) ThreadsService {
	return &threadsService{mentions: mentions, clock: time.Now}
}

// Preview shows what a Threads post would look like without reserving mentions.
func (s *threadsService) Preview(ctx context.Context, req transfer.ThreadsPreviewRequest) (*transfer.ThreadsPreviewResponse, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("%w: content: cannot be blank", ErrInvalidCampaign)
	}

	cfg := models.DefaultThreadsConfig()
	cfg.SearchKeywords = req.SearchKeywords
	if req.MaxMentionsPerPost != nil {
		cfg.MaxMentionsPerPost = *req.MaxMentionsPerPost
	}
	if req.MentionCooldownHours > 0 {
		cfg.MentionCooldownHours = req.MentionCooldownHours
	}
	if req.IncludeTrendingTags != nil {
		cfg.IncludeTrendingTags = *req.IncludeTrendingTags
	}
	if err := validateThreadsConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCampaign, err)
	}

	sel, err := s.mentions.Preview(ctx, req.Content, cfg, s.clock())
	if err != nil {
		return nil, err
	}

	return &transfer.ThreadsPreviewResponse{
		Content:      formatter.Format(req.Content, models.PlatformThreads, sel.Extras),
		Keywords:     sel.Keywords,
		Candidates:   sel.Candidates,
		Mentions:     nonNil(sel.Mentions()),
		TrendingTags: nonNil(sel.Extras.TrendingTags),
	}, nil
}

func (s *threadsService) MentionAnalytics(ctx context.Context, window time.Duration) (*transfer.MentionAnalytics, error) {
	recent, err := s.mentions.Recent(ctx, s.clock().Add(-window))
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []formatter.Mention{}
	}
	return &transfer.MentionAnalytics{
		TotalUsersMentioned: len(recent),
		RecentMentions:      recent,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
