package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maheshrc27/autoposter/internal/formatter"
	"github.com/maheshrc27/autoposter/internal/metrics"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/platform"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/scheduling"
	"github.com/maheshrc27/autoposter/internal/transfer"
	"github.com/maheshrc27/autoposter/pkg/logger"
)

// CampaignStore is the persistence the orchestrator needs.
type CampaignStore interface {
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	ApplyRun(ctx context.Context, run *models.CampaignRun) error
}

type CredentialResolver interface {
	Resolve(ctx context.Context, userID int64, platformName string) (platform.Credentials, error)
}

type MediaResolver interface {
	ResolveAll(ctx context.Context, refs []string) ([]string, error)
}

type MentionPicker interface {
	Select(ctx context.Context, c *models.Campaign, now time.Time) (formatter.Selection, error)
}

type PostingOptions struct {
	MaxAttempts    int
	RetryBackoff   time.Duration
	AdapterTimeout time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type PostingService interface {
	Run(ctx context.Context, campaignID int64) (*transfer.RunResult, error)
}

type postingService struct {
	store    CampaignStore
	creds    CredentialResolver
	media    MediaResolver
	mentions MentionPicker
	adapters *platform.Registry
	opts     PostingOptions
	log      *logger.Logger

	mu      sync.Mutex
	running map[int64]struct{}
}

func NewPostingService(
	store CampaignStore,
	creds CredentialResolver,
	media MediaResolver,
	mentions MentionPicker,
	adapters *platform.Registry,
	opts PostingOptions,
	log *logger.Logger) PostingService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 2
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &postingService{
		store:    store,
		creds:    creds,
		media:    media,
		mentions: mentions,
		adapters: adapters,
		opts:     opts,
		log:      log.WithComponent("posting"),
		running:  make(map[int64]struct{}),
	}
}

// platformTask is everything one platform goroutine hands back.
type platformTask struct {
	platform string
	outcome  transfer.PlatformOutcome
	attempts []*models.PostAttempt
}

// Run executes one campaign run: gate on the schedule, post to every target
// platform concurrently, then persist counters and attempts atomically.
//
// A campaign that is not due yields a result with Success false and a
// reason, not an error. Errors are only returned for a missing campaign,
// a concurrent run, or a store failure. In the store failure case the
// result is returned as well, downgraded to unsuccessful.
func (s *postingService) Run(ctx context.Context, campaignID int64) (*transfer.RunResult, error) {
	if !s.acquire(campaignID) {
		return nil, ErrRunInProgress
	}
	defer s.release(campaignID)

	started := time.Now()
	log := s.log.WithCampaignID(campaignID)

	c, err := s.store.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("%w: load campaign: %v", ErrStore, err)
	}

	now := s.opts.Clock()

	// Gated
	if reason, ready := gate(c, now); !ready {
		log.Debug().Str("reason", reason).Msg("campaign not ready")
		metrics.RecordRun("not_ready", time.Since(started).Seconds())
		return &transfer.RunResult{
			Success:     false,
			Reason:      reason,
			CampaignID:  c.ID,
			NextPostAt:  pendingDueTime(c, now),
			PerPlatform: map[string]transfer.PlatformOutcome{},
		}, nil
	}

	// Dispatching
	platforms := c.UniquePlatforms()
	mediaURLs, mediaErr := s.resolveMedia(ctx, c.MediaURLs)
	if mediaErr != nil {
		log.Warn().Err(mediaErr).Msg("media resolution failed")
	}

	tasks := make([]platformTask, len(platforms))
	var wg sync.WaitGroup
	for i, p := range platforms {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			tasks[i] = s.postToPlatform(ctx, c, p, mediaURLs, mediaErr, now)
		}(i, p)
	}
	wg.Wait()

	// Aggregating
	result := &transfer.RunResult{
		CampaignID:  c.ID,
		PerPlatform: make(map[string]transfer.PlatformOutcome, len(tasks)),
	}
	run := &models.CampaignRun{
		CampaignID:         c.ID,
		ExpectedNextPostAt: c.NextPostAt,
		PostedAt:           now,
	}
	for _, t := range tasks {
		result.PerPlatform[t.platform] = t.outcome
		run.Attempts = append(run.Attempts, t.attempts...)
		run.Total++
		if t.outcome.Success {
			run.Successful++
			run.Mentions += len(t.outcome.Mentions)
		}
	}
	result.Stats = transfer.NewRunStats(run.Total, run.Successful)

	// Persisting
	run.NextPostAt = scheduling.NextDueTime(c, now)
	result.NextPostAt = run.NextPostAt

	if err := s.store.ApplyRun(ctx, run); err != nil {
		log.Error().Err(err).Int("successful", run.Successful).Int("total", run.Total).Msg("failed to record campaign run")
		metrics.RecordRun("store_error", time.Since(started).Seconds())
		result.Success = false
		result.Reason = "failed to record run"
		return result, fmt.Errorf("%w: %w", ErrStore, err)
	}

	// Done
	result.Success = run.Successful > 0
	outcome := "failed"
	if result.Success {
		outcome = "posted"
	}
	metrics.RecordRun(outcome, time.Since(started).Seconds())

	log.Info().
		Int("successful", run.Successful).
		Int("total", run.Total).
		Interface("next_post_at", run.NextPostAt).
		Msg("campaign run finished")

	return result, nil
}

func gate(c *models.Campaign, now time.Time) (string, bool) {
	if !c.IsActive() {
		return "campaign not active", false
	}
	if !scheduling.IsDue(c, now) {
		return transfer.ReasonNotReady, false
	}
	return "", true
}

// pendingDueTime is the next due instant reported for a gated run.
func pendingDueTime(c *models.Campaign, now time.Time) *time.Time {
	if !c.IsActive() {
		return c.NextPostAt
	}
	switch c.Schedule.Type {
	case models.ScheduleTypeDaily, models.ScheduleTypeWeekly:
		return scheduling.NextDueTime(c, now)
	default:
		if c.NextPostAt != nil {
			return c.NextPostAt
		}
		return scheduling.NextDueTime(c, now)
	}
}

func (s *postingService) resolveMedia(ctx context.Context, refs []string) ([]string, error) {
	if s.media == nil || len(refs) == 0 {
		return refs, nil
	}
	return s.media.ResolveAll(ctx, refs)
}

func (s *postingService) postToPlatform(ctx context.Context, c *models.Campaign, name string, mediaURLs []string, mediaErr error, now time.Time) platformTask {
	task := platformTask{platform: name}
	log := s.log.WithCampaignID(c.ID).WithPlatform(name)

	fail := func(msg string) platformTask {
		log.Warn().Str("error", msg).Msg("platform post failed")
		metrics.RecordAttempt(name, false)
		task.outcome = transfer.PlatformOutcome{Error: msg, Attempts: 1}
		task.attempts = []*models.PostAttempt{s.attempt(c, name, 1, "", platform.Failure("%s", msg))}
		return task
	}

	adapter, ok := s.adapters.Get(name)
	if !ok {
		return fail(fmt.Sprintf("unsupported platform %q", name))
	}
	if mediaErr != nil {
		return fail(fmt.Sprintf("resolve media: %v", mediaErr))
	}

	creds, err := s.creds.Resolve(ctx, c.UserID, name)
	if err != nil {
		return fail(fmt.Sprintf("resolve credentials: %v", err))
	}

	var extras formatter.Extras
	if name == models.PlatformThreads && s.mentions != nil {
		sel, err := s.mentions.Select(ctx, c, now)
		if err != nil {
			log.Warn().Err(err).Msg("mention selection failed, posting without mentions")
		} else {
			extras = sel.Extras
			metrics.RecordMentions(len(extras.Mentions))
		}
	}

	// Formatting always starts from the stored content so retries never accumulate.
	content := formatter.Format(c.Content, name, extras)
	req := platform.PostRequest{Content: content, MediaURLs: mediaURLs, Credentials: creds}

	var res platform.Result
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		res = s.call(ctx, adapter, req)
		task.attempts = append(task.attempts, s.attempt(c, name, attempt, content, res))
		task.outcome.Attempts = attempt
		metrics.RecordAttempt(name, res.Success)

		if res.Success {
			break
		}
		log.Warn().Int("attempt", attempt).Str("error", res.Error).Msg("platform attempt failed")

		if attempt < s.opts.MaxAttempts {
			if err := sleep(ctx, s.opts.RetryBackoff); err != nil {
				break
			}
		}
	}

	task.outcome.Success = res.Success
	task.outcome.Error = res.Error
	task.outcome.PostID = res.PlatformPostID
	task.outcome.Engagement = res.Engagement
	task.outcome.Content = content
	task.outcome.Mentions = extras.Mentions
	return task
}

// call runs one adapter attempt under the per attempt timeout. An adapter
// that ignores its context is abandoned when the timeout fires, and a
// panicking adapter becomes a failed result.
func (s *postingService) call(ctx context.Context, a platform.Adapter, req platform.PostRequest) platform.Result {
	actx, cancel := context.WithTimeout(ctx, s.opts.AdapterTimeout)
	defer cancel()

	done := make(chan platform.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- platform.Failure("%s: adapter panic: %v", a.Name(), r)
			}
		}()
		done <- a.Post(actx, req)
	}()

	select {
	case res := <-done:
		return res
	case <-actx.Done():
		return platform.Failure("%s: %v", a.Name(), actx.Err())
	}
}

func (s *postingService) attempt(c *models.Campaign, name string, n int, content string, res platform.Result) *models.PostAttempt {
	return &models.PostAttempt{
		CampaignID:     c.ID,
		UserID:         c.UserID,
		Platform:       name,
		Attempt:        n,
		Success:        res.Success,
		PlatformPostID: res.PlatformPostID,
		ErrorMessage:   res.Error,
		Content:        content,
		Engagement:     res.Engagement,
		CreatedAt:      s.opts.Clock(),
	}
}

func (s *postingService) acquire(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[id]; busy {
		return false
	}
	s.running[id] = struct{}{}
	return true
}

func (s *postingService) release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
