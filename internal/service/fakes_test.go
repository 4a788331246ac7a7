package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"github.com/maheshrc27/autoposter/internal/formatter"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/platform"
	"github.com/maheshrc27/autoposter/internal/repository"
)

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// memStore is an in-memory CampaignRepository with the same run
// bookkeeping rules as the Postgres one.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	campaigns map[int64]*models.Campaign
	attempts  *memAttempts
	applyErr  error
}

func newMemStore() *memStore {
	return &memStore{campaigns: map[int64]*models.Campaign{}, attempts: &memAttempts{}}
}

func (s *memStore) put(c *models.Campaign) *models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	cp := *c
	s.campaigns[c.ID] = &cp
	return c
}

func (s *memStore) get(id int64) models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.campaigns[id]
}

// setNextPostAt changes the stored campaign behind a running orchestration.
func (s *memStore) setNextPostAt(id int64, t *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[id].NextPostAt = t
}

func (s *memStore) Create(_ context.Context, c *models.Campaign) (int64, error) {
	s.put(c)
	return c.ID, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) ListByUserID(_ context.Context, userID int64) ([]*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Campaign
	for _, c := range s.campaigns {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListSchedulable(_ context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, c := range s.campaigns {
		if c.IsActive() && c.Schedule.IsScheduleActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) Update(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.campaigns[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *c
	cp.TotalPosts, cp.SuccessfulPosts, cp.TotalMentions = old.TotalPosts, old.SuccessfulPosts, old.TotalMentions
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.campaigns, id)
	return nil
}

func (s *memStore) ApplyRun(ctx context.Context, run *models.CampaignRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	c, ok := s.campaigns[run.CampaignID]
	if !ok {
		return repository.ErrNotFound
	}
	if !sameTime(c.NextPostAt, run.ExpectedNextPostAt) {
		return repository.ErrConflict
	}

	c.TotalPosts += run.Total
	c.SuccessfulPosts += run.Successful
	c.TotalMentions += run.Mentions
	if run.Mentions > 0 {
		posted := run.PostedAt
		c.LastMentionedAt = &posted
	}
	posted := run.PostedAt
	c.LastPostedAt = &posted
	c.NextPostAt = run.NextPostAt

	for _, a := range run.Attempts {
		if _, err := s.attempts.Create(ctx, nil, a); err != nil {
			return err
		}
	}
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

type memAttempts struct {
	mu   sync.Mutex
	list []*models.PostAttempt
}

func (m *memAttempts) Create(_ context.Context, _ *sqlx.Tx, a *models.PostAttempt) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = int64(len(m.list) + 1)
	m.list = append(m.list, a)
	return a.ID, nil
}

func (m *memAttempts) ListByCampaignID(_ context.Context, campaignID int64, limit int) ([]*models.PostAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PostAttempt
	for _, a := range m.list {
		if a.CampaignID == campaignID {
			out = append(out, a)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memAttempts) forPlatform(name string) []*models.PostAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PostAttempt
	for _, a := range m.list {
		if a.Platform == name {
			out = append(out, a)
		}
	}
	return out
}

func (m *memAttempts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.list)
}

// scriptedAdapter answers each call with fn(call number).
type scriptedAdapter struct {
	name string
	fn   func(ctx context.Context, call int) platform.Result

	mu    sync.Mutex
	calls int
}

func (a *scriptedAdapter) Name() string { return a.name }

func (a *scriptedAdapter) Post(ctx context.Context, _ platform.PostRequest) platform.Result {
	a.mu.Lock()
	a.calls++
	n := a.calls
	a.mu.Unlock()
	return a.fn(ctx, n)
}

func (a *scriptedAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func succeeding(name string) *scriptedAdapter {
	return &scriptedAdapter{name: name, fn: func(context.Context, int) platform.Result {
		return platform.Result{Success: true, PlatformPostID: name + "_1"}
	}}
}

func failing(name string) *scriptedAdapter {
	return &scriptedAdapter{name: name, fn: func(context.Context, int) platform.Result {
		return platform.Failure("%s: rejected", name)
	}}
}

type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) Resolve(ctx context.Context, userID int64, platformName string) (platform.Credentials, error) {
	args := m.Called(ctx, userID, platformName)
	return args.Get(0).(platform.Credentials), args.Error(1)
}

func validCredentials() *MockCredentials {
	m := &MockCredentials{}
	m.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(platform.Credentials{
		AccountID: "acc",
		Token:     &oauth2.Token{AccessToken: "tok", Expiry: t0.Add(24 * time.Hour)},
	}, nil).Maybe()
	return m
}

type stubMentions struct {
	handles []string
}

func (s stubMentions) Select(context.Context, *models.Campaign, time.Time) (formatter.Selection, error) {
	return formatter.Selection{Extras: formatter.Extras{Mentions: s.handles}}, nil
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func activeCampaign(minutes int, platforms ...string) *models.Campaign {
	s := models.DefaultSchedule()
	s.IntervalMinutes = minutes
	return &models.Campaign{
		UserID:       7,
		Name:         "launch",
		Content:      "Ship it",
		Platforms:    platforms,
		CampaignType: models.CampaignTypeRegular,
		Status:       models.CampaignStatusActive,
		Schedule:     s,
	}
}
