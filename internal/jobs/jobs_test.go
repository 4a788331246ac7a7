package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/pkg/logger"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListSchedulable(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *MockLister) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error) {
	args := m.Called(ctx, from, to)
	accounts, _ := args.Get(0).([]*models.SocialAccount)
	return accounts, args.Error(1)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueRun(ctx context.Context, campaignID int64) (bool, error) {
	args := m.Called(ctx, campaignID)
	return args.Bool(0), args.Error(1)
}

var now = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestEnqueueDue(t *testing.T) {
	lister := &MockLister{}
	lister.On("ListSchedulable", mock.Anything, now).Return([]int64{1, 2, 3}, nil)

	enq := &MockEnqueuer{}
	enq.On("EnqueueRun", mock.Anything, int64(1)).Return(true, nil)
	enq.On("EnqueueRun", mock.Anything, int64(2)).Return(false, errors.New("redis down"))
	enq.On("EnqueueRun", mock.Anything, int64(3)).Return(false, nil)

	j := NewDueCampaignJob(lister, enq, logger.Nop())
	j.clock = func() time.Time { return now }

	n, err := j.EnqueueDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	enq.AssertNumberOfCalls(t, "EnqueueRun", 3)
}

func TestEnqueueDueListError(t *testing.T) {
	lister := &MockLister{}
	lister.On("ListSchedulable", mock.Anything, mock.Anything).Return(nil, errors.New("db gone"))

	enq := &MockEnqueuer{}
	j := NewDueCampaignJob(lister, enq, logger.Nop())

	_, err := j.EnqueueDue(context.Background())
	assert.Error(t, err)
	enq.AssertNotCalled(t, "EnqueueRun", mock.Anything, mock.Anything)
}

func TestDueCampaignJobSchedule(t *testing.T) {
	c := cron.New(cron.WithLogger(CronLogger{Log: logger.Nop()}))
	j := NewDueCampaignJob(&MockLister{}, &MockEnqueuer{}, logger.Nop())

	require.NoError(t, j.Schedule(c, "@every 1m"))
	assert.Len(t, c.Entries(), 1)
	assert.Error(t, j.Schedule(c, "not a spec"))
}

func TestTokenExpiryCheck(t *testing.T) {
	lister := &MockLister{}
	lister.On("ListExpiring", mock.Anything, now, now.Add(expiryWarningWindow)).Return([]*models.SocialAccount{
		{UserID: 1, Platform: "twitter", TokenExpiresAt: now.Add(time.Hour)},
		{UserID: 2, Platform: "twitter", TokenExpiresAt: now.Add(2 * time.Hour)},
		{UserID: 2, Platform: "threads", TokenExpiresAt: now.Add(3 * time.Hour)},
	}, nil)

	j := NewTokenExpiryJob(lister, logger.Nop())
	j.clock = func() time.Time { return now }

	counts, err := j.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"twitter": 2, "threads": 1}, counts)
}
