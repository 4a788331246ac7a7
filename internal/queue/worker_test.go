package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
	"github.com/maheshrc27/autoposter/pkg/logger"
)

type MockPostingService struct {
	mock.Mock
}

func (m *MockPostingService) Run(ctx context.Context, campaignID int64) (*transfer.RunResult, error) {
	args := m.Called(ctx, campaignID)
	res, _ := args.Get(0).(*transfer.RunResult)
	return res, args.Error(1)
}

func TestNewRunTask(t *testing.T) {
	task, err := NewRunTask(42)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeCampaignRun, task.Type())

	var p CampaignRunPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, int64(42), p.CampaignID)
}

func TestHandleCampaignRunTask(t *testing.T) {
	cases := []struct {
		name      string
		res       *transfer.RunResult
		err       error
		wantErr   bool
		skipRetry bool
	}{
		{name: "posted", res: &transfer.RunResult{Success: true}},
		{name: "not ready", res: &transfer.RunResult{Reason: transfer.ReasonNotReady}},
		{name: "in progress", err: service.ErrRunInProgress},
		{name: "gone", err: service.ErrCampaignNotFound, wantErr: true, skipRetry: true},
		{name: "store", res: &transfer.RunResult{}, err: service.ErrStore, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ps := &MockPostingService{}
			ps.On("Run", mock.Anything, int64(9)).Return(tc.res, tc.err).Once()
			q := NewQueue(ps, logger.Nop())

			task, err := NewRunTask(9)
			require.NoError(t, err)

			err = q.HandleCampaignRunTask(context.Background(), task)
			if !tc.wantErr {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, tc.skipRetry, errors.Is(err, asynq.SkipRetry))
			}
			ps.AssertExpectations(t)
		})
	}
}

func TestHandleCampaignRunTaskBadPayload(t *testing.T) {
	q := NewQueue(&MockPostingService{}, logger.Nop())
	err := q.HandleCampaignRunTask(context.Background(), asynq.NewTask(TaskTypeCampaignRun, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
