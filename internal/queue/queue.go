package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// uniqueFor keeps a second enqueue of the same campaign out while one is pending.
const uniqueFor = 5 * time.Minute

// Client enqueues campaign runs.
type Client struct {
	asynq *asynq.Client
}

func NewClient(c *asynq.Client) *Client {
	return &Client{asynq: c}
}

func NewRunTask(campaignID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(CampaignRunPayload{CampaignID: campaignID})
	if err != nil {
		return nil, err
	}
	// Runs are never retried by the queue; the orchestrator already retries per platform.
	return asynq.NewTask(TaskTypeCampaignRun, payload,
		asynq.MaxRetry(0),
		asynq.Unique(uniqueFor),
		asynq.Timeout(5*time.Minute),
	), nil
}

// EnqueueRun queues a run for the campaign. It reports false when a run
// for the same campaign is already queued.
func (c *Client) EnqueueRun(ctx context.Context, campaignID int64) (bool, error) {
	task, err := NewRunTask(campaignID)
	if err != nil {
		return false, fmt.Errorf("build task: %w", err)
	}

	if _, err := c.asynq.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return false, nil
		}
		return false, fmt.Errorf("enqueue campaign %d: %w", campaignID, err)
	}
	return true, nil
}
