package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/maheshrc27/autoposter/internal/service"
)

func (q *Queue) HandleCampaignRunTask(ctx context.Context, task *asynq.Task) error {
	var payload CampaignRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	log := q.log.WithCampaignID(payload.CampaignID)

	res, err := q.ps.Run(ctx, payload.CampaignID)
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		log.Debug().Msg("run already in progress, skipping")
		return nil
	case errors.Is(err, service.ErrCampaignNotFound):
		log.Warn().Msg("campaign disappeared before its run")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	case err != nil:
		return err
	}

	log.Debug().Bool("success", res.Success).Str("reason", res.Reason).Msg("campaign task done")
	return nil
}

// Mux routes every task type this service handles.
func (q *Queue) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeCampaignRun, q.HandleCampaignRunTask)
	return mux
}
