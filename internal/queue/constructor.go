package queue

import (
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/pkg/logger"
)

// Queue runs campaign tasks pulled off the asynq server.
type Queue struct {
	ps  service.PostingService
	log *logger.Logger
}

func NewQueue(ps service.PostingService, log *logger.Logger) *Queue {
	return &Queue{
		ps:  ps,
		log: log.WithComponent("queue"),
	}
}

const TaskTypeCampaignRun = "campaign:run"

type CampaignRunPayload struct {
	CampaignID int64 `json:"campaign_id"`
}
