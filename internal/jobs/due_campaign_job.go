package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/maheshrc27/autoposter/internal/metrics"
	"github.com/maheshrc27/autoposter/pkg/logger"
)

type SchedulableLister interface {
	ListSchedulable(ctx context.Context, now time.Time) ([]int64, error)
}

type RunEnqueuer interface {
	EnqueueRun(ctx context.Context, campaignID int64) (bool, error)
}

// DueCampaignJob polls for campaigns that may be due and queues a run for
// each. The run itself decides whether the campaign actually posts.
type DueCampaignJob struct {
	campaigns SchedulableLister
	enqueuer  RunEnqueuer
	clock     func() time.Time
	log       *logger.Logger
}

func NewDueCampaignJob(campaigns SchedulableLister, enqueuer RunEnqueuer, log *logger.Logger) *DueCampaignJob {
	return &DueCampaignJob{
		campaigns: campaigns,
		enqueuer:  enqueuer,
		clock:     time.Now,
		log:       log.WithComponent("due_campaigns"),
	}
}

// EnqueueDue queues every schedulable campaign and returns how many new
// tasks were created. One failed enqueue does not stop the rest.
func (j *DueCampaignJob) EnqueueDue(ctx context.Context) (int, error) {
	ids, err := j.campaigns.ListSchedulable(ctx, j.clock())
	if err != nil {
		return 0, fmt.Errorf("list schedulable campaigns: %w", err)
	}

	queued := 0
	for _, id := range ids {
		ok, err := j.enqueuer.EnqueueRun(ctx, id)
		if err != nil {
			j.log.WithCampaignID(id).Error().Err(err).Msg("failed to enqueue campaign run")
			continue
		}
		if ok {
			queued++
		}
	}
	metrics.RecordEnqueued(queued)
	return queued, nil
}

func (j *DueCampaignJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
	defer cancel()

	n, err := j.EnqueueDue(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("due campaign poll failed")
		return
	}
	if n > 0 {
		j.log.Info().Int("queued", n).Msg("queued campaign runs")
	}
}

// Schedule registers the job on c under spec.
func (j *DueCampaignJob) Schedule(c *cron.Cron, spec string) error {
	if _, err := c.AddJob(spec, j); err != nil {
		return fmt.Errorf("schedule due campaign job: %w", err)
	}
	return nil
}

// CronLogger adapts Logger for cron.
type CronLogger struct {
	Log *logger.Logger
}

func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
