package platform

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var errSimulated = errors.New("simulated platform failure")

// DryRunPublisher accepts requests without calling the network and hands
// back a generated post id. A non-zero failure rate makes that share of
// calls fail, which is useful for exercising retries end to end.
type DryRunPublisher struct {
	log         zerolog.Logger
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDryRunPublisher(log zerolog.Logger, failureRate float64) *DryRunPublisher {
	return &DryRunPublisher{
		log:         log,
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *DryRunPublisher) Publish(ctx context.Context, platform string, req PostRequest) (PublishResponse, error) {
	if err := ctx.Err(); err != nil {
		return PublishResponse{}, err
	}
	if p.fail() {
		p.log.Debug().Str("platform", platform).Msg("dry run publish failed")
		return PublishResponse{}, errSimulated
	}

	id, err := gonanoid.New()
	if err != nil {
		return PublishResponse{}, fmt.Errorf("generate post id: %w", err)
	}

	postID := platform + "_" + id
	p.log.Info().
		Str("platform", platform).
		Str("post_id", postID).
		Str("account_id", req.Credentials.AccountID).
		Int("media", len(req.MediaURLs)).
		Int("length", len([]rune(req.Content))).
		Msg("dry run publish")

	return PublishResponse{PostID: postID}, nil
}

func (p *DryRunPublisher) fail() bool {
	if p.failureRate <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.failureRate
}
