package job

import (
	"context"
	"time"

	"github.com/maheshrc27/autoposter/internal/metrics"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/pkg/logger"
)

const expiryWarningWindow = 24 * time.Hour

type ExpiringLister interface {
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error)
}

// TokenExpiryJob warns about connected accounts whose tokens are about to
// lapse. Refreshing them is left to the account owner.
type TokenExpiryJob struct {
	accounts ExpiringLister
	clock    func() time.Time
	log      *logger.Logger
}

func NewTokenExpiryJob(accounts ExpiringLister, log *logger.Logger) *TokenExpiryJob {
	return &TokenExpiryJob{
		accounts: accounts,
		clock:    time.Now,
		log:      log.WithComponent("token_expiry"),
	}
}

// Check returns the expiring account count per platform.
func (j *TokenExpiryJob) Check(ctx context.Context) (map[string]int, error) {
	now := j.clock()
	accounts, err := j.accounts.ListExpiring(ctx, now, now.Add(expiryWarningWindow))
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, acc := range accounts {
		counts[acc.Platform]++
		j.log.Warn().
			Int64("user_id", acc.UserID).
			Str("platform", acc.Platform).
			Time("expires_at", acc.TokenExpiresAt).
			Msg("account token expires soon")
	}
	metrics.SetExpiring(counts)
	return counts, nil
}

func (j *TokenExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := j.Check(ctx); err != nil {
		j.log.Error().Err(err).Msg("token expiry check failed")
	}
}
