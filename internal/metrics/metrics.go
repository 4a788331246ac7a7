package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunDuration tracks how long a campaign run takes end to end
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "autoposter_campaign_run_duration_seconds",
			Help: "Duration of campaign runs in seconds",
			Buckets: []float64{
				0.01,
				0.05,
				0.1,
				0.5,
				1.0,
				2.5,
				5.0,
				10.0,
				30.0,
				60.0,
			},
		},
		[]string{"outcome"},
	)

	// RunsTotal counts runs by outcome: posted, failed, not_ready, store_error
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoposter_campaign_runs_total",
			Help: "Number of campaign runs by outcome",
		},
		[]string{"outcome"},
	)

	// PlatformAttempts counts every adapter call
	PlatformAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoposter_platform_attempts_total",
			Help: "Number of platform post attempts",
		},
		[]string{"platform", "status"},
	)

	// MentionsReserved counts Threads handles handed out by the mention ledger
	MentionsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoposter_mentions_reserved_total",
			Help: "Number of Threads mentions reserved",
		},
	)

	// CampaignsEnqueued counts runs the poller queued
	CampaignsEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoposter_campaigns_enqueued_total",
			Help: "Number of due campaigns enqueued by the poller",
		},
	)

	// ExpiringAccounts is the number of connected accounts whose token expires soon
	ExpiringAccounts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "autoposter_accounts_expiring",
			Help: "Connected accounts with tokens expiring within the warning window",
		},
		[]string{"platform"},
	)
)

func RecordRun(outcome string, seconds float64) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.WithLabelValues(outcome).Observe(seconds)
}

func RecordAttempt(platform string, success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	PlatformAttempts.WithLabelValues(platform, status).Inc()
}

func RecordMentions(n int) {
	MentionsReserved.Add(float64(n))
}

func RecordEnqueued(n int) {
	CampaignsEnqueued.Add(float64(n))
}

// SetExpiring replaces the per platform expiring account counts.
func SetExpiring(counts map[string]int) {
	ExpiringAccounts.Reset()
	for platform, n := range counts {
		ExpiringAccounts.WithLabelValues(platform).Set(float64(n))
	}
}
