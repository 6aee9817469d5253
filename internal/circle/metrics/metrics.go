package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the circle module.
// Tracks lifecycle counts and critical path durations.
type Metrics struct {
	CirclesCreated       prometheus.Counter
	MembersJoined        prometheus.Counter
	CirclesActivated     prometheus.Counter
	ContributionsMade    prometheus.Counter
	PayoutsClaimed       prometheus.Counter
	CirclesCompleted     prometheus.Counter
	CirclesCancelled     prometheus.Counter
	ContributionDuration prometheus.Histogram
	ClaimDuration        prometheus.Histogram
}

// New creates a new Metrics instance with all circle module metrics registered.
func New() *Metrics {
	return &Metrics{
		CirclesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "faircircle_circles_created_total",
			Help: "Total number of circles created",
		}),
		MembersJoined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "faircircle_members_joined_total",
			Help: "Total number of successful member admissions",
		}),
		CirclesActivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "faircircle_circles_activated_total",
			Help: "Total number of circles moved to active",
		}),
		ContributionsMade: promauto.NewCounter(prometheus.CounterOpts{
			Name: "faircircle_contributions_total",
			Help: "Total number of round contributions recorded",
		}),
		PayoutsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "faircircle_payouts_claimed_total",
			Help: "Total number of round payouts claimed",
		}),
		CirclesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "faircircle_circles_completed_total",
			Help: "Total number of circles that finished all rounds",
		}),
		CirclesCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "faircircle_circles_cancelled_total",
			Help: "Total number of circles cancelled before activation",
		}),
		ContributionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "faircircle_contribution_duration_seconds",
			Help:    "Duration of Contribute operations (ledger transfer path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ClaimDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "faircircle_claim_duration_seconds",
			Help:    "Duration of Claim operations (payout transfer path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveContribution records the duration of a Contribute operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveContribution(start time.Time) {
	m.ContributionDuration.Observe(time.Since(start).Seconds())
}

// ObserveClaim records the duration of a Claim operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveClaim(start time.Time) {
	m.ClaimDuration.Observe(time.Since(start).Seconds())
}
