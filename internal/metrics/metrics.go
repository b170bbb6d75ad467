package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	ChallengesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "challenges_created_total",
		Help: "Challenges created, with their parts",
	})
	ChallengesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "challenges_deleted_total",
		Help: "Challenges deleted together with parts and verification requests",
	})
	PartsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parts_completed_total",
		Help: "First-time part completions",
	})
	ChallengesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "challenges_completed_total",
		Help: "Participants that completed every part of a challenge",
	})
	VerificationRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_requests_total",
		Help: "Verification requests created",
	})
	VerificationsApproved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verifications_approved_total",
		Help: "Verification requests approved",
	})
)

// Register adds every collector to reg. Call once from main.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChallengesCreated,
		ChallengesDeleted,
		PartsCompleted,
		ChallengesCompleted,
		VerificationRequests,
		VerificationsApproved,
	)
}
