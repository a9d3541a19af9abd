// Package observability provides application-level Prometheus metrics.
// Request-level metrics (latency, status codes) come from the
// fiberprometheus middleware wired in the server package.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// BalanceTransfers counts conspect unlock transfers by outcome.
	BalanceTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classhub_balance_transfers_total",
		Help: "Total number of conspect unlock balance transfers by outcome",
	}, []string{"outcome"})

	// ConspectUploads counts stored conspect files.
	ConspectUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classhub_conspect_uploads_total",
		Help: "Total number of conspect files uploaded",
	})

	// MessagesPosted counts classroom messages created.
	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classhub_messages_posted_total",
		Help: "Total number of classroom messages posted",
	})
)

// Transfer outcomes recorded on BalanceTransfers.
const (
	TransferConfirmed    = "confirmed"
	TransferOwnerBypass  = "owner_bypass"
	TransferInsufficient = "insufficient_balance"
)
