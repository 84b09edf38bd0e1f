// Package metrics defines and registers all custom Prometheus metrics of the
// election service. It is the single source of truth for metric names, labels,
// and help strings. Metrics are registered with the default registry at init
// through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "elections"

// ── Ballot metrics ────────────────────────────────────────────────────────────

// VotesTotal counts vote submissions by outcome.
// Label:
//   - result: "ok" or a domain error kind (e.g. "already_voted", "unauthorized")
var VotesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_total",
		Help:      "Total number of vote submissions, labelled by outcome.",
	},
	[]string{"result"},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// StatusTransitionsTotal counts materialized status changes.
// Labels:
//   - from, to: election statuses (e.g. "upcoming" → "ongoing")
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of election status transitions written by reconciliation.",
	},
	[]string{"from", "to"},
)

// ReconcileRunsTotal counts reconciliation passes.
// Label:
//   - result: "ok", "partial" (some elections failed) or "error"
var ReconcileRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_runs_total",
		Help:      "Total number of status reconciliation runs, by result.",
	},
	[]string{"result"},
)

// ReconcileDuration measures a full reconciliation pass.
var ReconcileDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of a status reconciliation pass.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login attempts.
// Labels:
//   - realm: "admin" or "voter"
//   - result: "ok" or a domain error kind
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, by realm and outcome.",
	},
	[]string{"realm", "result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// TasksTotal counts notification task outcomes.
// Labels:
//   - kind: task kind (e.g. "voter_credentials")
//   - result: "done", "retried" or "dead"
var TasksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_total",
		Help:      "Total number of notification tasks processed, by kind and result.",
	},
	[]string{"kind", "result"},
)

// EmailsSentTotal counts individual emails handed to the mail transport.
// Labels:
//   - kind: task kind that produced the email
//   - result: "ok" or "error"
var EmailsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total number of emails sent, by task kind and result.",
	},
	[]string{"kind", "result"},
)

// TaskQueueDepth tracks the number of tasks waiting in the pending list.
var TaskQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "task_queue_depth",
		Help:      "Current number of notification tasks waiting to be reserved.",
	},
)
