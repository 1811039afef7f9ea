// Package metrics defines and registers the custom Prometheus metrics of the
// OLMS API. It is the single source of truth for metric names, labels and
// help strings. Metrics register with the default registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "olms"

// ── Authentication metrics ───────────────────────────────────────────────────

// AuthOutcomesTotal counts authentication attempts on protected routes.
// Label:
//   - result: "success", "missing_credential", "invalid_token", "expired_token",
//     "user_not_found", "account_deactivated" or "error"
var AuthOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_outcomes_total",
		Help:      "Total number of authentication attempts, by result.",
	},
	[]string{"result"},
)

// CredentialFallbackTotal counts requests authenticated by the cookie token
// after the header token was rejected.
var CredentialFallbackTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_fallback_total",
		Help:      "Total number of requests that fell back from the header token to the cookie token.",
	},
)

// SessionRefreshTotal counts refresh headers written to responses.
// Label:
//   - kind: "renewed" (new token minted), "mirrored" (cookie token echoed) or "failed"
var SessionRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refresh_total",
		Help:      "Total number of session refresh decisions that touched the response.",
	},
	[]string{"kind"},
)

// MaintenanceRejectionsTotal counts requests refused by the maintenance gate.
var MaintenanceRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "maintenance_rejections_total",
		Help:      "Total number of requests rejected while maintenance mode was enabled.",
	},
)

// AuthorizationDeniedTotal counts role checks that failed.
// Label:
//   - role: normalized role of the caller, or "anonymous"
var AuthorizationDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denied_total",
		Help:      "Total number of requests denied by a role guard.",
	},
	[]string{"role"},
)

// LoginsTotal counts password logins.
// Label:
//   - result: "success", "invalid_credentials", "deactivated" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of password login attempts, by result.",
	},
	[]string{"result"},
)

// ── Audit metrics ────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by persistence outcome.
// Label:
//   - result: "persisted", "failed" or "overflow" (queue full, written on a detached goroutine)
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by persistence outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditPersistDuration measures a single audit store write.
var AuditPersistDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_persist_duration_seconds",
		Help:      "Duration of audit event writes to the audit store.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Settings metrics ─────────────────────────────────────────────────────────

// SettingsCacheTotal counts settings snapshot lookups.
// Label:
//   - result: "hit", "miss" or "bypass" (cache unavailable, read from the store)
var SettingsCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settings_cache_total",
		Help:      "Total number of settings snapshot lookups, by cache result.",
	},
	[]string{"result"},
)
