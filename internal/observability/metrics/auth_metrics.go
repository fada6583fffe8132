package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	StoreErrorReasonDeadlineExceeded = "deadline_exceeded"
	StoreErrorReasonNotFound         = "not_found"
	StoreErrorReasonUniqueViolation  = "unique_violation"
	StoreErrorReasonConnection       = "connection"
	StoreErrorReasonUnknown          = "unknown"
)

const (
	SessionOpCreate  = "create"
	SessionOpResolve = "resolve"
	SessionOpDestroy = "destroy"
)

// AuthMetrics holds Prometheus collectors for the authentication core.
type AuthMetrics struct {
	gateDecisions *prometheus.CounterVec
	sessionOps    *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec
	resetTokens   *prometheus.CounterVec
}

var (
	authMetricsOnce sync.Once
	authMetrics     *AuthMetrics
)

// Auth returns the process-wide auth metrics registered on the default registerer.
func Auth() *AuthMetrics {
	return AuthWithConfig(Config{})
}

func AuthWithConfig(cfg Config) *AuthMetrics {
	authMetricsOnce.Do(func() {
		authMetrics = NewAuthMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return authMetrics
}

// NewAuthMetrics registers a fresh set of collectors on registerer.
func NewAuthMetrics(registerer prometheus.Registerer, cfg Config) *AuthMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "authgate"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	gateDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "authgate_gate_decisions_total",
		Help:        "Authorization decisions by scheme and outcome.",
		ConstLabels: constLabels,
	}, []string{"scheme", "outcome"})
	sessionOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "authgate_sessions_total",
		Help:        "Session store operations by backend, operation and result.",
		ConstLabels: constLabels,
	}, []string{"backend", "op", "result"})
	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "authgate_session_store_errors_total",
		Help:        "Session store failures treated as missing sessions.",
		ConstLabels: constLabels,
	}, []string{"backend", "reason"})
	resetTokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "authgate_reset_tokens_total",
		Help:        "Reset token issue and consume attempts by result.",
		ConstLabels: constLabels,
	}, []string{"op", "result"})

	registerer.MustRegister(gateDecisions, sessionOps, storeErrors, resetTokens)

	return &AuthMetrics{
		gateDecisions: gateDecisions,
		sessionOps:    sessionOps,
		storeErrors:   storeErrors,
		resetTokens:   resetTokens,
	}
}

func (m *AuthMetrics) RecordGateDecision(scheme, outcome string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(scheme, outcome).Inc()
}

func (m *AuthMetrics) RecordSessionOp(backend, op string, ok bool) {
	if m == nil {
		return
	}
	m.sessionOps.WithLabelValues(backend, op, result(ok)).Inc()
}

func (m *AuthMetrics) RecordStoreError(backend string, err error) {
	if m == nil || err == nil {
		return
	}
	m.storeErrors.WithLabelValues(backend, ClassifyStoreError(err)).Inc()
}

func (m *AuthMetrics) RecordResetToken(op string, ok bool) {
	if m == nil {
		return
	}
	m.resetTokens.WithLabelValues(op, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "miss"
}

// ClassifyStoreError maps backend errors to low-cardinality reasons.
func ClassifyStoreError(err error) string {
	if err == nil {
		return StoreErrorReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return StoreErrorReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, redis.Nil) {
		return StoreErrorReasonNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return StoreErrorReasonUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return StoreErrorReasonUniqueViolation
		case "08000", "08003", "08006", "57P01":
			return StoreErrorReasonConnection
		}
	}
	return StoreErrorReasonUnknown
}
