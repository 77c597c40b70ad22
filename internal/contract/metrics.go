package contract

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
)

const (
	kindCall     = "call"
	kindTransact = "transact"
)

// Metrics collects dispatcher counters. A nil *Metrics records nothing.
type Metrics struct {
	dispatches   *prometheus.CounterVec
	nonceFetches *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewMetrics creates the dispatcher collectors and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contract_gateway",
				Subsystem: "dispatch",
				Name:      "calls_total",
				Help:      "Contract executions by kind and outcome",
			},
			[]string{"kind", "result"},
		),
		nonceFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contract_gateway",
				Name:      "nonce_fetches_total",
				Help:      "Transaction count lookups issued before sending",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "contract_gateway",
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Contract execution latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.dispatches, m.nonceFetches, m.duration)
	}
	return m
}

func (m *Metrics) observeDispatch(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(kind, resultLabel(err)).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeNonceFetch(err error) {
	if m == nil {
		return
	}
	m.nonceFetches.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainerrors.ErrUnknownFunction):
		return "unknown_function"
	case errors.Is(err, domainerrors.ErrEncodingFailed):
		return "encoding_failed"
	case errors.Is(err, domainerrors.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, domainerrors.ErrDecodingFailed):
		return "decoding_failed"
	case errors.Is(err, domainerrors.ErrInvalidNonce):
		return "invalid_nonce"
	case errors.Is(err, domainerrors.ErrSignerNotConfigured):
		return "no_signer"
	default:
		return "network_error"
	}
}
