package metrics

import "github.com/prometheus/client_golang/prometheus"

// Custody holds the counters the custody service reports. They share the
// registry the HTTP middleware registers on, so one /metrics endpoint serves
// both views.
type Custody struct {
	Ingests        *prometheus.CounterVec
	Retrievals     *prometheus.CounterVec
	AnchorFailures prometheus.Counter
}

// NewCustody creates and registers the custody counters.
func NewCustody(reg prometheus.Registerer) (*Custody, error) {
	m := &Custody{
		Ingests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custody_ingests_total",
				Help: "Total document ingests by outcome.",
			},
			[]string{"outcome"},
		),
		Retrievals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custody_retrievals_total",
				Help: "Total document retrievals by outcome.",
			},
			[]string{"outcome"},
		),
		AnchorFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "custody_anchor_failures_total",
				Help: "Total ledger anchor attempts that degraded to no tx hash.",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.Ingests, m.Retrievals, m.AnchorFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Noop returns counters bound to a throwaway registry, for tests and for
// callers that do not report metrics.
func Noop() *Custody {
	m, _ := NewCustody(prometheus.NewRegistry())
	return m
}
