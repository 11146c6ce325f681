package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors del servicio.
// Cada instancia tiene su propio registry para no chocar en tests.
type Metrics struct {
	registry *prometheus.Registry

	DosesRecorded   *prometheus.CounterVec
	UpdateConflicts prometheus.Counter
	SweepMissed     prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		DosesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adherence",
			Name:      "doses_recorded_total",
			Help:      "Dose occurrences recorded, by final status.",
		}, []string{"status"}),
		UpdateConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adherence",
			Name:      "update_conflicts_total",
			Help:      "Optimistic concurrency conflicts on medication updates.",
		}),
		SweepMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adherence",
			Name:      "sweep_missed_total",
			Help:      "Doses marked missed by the background sweeper.",
		}),
	}

	reg.MustRegister(
		m.DosesRecorded,
		m.UpdateConflicts,
		m.SweepMissed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Recorder es lo que consumen los servicios. nil-safe via Nop.
type Recorder interface {
	DoseRecorded(status string)
	UpdateConflict()
	SweptMissed(n int)
}

func (m *Metrics) DoseRecorded(status string) { m.DosesRecorded.WithLabelValues(status).Inc() }
func (m *Metrics) UpdateConflict()            { m.UpdateConflicts.Inc() }
func (m *Metrics) SweptMissed(n int)          { m.SweepMissed.Add(float64(n)) }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

type nop struct{}

func (nop) DoseRecorded(string) {}
func (nop) UpdateConflict()     {}
func (nop) SweptMissed(int)     {}

// Nop descarta todo (tests).
func Nop() Recorder { return nop{} }
