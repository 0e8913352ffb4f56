// Package metrics implements ports.Metrics with Prometheus counters.
package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/txlog/internal/core/ports"
	"go.trai.ch/zerr"
)

const namespace = "txlog"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus records repository activity on a private registry.
type Prometheus struct {
	registry  *prometheus.Registry
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

// New creates the counters and registers them on a fresh registry.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Transaction lookups answered from the cache.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Transaction lookups that went to the store.",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Cache entries removed by capacity or expiry.",
		}, []string{"reason"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repository",
			Name:      "conflicts_total",
			Help:      "Writes rejected by the store.",
		}, []string{"kind"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Store calls that failed.",
		}, []string{"op"}),
	}

	p.registry.MustRegister(p.hits, p.misses, p.evictions, p.conflicts, p.errors)
	return p
}

// Registry exposes the registry the counters live on.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// CacheHit implements ports.Metrics.
func (p *Prometheus) CacheHit() { p.hits.Inc() }

// CacheMiss implements ports.Metrics.
func (p *Prometheus) CacheMiss() { p.misses.Inc() }

// CacheEviction implements ports.Metrics.
func (p *Prometheus) CacheEviction(reason string) { p.evictions.WithLabelValues(reason).Inc() }

// Conflict implements ports.Metrics.
func (p *Prometheus) Conflict(kind string) { p.conflicts.WithLabelValues(kind).Inc() }

// StoreError implements ports.Metrics.
func (p *Prometheus) StoreError(op string) { p.errors.WithLabelValues(op).Inc() }

// Sample is one gathered counter value.
type Sample struct {
	Name  string
	Value float64
}

// Snapshot gathers every counter with a non-zero value, sorted by name.
// Labels are rendered in the Prometheus text form.
func (p *Prometheus) Snapshot() ([]Sample, error) {
	families, err := p.registry.Gather()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to gather metrics")
	}

	var samples []Sample
	for _, family := range families {
		for _, m := range family.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}

			name := family.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, 0, len(labels))
				for _, l := range labels {
					pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}
			samples = append(samples, Sample{Name: name, Value: value})
		}
	}

	slices.SortFunc(samples, func(a, b Sample) int { return strings.Compare(a.Name, b.Name) })
	return samples, nil
}
