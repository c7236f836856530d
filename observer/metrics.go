// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package observer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink exports the coverage summary as Prometheus gauges, labeled
// with the collector instance's run id so that two restarts of the same
// collector are never confused on a shared dashboard.
type MetricsSink struct {
	coveredNodes     prometheus.Gauge
	totalNodes       prometheus.Gauge
	coveredFunctions prometheus.Gauge
	totalFunctions   prometheus.Gauge
	frontierSize     prometheus.Gauge
}

// NewMetricsSink registers the gauges with reg and returns a sink ready to
// be passed to Tracker.AddSink.
func NewMetricsSink(reg prometheus.Registerer, runID string) (*MetricsSink, error) {
	labels := prometheus.Labels{"run_id": runID}
	m := &MetricsSink{
		coveredNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fuzvisor_covered_nodes", Help: "Structure graph nodes observed covered.", ConstLabels: labels,
		}),
		totalNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fuzvisor_total_nodes", Help: "Structure graph node count.", ConstLabels: labels,
		}),
		coveredFunctions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fuzvisor_covered_functions", Help: "Functions with at least one covered node.", ConstLabels: labels,
		}),
		totalFunctions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fuzvisor_total_functions", Help: "Structure graph function count.", ConstLabels: labels,
		}),
		frontierSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fuzvisor_frontier_nodes", Help: "Covered nodes with at least one uncovered successor.", ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{
		m.coveredNodes, m.totalNodes, m.coveredFunctions, m.totalFunctions, m.frontierSize,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsSink) CoverageChanged(s Summary) {
	m.coveredNodes.Set(float64(s.CoveredNodes))
	m.totalNodes.Set(float64(s.TotalNodes))
	m.coveredFunctions.Set(float64(s.CoveredFunctions))
	m.totalFunctions.Set(float64(s.TotalFunctions))
	m.frontierSize.Set(float64(s.FrontierSize))
}
