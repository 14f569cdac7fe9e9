// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package metric

import (
	"sort"

	"github.com/gogo/protobuf/proto"
	"github.com/prometheus/client_golang/prometheus"
	prometheusgo "github.com/prometheus/client_model/go"
)

// PrometheusExporter converts the metrics in a Registry to Prometheus's
// exposition types. It implements prometheus.Gatherer, so it can be served
// directly by promhttp.HandlerFor.
type PrometheusExporter struct {
	registry *Registry
}

var _ prometheus.Gatherer = (*PrometheusExporter)(nil)

// MakePrometheusExporter returns an initialized prometheus exporter reading
// from the given registry.
func MakePrometheusExporter(registry *Registry) PrometheusExporter {
	return PrometheusExporter{registry: registry}
}

// Gather implements prometheus.Gatherer. Families are returned sorted by
// name, as the prometheus text encoder expects.
func (pm PrometheusExporter) Gather() ([]*prometheusgo.MetricFamily, error) {
	pm.registry.Lock()
	defer pm.registry.Unlock()

	families := make([]*prometheusgo.MetricFamily, 0, len(pm.registry.tracked))
	for name, metric := range pm.registry.tracked {
		prom, ok := metric.(PrometheusExportable)
		if !ok {
			continue
		}
		families = append(families, &prometheusgo.MetricFamily{
			Name:   proto.String(exportedName(name)),
			Help:   proto.String(prom.GetHelp()),
			Type:   prom.GetType(),
			Metric: []*prometheusgo.Metric{prom.ToPrometheusMetric()},
		})
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families, nil
}

// exportedName rewrites a metric name to a Prometheus-compatible one:
// prometheus metric names may not contain dots or dashes.
func exportedName(name string) string {
	out := []byte(name)
	for i, c := range out {
		if c == '.' || c == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}
