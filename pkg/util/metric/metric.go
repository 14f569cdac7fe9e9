// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package metric

import (
	"sync/atomic"

	"github.com/gogo/protobuf/proto"
	prometheusgo "github.com/prometheus/client_model/go"
)

// Unit describes how the metric's value should be interpreted.
type Unit int32

// Supported metric units.
const (
	Unit_COUNT Unit = iota
	Unit_MILLISECONDS
	Unit_NANOSECONDS
	Unit_UNSET
)

// Metadata holds metadata about a metric. It must be embedded in each metric
// object. It's used to export information about the metric to Prometheus and
// to anything else consuming a Registry.
type Metadata struct {
	Name        string
	Help        string
	Measurement string
	Unit        Unit
}

// GetName returns the metric's name.
func (m Metadata) GetName() string {
	return m.Name
}

// GetHelp returns the metric's help text.
func (m Metadata) GetHelp() string {
	return m.Help
}

// Iterable provides a method for synchronized access to interior objects.
type Iterable interface {
	// GetName returns the fully-qualified name of the metric.
	GetName() string
	// GetHelp returns the help text for the metric.
	GetHelp() string
	// Inspect calls the given closure with the empty string and the metric's
	// current value.
	Inspect(func(v interface{}))
}

// PrometheusExportable is the standard interface for an individual metric
// that can be exported to Prometheus.
type PrometheusExportable interface {
	GetName() string
	GetHelp() string
	// GetType returns the Prometheus type enum for this metric.
	GetType() *prometheusgo.MetricType
	// ToPrometheusMetric returns a filled-in Prometheus metric of the right
	// type for the given metric. It does not fill in labels.
	ToPrometheusMetric() *prometheusgo.Metric
}

// A Counter holds a single monotonically increasing value.
type Counter struct {
	Metadata
	count atomic.Int64
}

var _ Iterable = (*Counter)(nil)
var _ PrometheusExportable = (*Counter)(nil)

// NewCounter creates a counter.
func NewCounter(metadata Metadata) *Counter {
	return &Counter{Metadata: metadata}
}

// Inc increments the counter by i. Decrements are not allowed; a counter only
// goes up.
func (c *Counter) Inc(i int64) {
	if i <= 0 {
		return
	}
	c.count.Add(i)
}

// Count returns the current value of the counter.
func (c *Counter) Count() int64 {
	return c.count.Load()
}

// Inspect implements Iterable.
func (c *Counter) Inspect(f func(interface{})) {
	f(c.Count())
}

// GetType implements PrometheusExportable.
func (c *Counter) GetType() *prometheusgo.MetricType {
	return prometheusgo.MetricType_COUNTER.Enum()
}

// ToPrometheusMetric implements PrometheusExportable.
func (c *Counter) ToPrometheusMetric() *prometheusgo.Metric {
	return &prometheusgo.Metric{
		Counter: &prometheusgo.Counter{Value: proto.Float64(float64(c.Count()))},
	}
}

// A Gauge atomically stores a single integer value.
type Gauge struct {
	Metadata
	value atomic.Int64
}

var _ Iterable = (*Gauge)(nil)
var _ PrometheusExportable = (*Gauge)(nil)

// NewGauge creates a Gauge.
func NewGauge(metadata Metadata) *Gauge {
	return &Gauge{Metadata: metadata}
}

// Update updates the gauge's value.
func (g *Gauge) Update(v int64) {
	g.value.Store(v)
}

// Inc increments the gauge's value by i.
func (g *Gauge) Inc(i int64) {
	g.value.Add(i)
}

// Dec decrements the gauge's value by i.
func (g *Gauge) Dec(i int64) {
	g.value.Add(-i)
}

// Value returns the gauge's current value.
func (g *Gauge) Value() int64 {
	return g.value.Load()
}

// Inspect implements Iterable.
func (g *Gauge) Inspect(f func(interface{})) {
	f(g.Value())
}

// GetType implements PrometheusExportable.
func (g *Gauge) GetType() *prometheusgo.MetricType {
	return prometheusgo.MetricType_GAUGE.Enum()
}

// ToPrometheusMetric implements PrometheusExportable.
func (g *Gauge) ToPrometheusMetric() *prometheusgo.Metric {
	return &prometheusgo.Metric{
		Gauge: &prometheusgo.Gauge{Value: proto.Float64(float64(g.Value()))},
	}
}
