// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package metric

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/chainbridge-mesh/reaper/pkg/util/syncutil"
)

// A Registry bundles up various metrics to provide a single point of access
// to them.
type Registry struct {
	syncutil.Mutex
	tracked map[string]Iterable
}

// NewRegistry creates a new Registry.
func NewRegistry() *Registry {
	return &Registry{
		tracked: map[string]Iterable{},
	}
}

// AddMetric adds the given metric to the registry under its own name. It
// returns an error if the name is already in use.
func (r *Registry) AddMetric(metric Iterable) error {
	r.Lock()
	defer r.Unlock()
	name := metric.GetName()
	if _, ok := r.tracked[name]; ok {
		return errors.Newf("metric name %q already in use", name)
	}
	r.tracked[name] = metric
	return nil
}

// MustAddMetric calls AddMetric and panics on error.
func (r *Registry) MustAddMetric(metric Iterable) {
	if err := r.AddMetric(metric); err != nil {
		panic(err)
	}
}

// Each calls the given closure for all metrics.
func (r *Registry) Each(f func(name string, val interface{})) {
	r.Lock()
	defer r.Unlock()
	for name, metric := range r.tracked {
		metric.Inspect(func(v interface{}) {
			f(name, v)
		})
	}
}

// MarshalJSON marshals to JSON.
func (r *Registry) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{})
	r.Each(func(name string, v interface{}) {
		m[name] = v
	})
	return json.Marshal(m)
}
