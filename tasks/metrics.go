/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the task collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	Created         prometheus.Counter
	Reused          prometheus.Counter
	Running         prometheus.Gauge
	Finished        *prometheus.CounterVec
	ScoringDuration prometheus.Histogram
}

// NewMetrics creates the task collectors under namespace, together with the
// Go runtime and process collectors.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_tasks_created_total",
			Help:      "Total number of risk computation tasks created",
		}),
		Reused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_tasks_reused_total",
			Help:      "Total number of start requests answered with an active task",
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_tasks_running",
			Help:      "Number of risk computations currently executing",
		}),
		Finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_tasks_finished_total",
			Help:      "Total number of risk computations finished, by final status",
		}, []string{"status"}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_scoring_duration_seconds",
			Help:      "Duration of risk computations from running to a final status",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Created,
		m.Reused,
		m.Running,
		m.Finished,
		m.ScoringDuration,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
