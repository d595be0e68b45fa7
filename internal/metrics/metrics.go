// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics collects Prometheus metrics for review writes and report
// exports and exposes them for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface the service layer depends on.
type Recorder interface {
	RecordWrite(entity, op string)
	RecordValidationFailure(entity string)
	RecordReport(subject, format string, cached bool)
	RecordRenderLatency(subject, format string, d time.Duration)
	RecordArchiveFailure()
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	writes          *prometheus.CounterVec
	validationFails *prometheus.CounterVec
	reports         *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	renderLatency   *prometheus.HistogramVec
	archiveFails    prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readlog_writes_total",
			Help: "Successful writes by entity and operation.",
		}, []string{"entity", "op"}),
		validationFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readlog_validation_failures_total",
			Help: "Submissions rejected by validation.",
		}, []string{"entity"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readlog_reports_total",
			Help: "Reports served by subject and format.",
		}, []string{"subject", "format"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readlog_report_cache_hits_total",
			Help: "Reports served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readlog_report_cache_misses_total",
			Help: "Reports rendered because no cached copy existed.",
		}),
		renderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "readlog_report_render_seconds",
			Help:    "Time spent rendering a report.",
			Buckets: prometheus.DefBuckets,
		}, []string{"subject", "format"}),
		archiveFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readlog_report_archive_failures_total",
			Help: "Rendered reports that could not be archived.",
		}),
	}

	reg.MustRegister(
		c.writes,
		c.validationFails,
		c.reports,
		c.cacheHits,
		c.cacheMisses,
		c.renderLatency,
		c.archiveFails,
	)

	return c
}

// RecordWrite counts one successful create, update or delete.
func (c *Collector) RecordWrite(entity, op string) {
	c.writes.WithLabelValues(entity, op).Inc()
}

// RecordValidationFailure counts one rejected submission.
func (c *Collector) RecordValidationFailure(entity string) {
	c.validationFails.WithLabelValues(entity).Inc()
}

// RecordReport counts one served report and whether it came from the cache.
func (c *Collector) RecordReport(subject, format string, cached bool) {
	c.reports.WithLabelValues(subject, format).Inc()
	if cached {
		c.cacheHits.Inc()
	} else {
		c.cacheMisses.Inc()
	}
}

// RecordRenderLatency observes the time spent rendering one report.
func (c *Collector) RecordRenderLatency(subject, format string, d time.Duration) {
	c.renderLatency.WithLabelValues(subject, format).Observe(d.Seconds())
}

// RecordArchiveFailure counts one failed archive upload.
func (c *Collector) RecordArchiveFailure() {
	c.archiveFails.Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordWrite(string, string)                        {}
func (Nop) RecordValidationFailure(string)                    {}
func (Nop) RecordReport(string, string, bool)                 {}
func (Nop) RecordRenderLatency(string, string, time.Duration) {}
func (Nop) RecordArchiveFailure()                             {}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
