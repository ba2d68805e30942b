// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package metrics exports the activity of the AT engine as prometheus
// metrics.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/warthog618/bg770a/at"
)

// Collector is an at.Observer that counts exchanges, URCs and errors.
//
// It is a prometheus.Collector, and so may be registered directly.
type Collector struct {
	exchanges   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	urcs        *prometheus.CounterVec
	unknown     prometheus.Counter
	writeErrors prometheus.Counter
	rssi        prometheus.Gauge
	registered  prometheus.Gauge
}

// New creates a Collector with metrics in the namespace.
func New(namespace string) *Collector {
	return &Collector{
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchanges_total",
				Help:      "Number of AT command exchanges, by command and result.",
			},
			[]string{"command", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "exchange_duration_seconds",
				Help:      "Duration of AT command exchanges.",
				Buckets:   []float64{.01, .05, .1, .3, 1, 5, 15, 60, 180},
			},
			[]string{"command"},
		),
		urcs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "urcs_total",
				Help:      "Number of unsolicited result codes received, by prefix.",
			},
			[]string{"prefix"},
		),
		unknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_lines_total",
			Help:      "Number of lines claimed by neither an exchange nor a URC handler.",
		}),
		writeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Number of failed writes to the modem.",
		}),
		rssi: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rssi",
			Help:      "Most recent received signal strength indication (0-31, 99 unknown).",
		}),
		registered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_registered",
			Help:      "1 if the modem is registered with the network, else 0.",
		}),
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.exchanges, c.duration, c.urcs, c.unknown, c.writeErrors, c.rssi, c.registered,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

// Observe implements at.Observer.
func (c *Collector) Observe(e at.Event) {
	switch e.Kind {
	case at.EventFinal:
		cmd := Verb(e.Command)
		c.exchanges.WithLabelValues(cmd, e.Result.String()).Inc()
		c.duration.WithLabelValues(cmd).Observe(e.Elapsed.Seconds())
	case at.EventURC:
		c.urcs.WithLabelValues(Prefix(e.Line)).Inc()
	case at.EventUnknown:
		c.unknown.Inc()
	case at.EventWriteError:
		c.writeErrors.Inc()
	}
}

// SetSignalQuality records the most recent RSSI.
func (c *Collector) SetSignalQuality(rssi int) {
	c.rssi.Set(float64(rssi))
}

// SetRegistered records whether the modem is registered.
func (c *Collector) SetRegistered(registered bool) {
	v := 0.0
	if registered {
		v = 1
	}
	c.registered.Set(v)
}

// Verb returns the command stripped of any parameters, e.g. "AT+QIOPEN" for
// "AT+QIOPEN=1,0,...".
func Verb(cmd string) string {
	if i := strings.IndexAny(cmd, "=?"); i >= 0 {
		return cmd[:i]
	}
	return cmd
}

// longest URC reported verbatim
const maxPrefix = 16

// Prefix returns the identifying part of a URC, e.g. "+QIURC" for
// `+QIURC: "recv",1`.
//
// Lines without a prefix that are too long to be a status, such as echoed
// payload, are reported as "other".
func Prefix(line string) string {
	if i := strings.IndexByte(line, ':'); i > 0 {
		line = line[:i]
	}
	if len(line) > maxPrefix {
		return "other"
	}
	return line
}

var _ at.Observer = (*Collector)(nil)
