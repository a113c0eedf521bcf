// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Thermoquad/cubelink/pkg/cube"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const metricsNamespace = "cubelink"

// statsCollector exports a session's Statistics as Prometheus counters
type statsCollector struct {
	stats *cube.Statistics

	commands     *prometheus.Desc
	replies      *prometheus.Desc
	validReplies *prometheus.Desc
	deviceFaults *prometheus.Desc
	frameErrors  *prometheus.Desc
	transport    *prometheus.Desc
	decodeErrors *prometheus.Desc
	desyncs      *prometheus.Desc
	anomalies    *prometheus.Desc
}

func newStatsCollector(stats *cube.Statistics) *statsCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "session", name), help, labels, nil)
	}
	return &statsCollector{
		stats:        stats,
		commands:     desc("commands_total", "Commands written to the Cube."),
		replies:      desc("replies_total", "Replies decoded from the Cube."),
		validReplies: desc("valid_replies_total", "Replies with no device error and no anomaly."),
		deviceFaults: desc("device_faults_total", "Replies carrying a non-zero device error."),
		frameErrors:  desc("frame_errors_total", "Transactions failed by a malformed byte stream.", "kind"),
		transport:    desc("transport_errors_total", "Transactions failed by the channel.", "kind"),
		decodeErrors: desc("decode_errors_total", "Reply payloads that failed to decode."),
		desyncs:      desc("desyncs_total", "Replies rejected for a mismatched id."),
		anomalies:    desc("anomalous_replies_total", "Replies that failed validation."),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.commands
	ch <- c.replies
	ch <- c.validReplies
	ch <- c.deviceFaults
	ch <- c.frameErrors
	ch <- c.transport
	ch <- c.decodeErrors
	ch <- c.desyncs
	ch <- c.anomalies
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Snapshot()
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	counter(c.commands, s.Commands)
	counter(c.replies, s.Replies)
	counter(c.validReplies, s.ValidReplies)
	counter(c.deviceFaults, s.DeviceFaults)
	counter(c.frameErrors, s.WrongReplyType, "wrong_reply")
	counter(c.frameErrors, s.NoData, "no_data")
	counter(c.frameErrors, s.LostData, "lost_data")
	counter(c.transport, s.Timeouts, "timeout")
	counter(c.transport, s.WriteFailures, "write_failed")
	counter(c.transport, s.ChannelClosed, "channel_closed")
	counter(c.decodeErrors, s.DecodeErrors)
	counter(c.desyncs, s.Desyncs)
	counter(c.anomalies, s.AnomalousReplies)
}

// watchMetrics holds the gauges updated by the watch loop
type watchMetrics struct {
	registry *prometheus.Registry
	position *prometheus.GaugeVec
	mode     prometheus.Gauge
	latency  prometheus.Histogram
}

func newWatchMetrics(stats *cube.Statistics) *watchMetrics {
	m := &watchMetrics{
		registry: prometheus.NewRegistry(),
		position: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "cube",
				Name:      "position",
				Help:      "Last reported position component in the active coordinate mode.",
			},
			[]string{"axis"},
		),
		mode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cube",
			Name:      "coordinate_mode",
			Help:      "Last reported coordinate mode (0 cartesian, 1 cylindrical, 2 spherical).",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "transaction_duration_seconds",
			Help:      "Time from command write to decoded reply.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}
	m.registry.MustRegister(newStatsCollector(stats), m.position, m.mode, m.latency)
	return m
}

// observe records a successful poll
func (m *watchMetrics) observe(r *cube.Reply, elapsed time.Duration) {
	m.latency.Observe(elapsed.Seconds())
	m.mode.Set(float64(r.Status.Mode))
	m.position.WithLabelValues("a").Set(float64(r.Status.Position.A))
	m.position.WithLabelValues("b").Set(float64(r.Status.Position.B))
	m.position.WithLabelValues("c").Set(float64(r.Status.Position.C))
}

// serve exposes /metrics on addr until ctx is done
func (m *watchMetrics) serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
