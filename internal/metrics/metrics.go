// Package metrics exposes Prometheus collectors for the workflow and HTTP layer.
package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kotpos/api/internal/events"
	"github.com/kotpos/api/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kotpos"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry     *prometheus.Registry
	kotsCreated  *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		kotsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kots_created_total",
			Help:      "KOTs created, by type.",
		}, []string{"type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_transitions_total",
			Help:      "Workflow state changes, by entity and target state.",
		}, []string{"entity", "to"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.kotsCreated,
		m.transitions,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Publish counts workflow events. It never fails.
func (m *Metrics) Publish(ctx context.Context, e events.Event) error {
	entity, action, _ := strings.Cut(string(e.Type), ".")

	switch e.Type {
	case events.KotCreated:
		var p struct {
			Kot struct {
				Type string `json:"type"`
			} `json:"kot"`
		}
		_ = json.Unmarshal(e.Payload, &p)
		m.kotsCreated.WithLabelValues(p.Kot.Type).Inc()
		m.transitions.WithLabelValues(entity, "pending").Inc()
	case events.KotStatusChanged:
		var p struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(e.Payload, &p)
		m.transitions.WithLabelValues(entity, p.Status).Inc()
	default:
		m.transitions.WithLabelValues(entity, targetState(entity, action)).Inc()
	}
	return nil
}

// targetState maps an event action to the state it leaves the entity in.
func targetState(entity, action string) string {
	switch {
	case entity == "bill" && action == "created":
		return "unpaid"
	case action == "created":
		return "pending"
	}
	return action
}

// Middleware records request latency under the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.
			WithLabelValues(r.Method, middleware.RoutePattern(r), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
