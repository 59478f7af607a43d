// Package metrics owns the Prometheus registry of the service.
package metrics

import (
	"net/http"
	"taskManager/internal/dto"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	tasksTotal        prometheus.Gauge
	tasksCompleted    prometheus.Gauge
	tasksPending      prometheus.Gauge
	tasksUrgentActive prometheus.Gauge
	tasksByCategory   *prometheus.GaugeVec
	tasksByPriority   *prometheus.GaugeVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		tasksTotal:        newTaskGauge(namespace, "total", "Number of stored tasks."),
		tasksCompleted:    newTaskGauge(namespace, "completed", "Number of completed tasks."),
		tasksPending:      newTaskGauge(namespace, "pending", "Number of pending tasks."),
		tasksUrgentActive: newTaskGauge(namespace, "urgent_active", "Number of urgent tasks not yet completed."),
		tasksByCategory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "by_category",
			Help:      "Number of tasks per category.",
		}, []string{"category"}),
		tasksByPriority: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "by_priority",
			Help:      "Number of tasks per priority.",
		}, []string{"priority"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.tasksTotal,
		m.tasksCompleted,
		m.tasksPending,
		m.tasksUrgentActive,
		m.tasksByCategory,
		m.tasksByPriority,
	)
	return m
}

func newTaskGauge(namespace, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      name,
		Help:      help,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveStatistics publishes a statistics snapshot. Groups absent from the snapshot are reset.
func (m *Metrics) ObserveStatistics(stats dto.StatisticsResponse) {
	m.tasksTotal.Set(float64(stats.Total))
	m.tasksCompleted.Set(float64(stats.Completed))
	m.tasksPending.Set(float64(stats.Pending))
	m.tasksUrgentActive.Set(float64(stats.UrgentActive))

	m.tasksByCategory.Reset()
	for category, n := range stats.ByCategory {
		m.tasksByCategory.WithLabelValues(category).Set(float64(n))
	}
	m.tasksByPriority.Reset()
	for priority, n := range stats.ByPriority {
		m.tasksByPriority.WithLabelValues(priority).Set(float64(n))
	}
}
