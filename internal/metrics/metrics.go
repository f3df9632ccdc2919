// Package metrics содержит коллекторы Prometheus сервиса генераций.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	GenerationsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generations_created_total",
			Help: "Total number of accepted generation requests.",
		},
	)

	GenerationsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_finished_total",
			Help: "Total number of generations that reached a terminal status.",
		},
		[]string{"status"},
	)

	GenerationProcessingSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_processing_duration_seconds",
			Help:    "Duration of a single processing attempt.",
			Buckets: []float64{0.5, 1, 2, 3, 4, 5, 7.5, 10, 20},
		},
	)

	GenerationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "generations_in_flight",
			Help: "Number of processing attempts currently running.",
		},
	)
)

// Метки результата для счётчиков авторизации.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

var registerOnce sync.Once

// MustRegister регистрирует коллекторы в reg. Повторные вызовы ничего не делают.
func MustRegister(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			AuthRegistrationsTotal,
			AuthLoginsTotal,
			GenerationsCreatedTotal,
			GenerationsFinishedTotal,
			GenerationProcessingSeconds,
			GenerationsInFlight,
		)
	})
}
