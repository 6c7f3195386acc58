// Package metrics holds the process-wide Prometheus collectors served on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Marks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taptell",
		Name:      "attendance_marks_total",
		Help:      "Attendance mark requests by outcome.",
	}, []string{"result"})

	PhotoUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taptell",
		Name:      "photo_uploads_total",
		Help:      "Arrival photo uploads by outcome.",
	}, []string{"result"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taptell",
		Name:      "notifications_total",
		Help:      "Guardian notifications by outcome.",
	}, []string{"result"})

	LoginThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taptell",
		Name:      "login_throttled_total",
		Help:      "PIN logins rejected by the throttle.",
	})

	DatabaseUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taptell",
		Name:      "database_up",
		Help:      "1 when the last database probe succeeded.",
	})
)

const (
	ResultMarked        = "marked"
	ResultAlreadyMarked = "already_marked"
	ResultRejected      = "rejected"
	ResultOK            = "ok"
	ResultSkipped       = "skipped"
	ResultFailed        = "failed"
)
