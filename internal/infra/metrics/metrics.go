package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indent_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "indent_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	ExportDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indent_export_documents_total",
		Help: "Generated export documents by kind (xlsx, pdf) and result.",
	}, []string{"kind", "result"})

	RealtimeChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indent_realtime_changes_total",
		Help: "Change notifications received by table and operation.",
	}, []string{"table", "op"})

	CartApprovals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indent_cart_approved_requests_total",
		Help: "Requests moved from Pending to Approved.",
	})
)
