package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client-side counters
var (
	EstablishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whep_client_establish_total",
		Help: "Session establishments by outcome",
	}, []string{"outcome"})
	TerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whep_client_terminate_total",
		Help: "Session teardowns by outcome",
	}, []string{"outcome"})
	MissingLocatorTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whep_client_missing_locator_total",
		Help: "Establishments whose response carried no session locator",
	})
	TruncatedAnswersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whep_client_truncated_answers_total",
		Help: "Answers cut to the SDP size bound",
	})
	InboundRTPPacketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whep_client_rtp_packets_total",
		Help: "RTP packets drained from remote tracks",
	})
)

// Client-side histograms
var (
	EstablishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "whep_client_establish_duration_seconds",
		Help:    "Offer/answer exchange duration",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
	SDPBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "whep_client_sdp_bytes",
		Help:    "Size of SDP text by direction",
		Buckets: []float64{256, 512, 1024, 2048, 4096, 8192, 16384},
	}, []string{"direction"})
)

// Server gauges
var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "whep_server_active_sessions",
		Help: "Number of live WHIP/WHEP sessions",
	})
)

// Server counters
var (
	SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whep_server_sessions_created_total",
		Help: "Total sessions created",
	})
	SessionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whep_server_sessions_rejected_total",
		Help: "Offers rejected, by reason",
	}, []string{"reason"})
	SessionsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whep_server_sessions_deleted_total",
		Help: "Sessions released through DELETE or shutdown",
	})
	ServerRTPPacketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whep_server_rtp_packets_total",
		Help: "RTP packets received across all server sessions",
	})
)
