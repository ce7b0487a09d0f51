package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_http_responses_total",
		Help: "Feed responses by feed and status code",
	}, []string{"feed", "code"})

	encodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_encodes_total",
		Help: "Feed documents encoded by format",
	}, []string{"format"})
)
