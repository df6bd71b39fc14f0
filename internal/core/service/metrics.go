package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediabot",
		Name:      "messages_processed_total",
		Help:      "Inbound command messages by command name and outcome.",
	}, []string{"command", "result"})

	mediaEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mediabot",
		Name:      "media_enqueued_total",
		Help:      "Media items added to player queues.",
	})

	activePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mediabot",
		Name:      "active_players",
		Help:      "Live media players held by the orchestrator.",
	})

	messagesRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mediabot",
		Name:      "messages_rate_limited_total",
		Help:      "Messages rejected by the per-conversation rate limiter.",
	})
)
