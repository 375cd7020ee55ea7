package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Inbound Telegram updates by type.",
	}, []string{"type"})

	handlerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_handler_errors_total",
		Help: "Events whose handling returned an error.",
	})

	sendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Outbound sends rejected by the Telegram API.",
	})
)
