package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики клиента.
//
// Регистрируются в DefaultRegisterer при первом импорте пакета.
// Экспонируются через promhttp в cmd/taskrouter-monitor.
var (
	// SignalingConnects — количество успешных подключений к signaling-серверу.
	SignalingConnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_signaling_connects_total",
		Help: "Successful signaling channel connections",
	})

	// SignalingReconnects — количество попыток переподключения.
	SignalingReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_signaling_reconnects_total",
		Help: "Signaling channel reconnect attempts",
	})

	// FramesReceived — входящие push-события по типам.
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskrouter_frames_received_total",
		Help: "Inbound push frames by event type",
	}, []string{"event_type"})

	// APIRequests — исходящие REST-запросы по результату (ok/error).
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskrouter_api_requests_total",
		Help: "Outbound REST requests by outcome",
	}, []string{"outcome"})

	// Resyncs — количество успешных выравниваний состояния после переподключения.
	Resyncs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_resyncs_total",
		Help: "Successful state resyncs after reconnect",
	})
)
