// Package telemetry обеспечивает наблюдаемость SDK.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Библиотечные компоненты принимают *slog.Logger через Config;
// метрики экспортируются на /metrics endpoint в cmd/taskrouter-monitor.
package telemetry
