package telemetry

import (
	"log/slog"
	"os"
)

// LogLevel определяет уровень логирования из переменной окружения.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func LogLevel() slog.Level {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
func SetupLogger() *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     LogLevel(),
		AddSource: LogLevel() == slog.LevelDebug,
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithWorkerSid возвращает логгер с добавленным worker_sid.
func WithWorkerSid(logger *slog.Logger, sid string) *slog.Logger {
	return logger.With("worker_sid", sid)
}

// WithTaskSid возвращает логгер с добавленным task_sid.
func WithTaskSid(logger *slog.Logger, sid string) *slog.Logger {
	return logger.With("task_sid", sid)
}

// WithReservationSid возвращает логгер с добавленным reservation_sid.
func WithReservationSid(logger *slog.Logger, sid string) *slog.Logger {
	return logger.With("reservation_sid", sid)
}
