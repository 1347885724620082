// TaskRouter Monitor — подключается к маршрутизирующему backend'у
// как worker и печатает поток событий сессии.
//
// Использование:
//
//	taskrouter-monitor --token TOKEN [--ws-server URL] [--eb-server URL]
//
// Экспонирует /metrics и /healthz на --metrics-addr.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/creedasaurus/taskrouter"
	"github.com/creedasaurus/taskrouter/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var (
		token       string
		wsServer    string
		ebServer    string
		metricsAddr string
	)

	rootCmd := &cobra.Command{
		Use:           "taskrouter-monitor",
		Short:         "TaskRouter Monitor — worker session event stream",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("TASKROUTER_TOKEN")
			}
			return run(token, wsServer, ebServer, metricsAddr)
		},
	}

	rootCmd.Flags().StringVar(&token, "token", "", "Access token (or TASKROUTER_TOKEN)")
	rootCmd.Flags().StringVar(&wsServer, "ws-server", "", "Signaling server URL")
	rootCmd.Flags().StringVar(&ebServer, "eb-server", "", "REST API base URL")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":8083", "Metrics listen address")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(token, wsServer, ebServer, metricsAddr string) error {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting taskrouter-monitor")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	worker, err := taskrouter.NewWorker(token, taskrouter.Config{
		WSServer: wsServer,
		EBServer: ebServer,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	subscribe(worker, logger)

	if err := worker.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		logger.Info("listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	worker.Disconnect()
	logger.Info("taskrouter-monitor stopped")
	return nil
}

// subscribe печатает события сессии в structured log.
func subscribe(w *taskrouter.Worker, logger *slog.Logger) {
	w.On(taskrouter.EventReady, func(any) {
		logger.Info("worker ready",
			"worker_sid", w.Sid(),
			"activity", w.ActivityName(),
			"available", w.Available(),
		)
	})
	w.On(taskrouter.EventActivityUpdated, func(any) {
		logger.Info("activity updated", "activity", w.ActivityName(), "available", w.Available())
	})
	w.On(taskrouter.EventAttributesUpdated, func(any) {
		logger.Info("attributes updated", "attributes", w.Attributes())
	})
	w.On(taskrouter.EventReservationCreated, func(payload any) {
		r := payload.(*taskrouter.Reservation)
		logger.Info("reservation created",
			"reservation_sid", r.Sid(),
			"task_sid", r.Task().Sid(),
			"queue", r.Task().QueueName(),
			"timeout", r.Timeout(),
		)
	})
	w.On(taskrouter.EventTokenExpiring, func(any) {
		logger.Info("token expiring")
	})
	w.On(taskrouter.EventDisconnected, func(payload any) {
		logger.Info("disconnected", "reason", payload.(taskrouter.DisconnectedEvent).Message)
	})
	w.On(taskrouter.EventError, func(payload any) {
		logger.Error("worker error", "error", payload)
	})
}
