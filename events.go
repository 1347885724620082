package taskrouter

import "github.com/creedasaurus/taskrouter/internal/events"

// EventType — тип события, на который можно подписаться.
type EventType = events.Type

// События Worker.
const (
	EventReady              = events.WorkerReady
	EventActivityUpdated    = events.WorkerActivityUpdated
	EventAttributesUpdated  = events.WorkerAttributesUpdated
	EventReservationCreated = events.WorkerReservationCreated
	EventTokenUpdated       = events.WorkerTokenUpdated
	EventTokenExpiring      = events.WorkerTokenExpiring
	EventDisconnected       = events.WorkerDisconnected
	EventError              = events.WorkerError
)

// События Task.
const (
	EventTaskUpdated           = events.TaskUpdated
	EventTaskCanceled          = events.TaskCanceled
	EventTaskCompleted         = events.TaskCompleted
	EventTaskWrapup            = events.TaskWrapup
	EventTransferInitiated     = events.TaskTransferInitiated
	EventTransferCompleted     = events.TaskTransferCompleted
	EventTransferAttemptFailed = events.TaskTransferAttemptFailed
	EventTransferFailed        = events.TaskTransferFailed
)

// События Reservation.
const (
	EventReservationAccepted  = events.ReservationAccepted
	EventReservationRejected  = events.ReservationRejected
	EventReservationTimeout   = events.ReservationTimeout
	EventReservationCanceled  = events.ReservationCanceled
	EventReservationWrapup    = events.ReservationWrapup
	EventReservationCompleted = events.ReservationCompleted
)

// DisconnectedEvent — payload события disconnected.
type DisconnectedEvent struct {
	// Message — человекочитаемая причина (например, "SDK Disconnect").
	Message string
}
