package events

// Type — тип события в шине.
//
// Множество закрыто: новые типы добавляются только константами ниже,
// диспетчеризация идёт по точному совпадению типа.
type Type string

// События Task.
const (
	TaskUpdated               Type = "updated"
	TaskCanceled              Type = "canceled"
	TaskCompleted             Type = "completed"
	TaskWrapup                Type = "wrapup"
	TaskTransferInitiated     Type = "transferInitiated"
	TaskTransferCompleted     Type = "transferCompleted"
	TaskTransferAttemptFailed Type = "transferAttemptFailed"
	TaskTransferFailed        Type = "transferFailed"
)

// События Reservation.
const (
	ReservationAccepted  Type = "accepted"
	ReservationRejected  Type = "rejected"
	ReservationTimeout   Type = "timeout"
	ReservationCanceled  Type = "canceled"
	ReservationWrapup    Type = "wrapup"
	ReservationCompleted Type = "completed"
)

// События Worker.
const (
	WorkerReady              Type = "ready"
	WorkerActivityUpdated    Type = "activityUpdated"
	WorkerAttributesUpdated  Type = "attributesUpdated"
	WorkerReservationCreated Type = "reservationCreated"
	WorkerTokenUpdated       Type = "tokenUpdated"
	WorkerTokenExpiring      Type = "tokenExpiring"
	WorkerDisconnected       Type = "disconnected"
	WorkerError              Type = "error"
)
