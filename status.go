package taskrouter

// TaskStatus — статус жизненного цикла Task.
//
// Граф переходов:
//
//	pending → reserved → assigned → wrapping → completed
//	   |         |          |          |
//	   └─────────┴──────────┴──────────┴──→ canceled
//
// Переходы монотонны вдоль графа: push-событие или REST-ответ
// не возвращают task в более ранний статус.
type TaskStatus string

// Статусы Task.
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusReserved  TaskStatus = "reserved"
	TaskStatusAssigned  TaskStatus = "assigned"
	TaskStatusWrapping  TaskStatus = "wrapping"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCanceled  TaskStatus = "canceled"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusCanceled:
		return true
	default:
		return false
	}
}

// ReservationStatus — статус жизненного цикла Reservation.
//
// Жизненный цикл:
//
//	pending → accepted → wrapping → completed
//	        ↘ rejected | timeout | canceled
type ReservationStatus string

// Статусы Reservation.
const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusAccepted  ReservationStatus = "accepted"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusTimeout   ReservationStatus = "timeout"
	ReservationStatusCanceled  ReservationStatus = "canceled"
	ReservationStatusWrapping  ReservationStatus = "wrapping"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// IsTerminal возвращает true, если статус финальный:
// reservation выбывает из активного набора worker'а.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusRejected, ReservationStatusTimeout,
		ReservationStatusCanceled, ReservationStatusCompleted:
		return true
	default:
		return false
	}
}

// TransferMode — режим передачи task другому worker'у.
type TransferMode string

// Режимы transfer.
const (
	// TransferModeCold — немедленная передача без участия текущего worker'а.
	TransferModeCold TransferMode = "cold"

	// TransferModeWarm — живой handoff с участием обеих сторон.
	TransferModeWarm TransferMode = "warm"
)
