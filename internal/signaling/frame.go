package signaling

import (
	"encoding/json"
	"fmt"
)

// EventType — тип входящего push-события.
type EventType string

// Типы кадров, приходящих по каналу.
const (
	EventWorkerReady             EventType = "worker.ready"
	EventWorkerActivityUpdated   EventType = "worker.activity.update"
	EventWorkerAttributesUpdated EventType = "worker.attributes.update"
	EventReservationCreated      EventType = "reservation.created"
	EventReservationAccepted     EventType = "reservation.accepted"
	EventReservationRejected     EventType = "reservation.rejected"
	EventReservationTimeout      EventType = "reservation.timeout"
	EventReservationCanceled     EventType = "reservation.canceled"
	EventReservationWrapup       EventType = "reservation.wrapup"
	EventReservationCompleted    EventType = "reservation.completed"
	EventTaskUpdated             EventType = "task.updated"
	EventTaskCanceled            EventType = "task.canceled"
	EventTaskCompleted           EventType = "task.completed"
	EventTaskWrapup              EventType = "task.wrapup"
	EventTransferInitiated       EventType = "task.transfer-initiated"
	EventTransferCompleted       EventType = "task.transfer-completed"
	EventTransferAttemptFailed   EventType = "task.transfer-attempt-failed"
	EventTransferFailed          EventType = "task.transfer-failed"
	EventTokenExpiring           EventType = "token.expiring"
)

// Frame — конверт входящего кадра.
//
// Payload — частичный или полный снимок полей сущности;
// разбор зависит от EventType и выполняется получателем
// через пакет descriptor.
type Frame struct {
	// EventType — тип события.
	EventType EventType `json:"event_type"`

	// Payload — сырой payload события.
	Payload json.RawMessage `json:"payload"`
}

// FrameHandler — получатель входящих кадров.
// Вызывается последовательно, в порядке получения из канала.
type FrameHandler func(frame Frame)

// decodeFrame разбирает конверт кадра.
func decodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.EventType == "" {
		return Frame{}, fmt.Errorf("frame without event_type")
	}
	return f, nil
}
