package descriptor

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReservationDescriptor — типизированный снимок Reservation.
//
// Reservation приходит вместе с вложенным снимком своего Task
// (событие reservation.created и REST-ответы несут оба).
type ReservationDescriptor struct {
	// Sid — идентификатор reservation.
	Sid string

	// AccountSid — идентификатор аккаунта.
	AccountSid string

	// WorkspaceSid — идентификатор workspace.
	WorkspaceSid string

	// WorkerSid — worker, которому предложен task.
	// Невладеющая обратная ссылка: разрешается через карту сущностей Worker.
	WorkerSid string

	// Status — reservation status: pending, accepted, rejected,
	// timeout, canceled, rescinded, wrapping, completed.
	Status string

	// Timeout — время на ответ в секундах.
	Timeout int

	// Task — вложенный снимок task.
	Task *TaskDescriptor

	// DateCreated, DateUpdated — временные метки сервера.
	DateCreated time.Time
	DateUpdated time.Time
}

// reservationPayload — проводная форма Reservation.
type reservationPayload struct {
	Sid               string       `json:"sid"`
	AccountSid        string       `json:"account_sid"`
	WorkspaceSid      string       `json:"workspace_sid"`
	WorkerSid         string       `json:"worker_sid"`
	ReservationStatus string       `json:"reservation_status"`
	Timeout           int          `json:"reservation_timeout"`
	Task              *taskPayload `json:"task"`
	DateCreated       unixTime     `json:"date_created"`
	DateUpdated       unixTime     `json:"date_updated"`
}

// ReservationFromJSON разбирает payload в ReservationDescriptor.
func ReservationFromJSON(raw []byte) (*ReservationDescriptor, error) {
	var p reservationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if p.Sid == "" {
		return nil, fmt.Errorf("%w: reservation", ErrMissingSid)
	}

	d := &ReservationDescriptor{
		Sid:          p.Sid,
		AccountSid:   p.AccountSid,
		WorkspaceSid: p.WorkspaceSid,
		WorkerSid:    p.WorkerSid,
		Status:       p.ReservationStatus,
		Timeout:      p.Timeout,
		DateCreated:  p.DateCreated.Time(),
		DateUpdated:  p.DateUpdated.Time(),
	}

	if p.Task != nil {
		task, err := taskFromPayload(p.Task)
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", p.Sid, err)
		}
		d.Task = task
	}

	return d, nil
}
