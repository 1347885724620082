package descriptor

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkerDescriptor — типизированный снимок Worker.
//
// Приходит в handshake-кадре канала и в REST-ответах
// на обновление атрибутов/activity.
type WorkerDescriptor struct {
	// Sid — идентификатор worker.
	Sid string

	// AccountSid — идентификатор аккаунта.
	AccountSid string

	// WorkspaceSid — идентификатор workspace.
	WorkspaceSid string

	// FriendlyName — человекочитаемое имя.
	FriendlyName string

	// ActivitySid, ActivityName — текущая activity (Idle, Busy, ...).
	ActivitySid  string
	ActivityName string

	// Available — доступен ли worker для новых reservations.
	Available bool

	// Attributes — произвольные атрибуты worker.
	Attributes map[string]any

	// DateCreated, DateUpdated, DateStatusChanged — временные метки сервера.
	DateCreated       time.Time
	DateUpdated       time.Time
	DateStatusChanged time.Time
}

// workerPayload — проводная форма Worker.
type workerPayload struct {
	Sid               string          `json:"sid"`
	AccountSid        string          `json:"account_sid"`
	WorkspaceSid      string          `json:"workspace_sid"`
	FriendlyName      string          `json:"friendly_name"`
	ActivitySid       string          `json:"activity_sid"`
	ActivityName      string          `json:"activity_name"`
	Available         bool            `json:"available"`
	Attributes        json.RawMessage `json:"attributes"`
	DateCreated       unixTime        `json:"date_created"`
	DateUpdated       unixTime        `json:"date_updated"`
	DateStatusChanged unixTime        `json:"date_status_changed"`
}

// WorkerFromJSON разбирает payload в WorkerDescriptor.
func WorkerFromJSON(raw []byte) (*WorkerDescriptor, error) {
	var p workerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if p.Sid == "" {
		return nil, fmt.Errorf("%w: worker", ErrMissingSid)
	}

	attrs, err := parseAttributes(p.Attributes)
	if err != nil {
		return nil, fmt.Errorf("worker %s: %w", p.Sid, err)
	}

	return &WorkerDescriptor{
		Sid:               p.Sid,
		AccountSid:        p.AccountSid,
		WorkspaceSid:      p.WorkspaceSid,
		FriendlyName:      p.FriendlyName,
		ActivitySid:       p.ActivitySid,
		ActivityName:      p.ActivityName,
		Available:         p.Available,
		Attributes:        attrs,
		DateCreated:       p.DateCreated.Time(),
		DateUpdated:       p.DateUpdated.Time(),
		DateStatusChanged: p.DateStatusChanged.Time(),
	}, nil
}
