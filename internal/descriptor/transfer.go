package descriptor

import (
	"encoding/json"
	"fmt"
	"time"
)

// TransferDescriptor — типизированный снимок Transfer.
//
// Transfer эфемерен: снимок живёт только в payload'ах transfer-событий
// и не попадает в карту сущностей Worker.
type TransferDescriptor struct {
	// Sid — идентификатор transfer.
	Sid string

	// Mode — режим: "cold" (немедленная передача) или "warm" (живой handoff).
	Mode string

	// To — целевой worker или очередь.
	To string

	// ReservationSid — reservation, из которого инициирован transfer.
	ReservationSid string

	// Status — transfer status: initiated, complete, failed, canceled.
	Status string

	// Attributes — атрибуты, передаваемые вместе с transfer.
	Attributes map[string]any

	// Priority — приоритет передаваемого task.
	Priority int

	// DateCreated, DateUpdated — временные метки сервера.
	DateCreated time.Time
	DateUpdated time.Time
}

// transferPayload — проводная форма Transfer.
type transferPayload struct {
	Sid                      string          `json:"sid"`
	TransferMode             string          `json:"transfer_mode"`
	TransferTo               string          `json:"transfer_to"`
	InitiatingReservationSid string          `json:"initiating_reservation_sid"`
	TransferStatus           string          `json:"transfer_status"`
	Attributes               json.RawMessage `json:"attributes"`
	Priority                 int             `json:"priority"`
	DateCreated              unixTime        `json:"date_created"`
	DateUpdated              unixTime        `json:"date_updated"`
}

// TransferFromJSON разбирает payload в TransferDescriptor.
func TransferFromJSON(raw []byte) (*TransferDescriptor, error) {
	var p transferPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if p.Sid == "" {
		return nil, fmt.Errorf("%w: transfer", ErrMissingSid)
	}

	attrs, err := parseAttributes(p.Attributes)
	if err != nil {
		return nil, fmt.Errorf("transfer %s: %w", p.Sid, err)
	}

	return &TransferDescriptor{
		Sid:            p.Sid,
		Mode:           p.TransferMode,
		To:             p.TransferTo,
		ReservationSid: p.InitiatingReservationSid,
		Status:         p.TransferStatus,
		Attributes:     attrs,
		Priority:       p.Priority,
		DateCreated:    p.DateCreated.Time(),
		DateUpdated:    p.DateUpdated.Time(),
	}, nil
}
