package taskrouter

import (
	"time"

	"github.com/creedasaurus/taskrouter/internal/descriptor"
)

// Transfer — запрос на передачу task другому worker'у или в очередь.
//
// Transfer эфемерен: значение живёт в payload'ах transfer-событий
// (transferInitiated, transferCompleted, ...) и не хранится
// в карте сущностей Worker'а.
type Transfer struct {
	// Sid — идентификатор transfer.
	Sid string

	// Mode — cold или warm.
	Mode TransferMode

	// To — целевой worker или очередь.
	To string

	// ReservationSid — reservation, из которого инициирован transfer.
	ReservationSid string

	// Status — initiated, complete, failed, canceled.
	Status string

	// Attributes — атрибуты, передаваемые вместе с transfer.
	Attributes map[string]any

	// Priority — приоритет передаваемого task.
	Priority int

	// DateCreated, DateUpdated — временные метки сервера.
	DateCreated time.Time
	DateUpdated time.Time
}

// newTransfer строит Transfer из дескриптора.
func newTransfer(d *descriptor.TransferDescriptor) *Transfer {
	return &Transfer{
		Sid:            d.Sid,
		Mode:           TransferMode(d.Mode),
		To:             d.To,
		ReservationSid: d.ReservationSid,
		Status:         d.Status,
		Attributes:     d.Attributes,
		Priority:       d.Priority,
		DateCreated:    d.DateCreated,
		DateUpdated:    d.DateUpdated,
	}
}
