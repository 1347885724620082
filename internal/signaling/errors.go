package signaling

import "errors"

// Ошибки канала.
var (
	// ErrChannelClosed — канал терминально закрыт, операции невозможны.
	ErrChannelClosed = errors.New("signaling channel closed")

	// ErrAlreadyConnected — Connect на уже установленном соединении.
	ErrAlreadyConnected = errors.New("signaling channel already connected")
)
