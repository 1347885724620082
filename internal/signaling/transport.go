package signaling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Таймауты транспорта.
const (
	defaultHandshakeTimeout = 15 * time.Second
	writeWait               = 10 * time.Second
	pongWait                = 60 * time.Second
)

// Conn — одно установленное соединение с signaling-сервером.
type Conn interface {
	// ReadMessage блокируется до следующего кадра или ошибки соединения.
	ReadMessage() ([]byte, error)

	// WriteMessage отправляет кадр.
	WriteMessage(data []byte) error

	// Ping отправляет liveness-проверку.
	Ping() error

	// Close закрывает соединение; блокирующийся ReadMessage вернёт ошибку.
	Close() error
}

// Dialer устанавливает соединения. Подменяется в тестах.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer — дефолтный Dialer поверх gorilla/websocket.
type WebsocketDialer struct {
	// HandshakeTimeout — таймаут handshake; 0 — значение по умолчанию.
	HandshakeTimeout time.Duration
}

// DialContext устанавливает websocket-соединение.
func (d *WebsocketDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	// Pong продлевает read deadline: живость соединения определяется
	// ответами на наши ping'и.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &wsConn{conn: conn}, nil
}

// wsConn — Conn поверх *websocket.Conn.
// Запись сериализуется мьютексом: gorilla допускает одного писателя.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *wsConn) Close() error {
	c.writeMu.Lock()
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	c.writeMu.Unlock()

	return c.conn.Close()
}
