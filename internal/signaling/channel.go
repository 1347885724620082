package signaling

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/creedasaurus/taskrouter/internal/telemetry"
)

// State — состояние канала.
type State string

// Состояния канала.
const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Значения конфигурации по умолчанию.
const (
	defaultHeartbeat    = 30 * time.Second
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
	defaultMaxAttempts  = 10
)

// TokenSource отдаёт актуальный credential сессии.
// Канал читает его перед каждым dial'ом — после updateToken
// переподключение идёт уже со свежим token'ом.
type TokenSource interface {
	Token() string
}

// Channel — постоянное соединение с маршрутизирующим backend'ом.
//
// Входящие кадры отдаются в OnFrame в порядке получения.
// При неожиданном разрыве канал переподключается сам (bounded backoff);
// Disconnect терминален.
type Channel struct {
	wsURL  string
	tokens TokenSource
	dialer Dialer

	onFrame      FrameHandler
	onReconnect  func()
	onDisconnect func(reason string)

	heartbeat    time.Duration
	initialDelay time.Duration
	maxDelay     time.Duration
	maxAttempts  int

	logger *slog.Logger

	mu        sync.RWMutex
	state     State
	conn      Conn
	reconnect bool // выставлен UpdateToken; соединение передёргивается с новым token'ом
	immediate bool // следующий redial без задержки (token-цикл)
	closed    bool
	closedCh  chan struct{}
	wg        sync.WaitGroup
}

// Config — конфигурация Channel.
type Config struct {
	// URL — адрес signaling-сервера (ws:// или wss://).
	URL string

	// Tokens — источник credential.
	Tokens TokenSource

	// Dialer — транспорт; если nil — WebsocketDialer.
	Dialer Dialer

	// OnFrame — получатель входящих кадров.
	OnFrame FrameHandler

	// OnReconnect — вызывается после каждого успешного переподключения;
	// владелец запрашивает свежий снимок состояния (события за время
	// разрыва не реплеятся).
	OnReconnect func()

	// OnDisconnect — вызывается ровно один раз при терминальном закрытии.
	OnDisconnect func(reason string)

	// Heartbeat — интервал ping (default: 30s).
	Heartbeat time.Duration

	// InitialDelay, MaxDelay — границы backoff (default: 1s, 30s).
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// MaxAttempts — бюджет переподключений на один разрыв (default: 10).
	MaxAttempts int

	// Logger — опционально; если nil — slog.Default().
	Logger *slog.Logger
}

// New создаёт Channel. Соединение устанавливается вызовом Connect.
func New(cfg Config) *Channel {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &WebsocketDialer{}
	}

	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}

	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Channel{
		wsURL:        cfg.URL,
		tokens:       cfg.Tokens,
		dialer:       dialer,
		onFrame:      cfg.OnFrame,
		onReconnect:  cfg.OnReconnect,
		onDisconnect: cfg.OnDisconnect,
		heartbeat:    heartbeat,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		maxAttempts:  maxAttempts,
		logger:       logger,
		state:        StateConnecting,
		closedCh:     make(chan struct{}),
	}
}

// Connect устанавливает соединение и запускает цикл чтения.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dialer.DialContext(ctx, c.dialURL())
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrChannelClosed
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	telemetry.SignalingConnects.Inc()
	c.logger.Info("signaling channel connected")

	c.wg.Add(1)
	go c.run(ctx, conn)

	return nil
}

// run — основной цикл: чтение кадров, переподключение при разрыве.
func (c *Channel) run(ctx context.Context, conn Conn) {
	defer c.wg.Done()

	for {
		c.readFrames(conn)

		if c.isClosed() {
			return
		}
		if ctx.Err() != nil {
			c.terminate("Connection lost")
			return
		}

		c.setState(StateReconnecting)
		c.logger.Warn("signaling connection lost, reconnecting")

		next, ok := c.redial(ctx)
		if !ok {
			c.terminate("Connection lost")
			return
		}

		conn = next
		c.setState(StateConnected)
		telemetry.SignalingConnects.Inc()

		if c.onReconnect != nil {
			c.onReconnect()
		}
	}
}

// readFrames читает кадры до ошибки соединения.
func (c *Channel) readFrames(conn Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go c.heartbeatLoop(conn, stop)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		frame, err := decodeFrame(data)
		if err != nil {
			// Некорректный кадр не валит соединение
			c.logger.Error("dropping malformed frame", "error", err)
			continue
		}

		telemetry.FramesReceived.WithLabelValues(string(frame.EventType)).Inc()
		c.logger.Debug("received frame", "event_type", frame.EventType)

		if c.onFrame != nil {
			c.onFrame(frame)
		}
	}
}

// heartbeatLoop отправляет ping до закрытия соединения.
func (c *Channel) heartbeatLoop(conn Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.closedCh:
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}

// redial переподключается с экспоненциальной задержкой.
// Возвращает false, если бюджет попыток исчерпан или канал закрыт.
func (c *Channel) redial(ctx context.Context) (Conn, bool) {
	delay := c.initialDelay

	// Token-цикл: соединение передёрнуто намеренно, первый повтор сразу.
	c.mu.Lock()
	if c.immediate {
		c.immediate = false
		delay = 0
	}
	c.mu.Unlock()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if delay > 0 {
			c.logger.Info("attempting to reconnect", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, false
			case <-c.closedCh:
				return nil, false
			case <-time.After(delay):
			}
		}

		telemetry.SignalingReconnects.Inc()

		conn, err := c.dialer.DialContext(ctx, c.dialURL())
		if err == nil {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				conn.Close()
				return nil, false
			}
			c.conn = conn
			c.mu.Unlock()

			c.logger.Info("signaling channel reconnected", "attempt", attempt)
			return conn, true
		}

		c.logger.Warn("reconnect failed", "attempt", attempt, "error", err)

		if delay == 0 {
			delay = c.initialDelay
		} else {
			delay = min(delay*2, c.maxDelay)
		}
	}

	return nil, false
}

// UpdateToken применяет новый credential к активному соединению.
//
// Остальное состояние сессии не сбрасывается: текущее соединение
// закрывается, и цикл чтения немедленно набирает заново — dial читает
// уже обновлённый TokenSource. Если соединения нет, token будет
// использован при следующем Connect.
func (c *Channel) UpdateToken() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.reconnect = true
	c.immediate = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Disconnect терминально закрывает канал.
// Переподключений больше не будет; OnDisconnect получит reason ровно один раз.
func (c *Channel) Disconnect(reason string) {
	c.terminate(reason)
}

// terminate — единственная точка терминального закрытия.
func (c *Channel) terminate(reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = StateClosed
	close(c.closedCh)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.logger.Info("signaling channel closed", "reason", reason)

	if c.onDisconnect != nil {
		c.onDisconnect(reason)
	}
}

// State возвращает текущее состояние канала.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Reconnect сообщает, был ли канал передёрнут обновлением token'а.
func (c *Channel) Reconnect() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnect
}

func (c *Channel) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.state = s
	}
}

// dialURL — адрес подключения с текущим token'ом.
func (c *Channel) dialURL() string {
	return c.wsURL + "?token=" + url.QueryEscape(c.tokens.Token())
}
