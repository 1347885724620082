package taskrouter

import "sync"

// Адреса backend'а по умолчанию.
const (
	defaultWSServer = "wss://event-bridge.twilio.com/v1/wschannels"
	defaultEBServer = "https://event-bridge.twilio.com/v1/wschannels"
)

// Configuration — сессионное состояние Worker'а: адреса backend'а
// и единственный разделяемый credential.
//
// Token мутируется с двух сторон (updateToken вызывающего и внутреннее
// продление по token.expiring), поэтому вся мутация идёт через одну
// атомарную замену под мьютексом — token никогда не применяется частично.
type Configuration struct {
	wsServer string
	ebServer string

	mu    sync.RWMutex
	token string
}

// NewConfiguration создаёт Configuration с непустым token.
func NewConfiguration(token, wsServer, ebServer string) (*Configuration, error) {
	if token == "" {
		return nil, requiredParam("token")
	}

	if wsServer == "" {
		wsServer = defaultWSServer
	}
	if ebServer == "" {
		ebServer = defaultEBServer
	}

	return &Configuration{
		wsServer: wsServer,
		ebServer: ebServer,
		token:    token,
	}, nil
}

// Token возвращает текущий credential.
// Реализует TokenSource для rest и signaling.
func (c *Configuration) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// UpdateToken заменяет credential целиком.
func (c *Configuration) UpdateToken(token string) error {
	if token == "" {
		return requiredParam("newToken")
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// WSServer возвращает адрес signaling-сервера.
func (c *Configuration) WSServer() string { return c.wsServer }

// EBServer возвращает базовый адрес REST API.
func (c *Configuration) EBServer() string { return c.ebServer }
