package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/creedasaurus/taskrouter/internal/telemetry"
)

// defaultTimeout — таймаут HTTP-запроса по умолчанию.
const defaultTimeout = 30 * time.Second

// TokenSource отдаёт актуальный bearer token сессии.
//
// Token подменяется атомарно при updateToken — клиент всегда
// читает свежий credential перед каждым запросом.
type TokenSource interface {
	Token() string
}

// Client — HTTP-клиент TaskRouter API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	// BaseURL — базовый URL API (без версии).
	BaseURL string

	// Tokens — источник bearer token.
	Tokens TokenSource

	// HTTPClient — опционально; если nil — клиент с таймаутом 30s.
	HTTPClient *http.Client

	// Logger — опционально; если nil — slog.Default().
	Logger *slog.Logger
}

// NewClient создаёт Client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		logger:     logger,
	}
}

// Post отправляет form-encoded POST на версионированную цель.
//
// Возвращает сырое JSON-тело ответа. Запрос выполняется ровно один раз;
// не-2xx ответ превращается в *APIError, тело при этом не разбирается
// дальше сообщения об ошибке.
func (c *Client) Post(ctx context.Context, target string, params url.Values, version Version) (json.RawMessage, error) {
	body := strings.NewReader(params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(target, version), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// Get выполняет GET версионированной цели (resync-снимки).
func (c *Client) Get(ctx context.Context, target string, version Version) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(target, version), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.do(req)
}

func (c *Client) requestURL(target string, version Version) string {
	return c.baseURL + "/" + string(version) + "/" + target
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.APIRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.APIRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkError(resp.StatusCode, raw); err != nil {
		telemetry.APIRequests.WithLabelValues("error").Inc()
		c.logger.Debug("request rejected",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
		)
		return nil, err
	}

	telemetry.APIRequests.WithLabelValues("ok").Inc()
	return raw, nil
}

// checkError превращает не-2xx ответ в *APIError.
func checkError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := strings.TrimSpace(string(body))
	var er struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		msg = er.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}

	return &APIError{
		Name:    TaskRouterError,
		Message: msg,
		Status:  status,
	}
}
