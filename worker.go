package taskrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/creedasaurus/taskrouter/internal/descriptor"
	"github.com/creedasaurus/taskrouter/internal/events"
	"github.com/creedasaurus/taskrouter/internal/rest"
	"github.com/creedasaurus/taskrouter/internal/signaling"
	"github.com/creedasaurus/taskrouter/internal/telemetry"
)

// disconnectReason отдаётся подписчикам при явном Disconnect.
const disconnectReason = "SDK Disconnect"

// resyncTimeout ограничивает запрос свежего снимка после переподключения.
const resyncTimeout = 30 * time.Second

// Config — конфигурация Worker. Нулевое значение пригодно:
// отсутствующие поля заполняются значениями по умолчанию.
type Config struct {
	// WSServer — адрес signaling-сервера.
	WSServer string

	// EBServer — базовый адрес REST API.
	EBServer string

	// HTTPClient — опционально; если nil — клиент с таймаутом 30s.
	HTTPClient *http.Client

	// Dialer — транспорт signaling-канала; если nil — websocket.
	Dialer signaling.Dialer

	// Logger — опционально; если nil — slog.Default().
	Logger *slog.Logger
}

// Worker — корневой объект сессии.
//
// Держит signaling-канал, REST-клиент и активные reservations.
// Push-события применяются последовательно, в порядке получения кадров.
type Worker struct {
	config  *Configuration
	client  *rest.Client
	channel *signaling.Channel
	bus     *events.Bus
	logger  *slog.Logger

	mu     sync.RWMutex
	fields descriptor.WorkerDescriptor
	routes *rest.Routes

	// reservations — активные reservations по их sid;
	// tasks — индекс владеющего reservation по sid task'а.
	reservations map[string]*Reservation
	tasks        map[string]*Reservation
}

// NewWorker создаёт Worker. Сессия устанавливается вызовом Connect.
func NewWorker(token string, cfg Config) (*Worker, error) {
	config, err := NewConfiguration(token, cfg.WSServer, cfg.EBServer)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		config:       config,
		bus:          events.NewBus(),
		logger:       logger,
		reservations: make(map[string]*Reservation),
		tasks:        make(map[string]*Reservation),
	}

	w.client = rest.NewClient(rest.Config{
		BaseURL:    config.EBServer(),
		Tokens:     config,
		HTTPClient: cfg.HTTPClient,
		Logger:     logger,
	})

	w.channel = signaling.New(signaling.Config{
		URL:          config.WSServer(),
		Tokens:       config,
		Dialer:       cfg.Dialer,
		OnFrame:      w.handleFrame,
		OnReconnect:  w.resync,
		OnDisconnect: w.handleDisconnect,
		Logger:       logger,
	})

	return w, nil
}

// Connect устанавливает signaling-сессию.
// Идентичность worker'а приходит первым кадром; до него Sid пуст.
func (w *Worker) Connect(ctx context.Context) error {
	return w.channel.Connect(ctx)
}

// Disconnect терминально закрывает сессию.
// Подписчики disconnected получат причину ровно один раз.
func (w *Worker) Disconnect() {
	w.channel.Disconnect(disconnectReason)
}

// --- Accessors ---

func (w *Worker) snapshot() descriptor.WorkerDescriptor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fields
}

// Sid возвращает идентификатор worker.
func (w *Worker) Sid() string { return w.snapshot().Sid }

// AccountSid возвращает sid аккаунта.
func (w *Worker) AccountSid() string { return w.snapshot().AccountSid }

// WorkspaceSid возвращает sid workspace.
func (w *Worker) WorkspaceSid() string { return w.snapshot().WorkspaceSid }

// FriendlyName возвращает человекочитаемое имя worker'а.
func (w *Worker) FriendlyName() string { return w.snapshot().FriendlyName }

// ActivitySid возвращает sid текущей activity.
func (w *Worker) ActivitySid() string { return w.snapshot().ActivitySid }

// ActivityName возвращает имя текущей activity.
func (w *Worker) ActivityName() string { return w.snapshot().ActivityName }

// Available сообщает, доступен ли worker для новых reservations.
func (w *Worker) Available() bool { return w.snapshot().Available }

// Attributes возвращает копию атрибутов worker'а.
// Изменения возвращённой map на поля worker'а не влияют.
func (w *Worker) Attributes() map[string]any { return maps.Clone(w.snapshot().Attributes) }

// DateStatusChanged возвращает время последней смены activity.
func (w *Worker) DateStatusChanged() time.Time { return w.snapshot().DateStatusChanged }

// Reservations возвращает снимок активных reservations по их sid.
func (w *Worker) Reservations() map[string]*Reservation {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[string]*Reservation, len(w.reservations))
	for sid, r := range w.reservations {
		out[sid] = r
	}
	return out
}

// Reservation возвращает активный reservation по sid, либо nil.
func (w *Worker) Reservation(sid string) *Reservation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reservations[sid]
}

// ChannelState возвращает состояние signaling-канала.
func (w *Worker) ChannelState() signaling.State {
	return w.channel.State()
}

func (w *Worker) getRoutes() *rest.Routes {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.routes
}

// --- Mutations ---

// SetAttributes заменяет атрибуты worker'а на сервере.
// Локальные атрибуты обновляются только из успешного ответа.
func (w *Worker) SetAttributes(ctx context.Context, attributes map[string]any) error {
	if attributes == nil {
		return requiredParam("attributes")
	}

	encoded, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	params := url.Values{}
	params.Set("Attributes", string(encoded))

	return w.postWorker(ctx, params)
}

// UpdateActivity переводит worker'а в другую activity.
func (w *Worker) UpdateActivity(ctx context.Context, activitySid string) error {
	if activitySid == "" {
		return requiredParam("activitySid")
	}

	params := url.Values{}
	params.Set("ActivitySid", activitySid)

	return w.postWorker(ctx, params)
}

func (w *Worker) postWorker(ctx context.Context, params url.Values) error {
	routes := w.getRoutes()
	if routes == nil {
		return fmt.Errorf("%w: session is not established", ErrMissingParameter)
	}

	raw, err := w.client.Post(ctx, routes.Worker(), params, rest.V1)
	if err != nil {
		return err
	}

	d, err := descriptor.WorkerFromJSON(raw)
	if err != nil {
		return fmt.Errorf("parse worker response: %w", err)
	}

	w.applyWorker(d)
	return nil
}

// UpdateToken подменяет credential активной сессии.
//
// Остальное состояние (reservations, подписки) не сбрасывается.
// Подписчики tokenUpdated уведомляются ровно один раз на вызов;
// канал передёргивается и набирает заново уже с новым token'ом.
func (w *Worker) UpdateToken(newToken string) error {
	if err := w.config.UpdateToken(newToken); err != nil {
		return err
	}

	w.bus.Emit(events.WorkerTokenUpdated, nil)
	w.channel.UpdateToken()
	return nil
}

// --- Events ---

// On подписывает обработчик на тип события worker.
func (w *Worker) On(event EventType, handler func(payload any)) int {
	return w.bus.Subscribe(event, handler)
}

// Off снимает подписку.
func (w *Worker) Off(event EventType, id int) {
	w.bus.Unsubscribe(event, id)
}

// RemoveAllListeners снимает все подписки worker'а.
func (w *Worker) RemoveAllListeners() {
	w.bus.UnsubscribeAll()
}

// --- Frame demux ---

// handleFrame разбирает кадр и доставляет его адресату:
// сам worker, reservation или принадлежащий ему task.
func (w *Worker) handleFrame(frame signaling.Frame) {
	switch frame.EventType {
	case signaling.EventWorkerReady:
		w.handleWorkerFrame(frame.Payload, events.WorkerReady)
	case signaling.EventWorkerActivityUpdated:
		w.handleWorkerFrame(frame.Payload, events.WorkerActivityUpdated)
	case signaling.EventWorkerAttributesUpdated:
		w.handleWorkerFrame(frame.Payload, events.WorkerAttributesUpdated)
	case signaling.EventTokenExpiring:
		w.bus.Emit(events.WorkerTokenExpiring, nil)
	case signaling.EventReservationCreated:
		w.handleReservationCreated(frame.Payload)
	case signaling.EventReservationAccepted,
		signaling.EventReservationRejected,
		signaling.EventReservationTimeout,
		signaling.EventReservationCanceled,
		signaling.EventReservationWrapup,
		signaling.EventReservationCompleted:
		w.handleReservationFrame(frame.EventType, frame.Payload)
	case signaling.EventTaskUpdated,
		signaling.EventTaskCanceled,
		signaling.EventTaskCompleted,
		signaling.EventTaskWrapup:
		w.handleTaskFrame(frame.EventType, frame.Payload)
	case signaling.EventTransferInitiated,
		signaling.EventTransferCompleted,
		signaling.EventTransferAttemptFailed,
		signaling.EventTransferFailed:
		w.handleTransferFrame(frame.EventType, frame.Payload)
	default:
		w.logger.Debug("ignoring unknown frame", "event_type", frame.EventType)
	}
}

func (w *Worker) handleWorkerFrame(payload json.RawMessage, event events.Type) {
	d, err := descriptor.WorkerFromJSON(payload)
	if err != nil {
		w.emitError(fmt.Errorf("parse worker payload: %w", err))
		return
	}

	w.applyWorker(d)
	w.bus.Emit(event, w)
}

// applyWorker заменяет серверные поля worker'а снимком.
// Первый снимок фиксирует идентичность сессии для REST-маршрутов.
func (w *Worker) applyWorker(d *descriptor.WorkerDescriptor) {
	w.mu.Lock()
	established := w.routes == nil
	w.fields = *d
	if established {
		w.routes = rest.NewRoutes(d.WorkspaceSid, d.Sid)
	}
	w.mu.Unlock()

	if established {
		telemetry.WithWorkerSid(w.logger, d.Sid).Info("session established",
			"workspace_sid", d.WorkspaceSid,
			"activity", d.ActivityName,
		)
	}
}

func (w *Worker) handleReservationCreated(payload json.RawMessage) {
	d, err := descriptor.ReservationFromJSON(payload)
	if err != nil {
		w.emitError(fmt.Errorf("parse reservation payload: %w", err))
		return
	}

	r, err := w.materialize(d)
	if err != nil {
		w.emitError(err)
		return
	}

	w.bus.Emit(events.WorkerReservationCreated, r)
}

func (w *Worker) handleReservationFrame(event signaling.EventType, payload json.RawMessage) {
	d, err := descriptor.ReservationFromJSON(payload)
	if err != nil {
		w.emitError(fmt.Errorf("parse reservation payload: %w", err))
		return
	}

	w.mu.RLock()
	r := w.reservations[d.Sid]
	w.mu.RUnlock()

	// Кадр про неизвестный reservation материализует его из payload:
	// события за время разрыва не реплеятся, состояние достраивается
	// из того, что пришло.
	if r == nil {
		r, err = w.materialize(d)
		if err != nil {
			w.emitError(err)
			return
		}
	}

	r.handlePush(event, payload)

	if r.IsTerminal() {
		w.evict(r)
	}
}

func (w *Worker) handleTaskFrame(event signaling.EventType, payload json.RawMessage) {
	var peek struct {
		Sid string `json:"sid"`
	}
	if err := json.Unmarshal(payload, &peek); err != nil || peek.Sid == "" {
		w.emitError(fmt.Errorf("task payload without sid"))
		return
	}

	w.mu.RLock()
	r := w.tasks[peek.Sid]
	w.mu.RUnlock()

	if r == nil {
		w.logger.Debug("dropping frame for unknown task", "task_sid", peek.Sid, "event_type", event)
		return
	}

	r.Task().handlePush(event, payload)
}

// handleTransferFrame доставляет transfer-кадр до task.
// В payload sid — идентификатор самого transfer; адресат находится
// по reservation, из которого transfer инициирован.
func (w *Worker) handleTransferFrame(event signaling.EventType, payload json.RawMessage) {
	var peek struct {
		ReservationSid string `json:"initiating_reservation_sid"`
	}
	if err := json.Unmarshal(payload, &peek); err != nil || peek.ReservationSid == "" {
		w.emitError(fmt.Errorf("transfer payload without initiating reservation sid"))
		return
	}

	w.mu.RLock()
	r := w.reservations[peek.ReservationSid]
	w.mu.RUnlock()

	if r == nil {
		w.logger.Debug("dropping transfer frame for unknown reservation",
			"reservation_sid", peek.ReservationSid, "event_type", event)
		return
	}

	r.handlePush(event, payload)
}

// materialize создаёт reservation из снимка и регистрирует его в индексах.
func (w *Worker) materialize(d *descriptor.ReservationDescriptor) (*Reservation, error) {
	r, err := newReservation(w, d)
	if err != nil {
		return nil, fmt.Errorf("materialize reservation %s: %w", d.Sid, err)
	}

	w.mu.Lock()
	w.reservations[r.Sid()] = r
	w.tasks[r.Task().Sid()] = r
	w.mu.Unlock()

	return r, nil
}

// evict убирает терминальный reservation из индексов.
func (w *Worker) evict(r *Reservation) {
	w.mu.Lock()
	delete(w.reservations, r.Sid())
	delete(w.tasks, r.Task().Sid())
	w.mu.Unlock()

	w.logger.Debug("reservation evicted", "reservation_sid", r.Sid(), "status", r.Status())
}

func (w *Worker) emitError(err error) {
	w.logger.Error("worker event error", "error", err)
	w.bus.Emit(events.WorkerError, err)
}

// handleDisconnect доставляет терминальную причину подписчикам.
func (w *Worker) handleDisconnect(reason string) {
	w.bus.Emit(events.WorkerDisconnected, DisconnectedEvent{Message: reason})
}

// --- Resync ---

// resync запрашивает свежий снимок состояния после переподключения.
// События, пропущенные за время разрыва, не реплеятся: состояние
// выравнивается по снимку, подписчики получают результирующие события.
func (w *Worker) resync() {
	routes := w.getRoutes()
	if routes == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	raw, err := w.client.Get(ctx, routes.Worker(), rest.V1)
	if err != nil {
		w.emitError(fmt.Errorf("resync worker: %w", err))
		return
	}

	d, err := descriptor.WorkerFromJSON(raw)
	if err != nil {
		w.emitError(fmt.Errorf("resync worker: %w", err))
		return
	}
	w.applyWorker(d)

	if err := w.resyncReservations(ctx, routes); err != nil {
		w.emitError(err)
		return
	}

	telemetry.Resyncs.Inc()
	w.logger.Info("state resynced after reconnect")
}

// resyncReservations выравнивает набор активных reservations по снимку.
// Известные применяют свежие поля, новые материализуются,
// отсутствующие в снимке выбывают.
func (w *Worker) resyncReservations(ctx context.Context, routes *rest.Routes) error {
	raw, err := w.client.Get(ctx, routes.Reservations(), rest.V1)
	if err != nil {
		return fmt.Errorf("resync reservations: %w", err)
	}

	var list struct {
		Reservations []json.RawMessage `json:"reservations"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("resync reservations: %w", err)
	}

	seen := make(map[string]bool, len(list.Reservations))
	for _, item := range list.Reservations {
		d, err := descriptor.ReservationFromJSON(item)
		if err != nil {
			w.emitError(fmt.Errorf("resync reservations: %w", err))
			continue
		}

		seen[d.Sid] = true

		w.mu.RLock()
		r := w.reservations[d.Sid]
		w.mu.RUnlock()

		if r != nil {
			r.apply(d)
			continue
		}

		r, err = w.materialize(d)
		if err != nil {
			w.emitError(err)
			continue
		}
		w.bus.Emit(events.WorkerReservationCreated, r)
	}

	w.mu.Lock()
	for sid, r := range w.reservations {
		if !seen[sid] {
			delete(w.reservations, sid)
			delete(w.tasks, r.Task().Sid())
		}
	}
	w.mu.Unlock()

	return nil
}
