package taskrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/creedasaurus/taskrouter/internal/descriptor"
	"github.com/creedasaurus/taskrouter/internal/events"
	"github.com/creedasaurus/taskrouter/internal/rest"
	"github.com/creedasaurus/taskrouter/internal/signaling"
	"github.com/creedasaurus/taskrouter/internal/telemetry"
)

// Reservation — предложение конкретного task конкретному worker'у.
//
// Владеет своим Task. Обратная связь с worker'ом — только sid, без
// указателя на агрегат. Accept и Reject применяют статус оптимистично
// и откатывают его при отказе backend'а.
type Reservation struct {
	client *rest.Client
	routes *rest.Routes
	bus    *events.Bus
	logger *slog.Logger

	workerSid string
	task      *Task

	// onTerminal уведомляет владельца о терминальном статусе,
	// достигнутом через REST: reservation выбывает из активного
	// набора независимо от того, придёт ли push-кадр.
	onTerminal func(*Reservation)

	mu          sync.Mutex
	sid         string
	status      ReservationStatus
	timeout     int
	dateCreated time.Time
	dateUpdated time.Time
}

// newReservation создаёт Reservation вместе с принадлежащим ему Task.
func newReservation(w *Worker, d *descriptor.ReservationDescriptor) (*Reservation, error) {
	if w == nil {
		return nil, requiredParam("worker")
	}
	if d == nil {
		return nil, requiredParam("descriptor")
	}
	if d.Task == nil {
		return nil, requiredParam("task")
	}

	task, err := newTask(w, d.Sid, d.Task)
	if err != nil {
		return nil, err
	}

	return &Reservation{
		client:      w.client,
		routes:      w.getRoutes(),
		bus:         events.NewBus(),
		logger:      telemetry.WithReservationSid(w.logger, d.Sid),
		workerSid:   d.WorkerSid,
		onTerminal:  w.evict,
		task:        task,
		sid:         d.Sid,
		status:      ReservationStatus(d.Status),
		timeout:     d.Timeout,
		dateCreated: d.DateCreated,
		dateUpdated: d.DateUpdated,
	}, nil
}

// Sid возвращает идентификатор reservation.
func (r *Reservation) Sid() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sid
}

// Status возвращает текущий статус reservation.
func (r *Reservation) Status() ReservationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Timeout возвращает таймаут reservation в секундах.
func (r *Reservation) Timeout() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeout
}

// DateCreated возвращает время создания reservation на сервере.
func (r *Reservation) DateCreated() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dateCreated
}

// DateUpdated возвращает время последнего обновления на сервере.
func (r *Reservation) DateUpdated() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dateUpdated
}

// WorkerSid возвращает sid worker'а, которому адресован reservation.
func (r *Reservation) WorkerSid() string { return r.workerSid }

// Task возвращает task, принадлежащий reservation.
func (r *Reservation) Task() *Task { return r.task }

// IsTerminal сообщает, достиг ли reservation терминального статуса.
func (r *Reservation) IsTerminal() bool { return r.Status().IsTerminal() }

// Accept принимает reservation.
//
// Статус переводится в accepted до сетевого вызова; при отказе
// backend'а откатывается к прежнему. При успехе применяется снимок
// из ответа.
func (r *Reservation) Accept(ctx context.Context) (*Reservation, error) {
	params := url.Values{}
	params.Set("ReservationStatus", string(ReservationStatusAccepted))

	return r.postStatus(ctx, ReservationStatusAccepted, params)
}

// RejectOptions — опции Reject.
type RejectOptions struct {
	// ActivitySid — activity, в которую перевести worker'а после отказа.
	ActivitySid string
}

// Reject отклоняет reservation.
func (r *Reservation) Reject(ctx context.Context, opts RejectOptions) (*Reservation, error) {
	params := url.Values{}
	params.Set("ReservationStatus", string(ReservationStatusRejected))
	if opts.ActivitySid != "" {
		params.Set("WorkerActivitySid", opts.ActivitySid)
	}

	return r.postStatus(ctx, ReservationStatusRejected, params)
}

// postStatus применяет статус оптимистично, выполняет мутацию и при
// отказе возвращает прежний статус.
func (r *Reservation) postStatus(ctx context.Context, optimistic ReservationStatus, params url.Values) (*Reservation, error) {
	r.mu.Lock()
	previous := r.status
	r.status = optimistic
	r.mu.Unlock()

	raw, err := r.client.Post(ctx, r.routes.Reservation(r.Sid()), params, rest.V1)
	if err != nil {
		r.mu.Lock()
		r.status = previous
		r.mu.Unlock()
		return nil, err
	}

	d, err := descriptor.ReservationFromJSON(raw)
	if err != nil {
		r.mu.Lock()
		r.status = previous
		r.mu.Unlock()
		return nil, fmt.Errorf("parse reservation response: %w", err)
	}

	r.apply(d)

	if r.IsTerminal() && r.onTerminal != nil {
		r.onTerminal(r)
	}

	return r, nil
}

// apply заменяет серверные поля reservation снимком.
// Вложенный task, если он присутствует, применяется к принадлежащему Task.
func (r *Reservation) apply(d *descriptor.ReservationDescriptor) {
	r.mu.Lock()
	r.sid = d.Sid
	r.status = ReservationStatus(d.Status)
	r.timeout = d.Timeout
	r.dateCreated = d.DateCreated
	r.dateUpdated = d.DateUpdated
	r.mu.Unlock()

	if d.Task != nil {
		r.task.apply(d.Task)
	}
}

// --- Events ---

// On подписывает обработчик на тип события reservation.
func (r *Reservation) On(event EventType, handler func(payload any)) int {
	return r.bus.Subscribe(event, handler)
}

// Off снимает подписку.
func (r *Reservation) Off(event EventType, id int) {
	r.bus.Unsubscribe(event, id)
}

// RemoveAllListeners снимает все подписки reservation.
func (r *Reservation) RemoveAllListeners() {
	r.bus.UnsubscribeAll()
}

// handlePush применяет входящее push-событие и уведомляет подписчиков.
func (r *Reservation) handlePush(event signaling.EventType, payload json.RawMessage) {
	switch event {
	case signaling.EventReservationAccepted:
		r.applyAndEmit(payload, events.ReservationAccepted)
	case signaling.EventReservationRejected:
		r.applyAndEmit(payload, events.ReservationRejected)
	case signaling.EventReservationTimeout:
		r.applyAndEmit(payload, events.ReservationTimeout)
	case signaling.EventReservationCanceled:
		r.applyAndEmit(payload, events.ReservationCanceled)
	case signaling.EventReservationWrapup:
		r.applyAndEmit(payload, events.ReservationWrapup)
	case signaling.EventReservationCompleted:
		r.applyAndEmit(payload, events.ReservationCompleted)
	default:
		t := r.task
		if t != nil {
			t.handlePush(event, payload)
		}
	}
}

// applyAndEmit нормализует payload в поля reservation и уведомляет
// подписчиков ровно этого типа события.
func (r *Reservation) applyAndEmit(payload json.RawMessage, event events.Type) {
	d, err := descriptor.ReservationFromJSON(payload)
	if err != nil {
		r.logger.Error("dropping reservation event", "event", event, "error", err)
		return
	}

	r.apply(d)
	r.bus.Emit(event, r)
}
