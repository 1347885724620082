package taskrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/creedasaurus/taskrouter/internal/descriptor"
	"github.com/creedasaurus/taskrouter/internal/events"
	"github.com/creedasaurus/taskrouter/internal/rest"
	"github.com/creedasaurus/taskrouter/internal/signaling"
	"github.com/creedasaurus/taskrouter/internal/telemetry"
)

// defaultWrapUpReason подставляется, если WrapUpOptions.Reason пуст.
const defaultWrapUpReason = "Task is wrapping."

// Task — единица работы, маршрутизируемая worker'у.
//
// Наблюдаемые поля — снимок последнего применённого состояния сервера.
// Успешная мутация заменяет все серверные поля целиком из ответа;
// отклонённая не меняет ничего. Push-события применяются в порядке
// получения; относительно одновременного REST-ответа действует
// last-applied-wins.
type Task struct {
	client *rest.Client
	routes *rest.Routes
	bus    *events.Bus
	logger *slog.Logger

	reservationSid string

	mu     sync.Mutex
	fields descriptor.TaskDescriptor
}

// newTask создаёт Task, принадлежащий reservation данного worker'а.
func newTask(w *Worker, reservationSid string, d *descriptor.TaskDescriptor) (*Task, error) {
	if w == nil {
		return nil, requiredParam("worker")
	}
	if reservationSid == "" {
		return nil, requiredParam("reservationSid")
	}
	if d == nil {
		return nil, requiredParam("descriptor")
	}

	return &Task{
		client:         w.client,
		routes:         w.getRoutes(),
		bus:            events.NewBus(),
		logger:         telemetry.WithTaskSid(w.logger, d.Sid),
		reservationSid: reservationSid,
		fields:         *d,
	}, nil
}

// --- Accessors ---

// snapshot возвращает копию наблюдаемых полей.
func (t *Task) snapshot() descriptor.TaskDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fields
}

// Sid возвращает идентификатор task.
func (t *Task) Sid() string { return t.snapshot().Sid }

// Status возвращает текущий статус task.
func (t *Task) Status() TaskStatus { return TaskStatus(t.snapshot().Status) }

// Attributes возвращает копию атрибутов task.
// Bag заменяется целиком при каждой успешной мутации, client-side merge нет;
// изменения возвращённой map на поля task не влияют.
func (t *Task) Attributes() map[string]any { return maps.Clone(t.snapshot().Attributes) }

// Reason возвращает причину завершения/wrap-up.
func (t *Task) Reason() string { return t.snapshot().Reason }

// Age возвращает возраст task в секундах.
func (t *Task) Age() int { return t.snapshot().Age }

// Priority возвращает приоритет маршрутизации.
func (t *Task) Priority() int { return t.snapshot().Priority }

// Timeout возвращает таймаут task в секундах.
func (t *Task) Timeout() int { return t.snapshot().Timeout }

// WorkflowSid возвращает sid workflow.
func (t *Task) WorkflowSid() string { return t.snapshot().WorkflowSid }

// WorkflowName возвращает имя workflow.
func (t *Task) WorkflowName() string { return t.snapshot().WorkflowName }

// QueueSid возвращает sid очереди.
func (t *Task) QueueSid() string { return t.snapshot().QueueSid }

// QueueName возвращает имя очереди.
func (t *Task) QueueName() string { return t.snapshot().QueueName }

// TaskChannelSid возвращает sid канала task.
func (t *Task) TaskChannelSid() string { return t.snapshot().TaskChannelSid }

// TaskChannelUniqueName возвращает уникальное имя канала task.
func (t *Task) TaskChannelUniqueName() string { return t.snapshot().TaskChannelUniqueName }

// DateCreated возвращает время создания task на сервере.
func (t *Task) DateCreated() time.Time { return t.snapshot().DateCreated }

// DateUpdated возвращает время последнего обновления на сервере.
func (t *Task) DateUpdated() time.Time { return t.snapshot().DateUpdated }

// ReservationSid возвращает reservation, которому принадлежит task.
func (t *Task) ReservationSid() string { return t.reservationSid }

// AccountSid возвращает sid аккаунта.
func (t *Task) AccountSid() string { return t.snapshot().AccountSid }

// WorkspaceSid возвращает sid workspace.
func (t *Task) WorkspaceSid() string { return t.snapshot().WorkspaceSid }

// AddOns возвращает копию результатов add-on интеграций.
func (t *Task) AddOns() map[string]any { return maps.Clone(t.snapshot().AddOns) }

// --- Mutations ---

// Complete переводит task в completed.
//
// Reason обязателен: его отсутствие — ошибка использования, сетевой
// вызов не выполняется. При отказе backend'а поля task не меняются.
func (t *Task) Complete(ctx context.Context, reason string) (*Task, error) {
	if reason == "" {
		return nil, requiredParam("reason")
	}

	params := url.Values{}
	params.Set("AssignmentStatus", string(TaskStatusCompleted))
	params.Set("Reason", reason)

	return t.postUpdate(ctx, params)
}

// WrapUpOptions — опции WrapUp.
type WrapUpOptions struct {
	// Reason — причина wrap-up; пустая заменяется дефолтной.
	Reason string
}

// WrapUp переводит task в wrapping.
func (t *Task) WrapUp(ctx context.Context, opts WrapUpOptions) (*Task, error) {
	reason := opts.Reason
	if reason == "" {
		reason = defaultWrapUpReason
	}

	params := url.Values{}
	params.Set("AssignmentStatus", string(TaskStatusWrapping))
	params.Set("Reason", reason)

	return t.postUpdate(ctx, params)
}

// SetAttributes заменяет атрибуты task на сервере.
//
// Атрибуты обязательны (nil — ошибка использования). При отказе
// backend'а локальные атрибуты остаются прежними.
func (t *Task) SetAttributes(ctx context.Context, attributes map[string]any) (*Task, error) {
	if attributes == nil {
		return nil, requiredParam("attributes")
	}

	encoded, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	params := url.Values{}
	params.Set("Attributes", string(encoded))

	return t.postUpdate(ctx, params)
}

// Hold ставит участника-клиента task на удержание.
func (t *Task) Hold(ctx context.Context) (*Task, error) {
	return t.UpdateParticipant(ctx, map[string]any{"hold": true})
}

// Unhold снимает участника-клиента task с удержания.
func (t *Task) Unhold(ctx context.Context) (*Task, error) {
	return t.UpdateParticipant(ctx, map[string]any{"hold": false})
}

// UpdateParticipant — обобщённая форма hold/unhold.
//
// options["hold"] обязателен и должен быть bool: значение другого типа —
// синхронная ошибка использования, до сетевого вызова. Нераспознанные
// ключи options детерминированно отбрасываются и в тело не попадают.
// При успехе применяются только поля из ответа (обычно подтверждение sid);
// статус task не меняется.
func (t *Task) UpdateParticipant(ctx context.Context, options map[string]any) (*Task, error) {
	if options == nil {
		return nil, requiredParam("options")
	}

	raw, ok := options["hold"]
	if !ok {
		return nil, requiredParam("hold")
	}
	hold, ok := raw.(bool)
	if !ok {
		return nil, typeMismatch("hold")
	}

	params := url.Values{}
	params.Set("Hold", strconv.FormatBool(hold))
	params.Set("TaskSid", t.Sid())

	resp, err := t.client.Post(ctx, t.routes.CustomerParticipant(), params, rest.V2)
	if err != nil {
		return nil, err
	}

	var confirm struct {
		Sid string `json:"sid"`
	}
	if err := json.Unmarshal(resp, &confirm); err != nil {
		return nil, fmt.Errorf("parse participant response: %w", err)
	}

	return t, nil
}

// TransferOptions — опции Transfer.
// Распознаются только перечисленные поля; произвольные опции не пробрасываются.
type TransferOptions struct {
	// Attributes — атрибуты, передаваемые вместе с transfer.
	Attributes map[string]any

	// Mode — cold или warm; пустой режим трактуется как cold.
	Mode TransferMode

	// Priority — приоритет передаваемого task; 0 не отправляется.
	Priority int
}

// Transfer инициирует передачу task, привязанную к текущему reservation.
//
// После успешного создания transfer поля task обновляются свежим
// снимком с сервера (тот же путь замены полей, что и у других мутаций).
func (t *Task) Transfer(ctx context.Context, to string, opts TransferOptions) (*Task, error) {
	if to == "" {
		return nil, requiredParam("to")
	}

	mode := opts.Mode
	if mode == "" {
		mode = TransferModeCold
	}

	params := url.Values{}
	params.Set("To", to)
	params.Set("Mode", string(mode))
	params.Set("ReservationSid", t.reservationSid)

	if opts.Attributes != nil {
		encoded, err := json.Marshal(opts.Attributes)
		if err != nil {
			return nil, fmt.Errorf("marshal attributes: %w", err)
		}
		params.Set("Attributes", string(encoded))
	}
	if opts.Priority > 0 {
		params.Set("Priority", strconv.Itoa(opts.Priority))
	}

	if _, err := t.client.Post(ctx, t.routes.Transfers(t.Sid()), params, rest.V1); err != nil {
		return nil, err
	}

	return t.refresh(ctx)
}

// postUpdate выполняет мутацию task и применяет ответ целиком.
// Ровно один исход на вызов: отклонённый ответ не меняет ни одного поля.
func (t *Task) postUpdate(ctx context.Context, params url.Values) (*Task, error) {
	raw, err := t.client.Post(ctx, t.routes.Task(t.Sid()), params, rest.V1)
	if err != nil {
		return nil, err
	}

	d, err := descriptor.TaskFromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse task response: %w", err)
	}

	t.apply(d)
	return t, nil
}

// refresh запрашивает свежий снимок task и применяет его.
func (t *Task) refresh(ctx context.Context) (*Task, error) {
	raw, err := t.client.Get(ctx, t.routes.Task(t.Sid()), rest.V1)
	if err != nil {
		return nil, err
	}

	d, err := descriptor.TaskFromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse task response: %w", err)
	}

	t.apply(d)
	return t, nil
}

// apply заменяет все серверные поля одним снимком.
func (t *Task) apply(d *descriptor.TaskDescriptor) {
	t.mu.Lock()
	t.fields = *d
	t.mu.Unlock()
}

// --- Events ---

// On подписывает обработчик на тип события task.
// Возвращает идентификатор подписки для Off.
func (t *Task) On(event EventType, handler func(payload any)) int {
	return t.bus.Subscribe(event, handler)
}

// Off снимает подписку.
func (t *Task) Off(event EventType, id int) {
	t.bus.Unsubscribe(event, id)
}

// RemoveAllListeners снимает все подписки task.
func (t *Task) RemoveAllListeners() {
	t.bus.UnsubscribeAll()
}

// handlePush применяет входящее push-событие и уведомляет подписчиков.
// Вызывается из demux Worker'а последовательно, в порядке получения кадров.
func (t *Task) handlePush(event signaling.EventType, payload json.RawMessage) {
	switch event {
	case signaling.EventTaskUpdated:
		t.applyAndEmit(payload, events.TaskUpdated)
	case signaling.EventTaskCanceled:
		t.applyAndEmit(payload, events.TaskCanceled)
	case signaling.EventTaskCompleted:
		t.applyAndEmit(payload, events.TaskCompleted)
	case signaling.EventTaskWrapup:
		t.applyAndEmit(payload, events.TaskWrapup)
	case signaling.EventTransferInitiated:
		t.emitTransfer(payload, events.TaskTransferInitiated)
	case signaling.EventTransferCompleted:
		t.emitTransfer(payload, events.TaskTransferCompleted)
	case signaling.EventTransferAttemptFailed:
		t.emitTransfer(payload, events.TaskTransferAttemptFailed)
	case signaling.EventTransferFailed:
		t.emitTransfer(payload, events.TaskTransferFailed)
	default:
		t.logger.Debug("ignoring unknown task event", "event_type", event)
	}
}

// applyAndEmit нормализует payload в поля task и уведомляет подписчиков
// ровно этого типа события.
func (t *Task) applyAndEmit(payload json.RawMessage, event events.Type) {
	d, err := descriptor.TaskFromJSON(payload)
	if err != nil {
		t.logger.Error("dropping task event", "event", event, "error", err)
		return
	}

	t.apply(d)
	t.bus.Emit(event, t)
}

// emitTransfer уведомляет подписчиков transfer-события.
// Поля task при этом не меняются: payload описывает transfer, не task.
func (t *Task) emitTransfer(payload json.RawMessage, event events.Type) {
	d, err := descriptor.TransferFromJSON(payload)
	if err != nil {
		t.logger.Error("dropping transfer event", "event", event, "error", err)
		return
	}

	t.bus.Emit(event, newTransfer(d))
}
