package descriptor

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskDescriptor — типизированный снимок Task из payload'а сервера.
type TaskDescriptor struct {
	// Sid — идентификатор task.
	Sid string

	// AccountSid — идентификатор аккаунта.
	AccountSid string

	// WorkspaceSid — идентификатор workspace.
	WorkspaceSid string

	// Status — assignment status: pending, reserved, assigned,
	// canceled, completed, wrapping.
	Status string

	// Attributes — произвольные атрибуты task.
	Attributes map[string]any

	// AddOns — результаты add-on интеграций.
	AddOns map[string]any

	// Age — возраст task в секундах.
	Age int

	// Priority — приоритет маршрутизации.
	Priority int

	// Reason — причина завершения/wrap-up.
	Reason string

	// Timeout — таймаут task в секундах.
	Timeout int

	// WorkflowSid, WorkflowName — workflow, через который идёт маршрутизация.
	WorkflowSid  string
	WorkflowName string

	// QueueSid, QueueName — очередь task.
	QueueSid  string
	QueueName string

	// TaskChannelSid, TaskChannelUniqueName — канал task.
	TaskChannelSid        string
	TaskChannelUniqueName string

	// DateCreated, DateUpdated — временные метки сервера.
	DateCreated time.Time
	DateUpdated time.Time
}

// taskPayload — проводная форма Task.
type taskPayload struct {
	Sid                   string          `json:"sid"`
	AccountSid            string          `json:"account_sid"`
	WorkspaceSid          string          `json:"workspace_sid"`
	AssignmentStatus      string          `json:"assignment_status"`
	Attributes            json.RawMessage `json:"attributes"`
	AddOns                json.RawMessage `json:"addons"`
	Age                   int             `json:"age"`
	Priority              int             `json:"priority"`
	Reason                string          `json:"reason"`
	Timeout               int             `json:"timeout"`
	WorkflowSid           string          `json:"workflow_sid"`
	WorkflowName          string          `json:"workflow_name"`
	QueueSid              string          `json:"queue_sid"`
	QueueName             string          `json:"queue_name"`
	TaskChannelSid        string          `json:"task_channel_sid"`
	TaskChannelUniqueName string          `json:"task_channel_unique_name"`
	DateCreated           unixTime        `json:"date_created"`
	DateUpdated           unixTime        `json:"date_updated"`
}

// TaskFromJSON разбирает payload в TaskDescriptor.
func TaskFromJSON(raw []byte) (*TaskDescriptor, error) {
	var p taskPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return taskFromPayload(&p)
}

func taskFromPayload(p *taskPayload) (*TaskDescriptor, error) {
	if p.Sid == "" {
		return nil, fmt.Errorf("%w: task", ErrMissingSid)
	}

	attrs, err := parseAttributes(p.Attributes)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", p.Sid, err)
	}

	addOns, err := parseAttributes(p.AddOns)
	if err != nil {
		return nil, fmt.Errorf("task %s addons: %w", p.Sid, err)
	}

	return &TaskDescriptor{
		Sid:                   p.Sid,
		AccountSid:            p.AccountSid,
		WorkspaceSid:          p.WorkspaceSid,
		Status:                p.AssignmentStatus,
		Attributes:            attrs,
		AddOns:                addOns,
		Age:                   p.Age,
		Priority:              p.Priority,
		Reason:                p.Reason,
		Timeout:               p.Timeout,
		WorkflowSid:           p.WorkflowSid,
		WorkflowName:          p.WorkflowName,
		QueueSid:              p.QueueSid,
		QueueName:             p.QueueName,
		TaskChannelSid:        p.TaskChannelSid,
		TaskChannelUniqueName: p.TaskChannelUniqueName,
		DateCreated:           p.DateCreated.Time(),
		DateUpdated:           p.DateUpdated.Time(),
	}, nil
}
