package taskrouter

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/creedasaurus/taskrouter/internal/descriptor"
)

// capturedRequest — запрос, увиденный тестовым API-сервером.
type capturedRequest struct {
	method string
	path   string
	auth   string
	form   url.Values
}

// apiServer — тестовый REST backend: отвечает телом из responses
// по пути запроса и записывает всё, что получил.
type apiServer struct {
	srv *httptest.Server

	mu        sync.Mutex
	requests  []capturedRequest
	responses map[string]string // path → body
	failWith  string            // если непусто — любой запрос отклоняется
	status    int
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()

	s := &apiServer{responses: make(map[string]string)}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}

		s.mu.Lock()
		s.requests = append(s.requests, capturedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			form:   r.PostForm,
		})
		body, ok := s.responses[r.URL.Path]
		failWith, status := s.failWith, s.status
		s.mu.Unlock()

		if failWith != "" {
			w.WriteHeader(status)
			io.WriteString(w, failWith)
			return
		}
		if !ok {
			http.Error(w, `{"message":"no such resource"}`, http.StatusNotFound)
			return
		}
		io.WriteString(w, body)
	}))
	t.Cleanup(s.srv.Close)

	return s
}

// respond задаёт тело ответа для пути.
func (s *apiServer) respond(path, body string) {
	s.mu.Lock()
	s.responses[path] = body
	s.mu.Unlock()
}

// fail заставляет сервер отклонять все запросы данным статусом и телом.
func (s *apiServer) fail(status int, body string) {
	s.mu.Lock()
	s.failWith = body
	s.status = status
	s.mu.Unlock()
}

func (s *apiServer) captured() []capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capturedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *apiServer) url() string { return s.srv.URL }

// newTestWorker создаёт Worker с уже установленной идентичностью сессии,
// REST-клиент которого смотрит на тестовый сервер.
func newTestWorker(t *testing.T, api *apiServer) *Worker {
	t.Helper()

	w, err := NewWorker("token-1", Config{
		WSServer: "ws://127.0.0.1:1/ws",
		EBServer: api.url(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	w.applyWorker(&descriptor.WorkerDescriptor{
		Sid:          "WK0001",
		AccountSid:   "AC0001",
		WorkspaceSid: "WS0001",
		FriendlyName: "alice",
		ActivityName: "Idle",
		ActivitySid:  "WA0001",
		Available:    true,
	})

	return w
}

// taskJSON — проводной снимок task для ответов сервера и push-кадров.
func taskJSON(sid, status, reason string) string {
	return fmt.Sprintf(`{
		"sid": %q,
		"account_sid": "AC0001",
		"workspace_sid": "WS0001",
		"assignment_status": %q,
		"attributes": {"channel": "voice"},
		"age": 25,
		"priority": 1,
		"reason": %q,
		"timeout": 300,
		"workflow_sid": "WW0001",
		"workflow_name": "Inbound",
		"queue_sid": "WQ0001",
		"queue_name": "English",
		"task_channel_sid": "TC0001",
		"task_channel_unique_name": "voice",
		"date_created": 1500000000,
		"date_updated": 1500000100
	}`, sid, status, reason)
}

// reservationJSON — проводной снимок reservation с вложенным task.
func reservationJSON(sid, status, taskSid, taskStatus string) string {
	return fmt.Sprintf(`{
		"sid": %q,
		"account_sid": "AC0001",
		"workspace_sid": "WS0001",
		"worker_sid": "WK0001",
		"reservation_status": %q,
		"reservation_timeout": 120,
		"task": %s,
		"date_created": 1500000000,
		"date_updated": 1500000100
	}`, sid, status, taskJSON(taskSid, taskStatus, ""))
}

// newTestTask создаёт Task, принадлежащий reservation "WR0001".
func newTestTask(t *testing.T, w *Worker) *Task {
	t.Helper()

	d, err := descriptor.TaskFromJSON([]byte(taskJSON("WT0001", "reserved", "")))
	if err != nil {
		t.Fatalf("TaskFromJSON: %v", err)
	}

	task, err := newTask(w, "WR0001", d)
	if err != nil {
		t.Fatalf("newTask: %v", err)
	}
	return task
}
