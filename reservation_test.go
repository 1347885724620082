package taskrouter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/creedasaurus/taskrouter/internal/descriptor"
	"github.com/creedasaurus/taskrouter/internal/signaling"
)

const reservationPath = "/v1/Workspaces/WS0001/Workers/WK0001/Reservations/WR0001"

func newTestReservation(t *testing.T, w *Worker) *Reservation {
	t.Helper()

	d, err := descriptor.ReservationFromJSON([]byte(reservationJSON("WR0001", "pending", "WT0001", "reserved")))
	if err != nil {
		t.Fatalf("ReservationFromJSON: %v", err)
	}

	r, err := newReservation(w, d)
	if err != nil {
		t.Fatalf("newReservation: %v", err)
	}
	return r
}

func TestNewReservation(t *testing.T) {
	api := newAPIServer(t)
	r := newTestReservation(t, newTestWorker(t, api))

	if r.Sid() != "WR0001" {
		t.Errorf("Sid = %q", r.Sid())
	}
	if r.Status() != ReservationStatusPending {
		t.Errorf("Status = %q, want pending", r.Status())
	}
	if r.WorkerSid() != "WK0001" {
		t.Errorf("WorkerSid = %q", r.WorkerSid())
	}
	if r.Timeout() != 120 {
		t.Errorf("Timeout = %d", r.Timeout())
	}
	if r.Task() == nil || r.Task().Sid() != "WT0001" {
		t.Fatalf("Task = %+v", r.Task())
	}
	if r.Task().ReservationSid() != "WR0001" {
		t.Errorf("task ReservationSid = %q", r.Task().ReservationSid())
	}
}

func TestNewReservation_RequiresTask(t *testing.T) {
	api := newAPIServer(t)
	w := newTestWorker(t, api)

	_, err := newReservation(w, &descriptor.ReservationDescriptor{Sid: "WR0001"})
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("err = %v, want ErrMissingParameter", err)
	}
}

func TestReservation_Accept(t *testing.T) {
	api := newAPIServer(t)
	api.respond(reservationPath, reservationJSON("WR0001", "accepted", "WT0001", "assigned"))

	r := newTestReservation(t, newTestWorker(t, api))

	if _, err := r.Accept(context.Background()); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	reqs := api.captured()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	if reqs[0].method != "POST" || reqs[0].path != reservationPath {
		t.Errorf("request = %s %s", reqs[0].method, reqs[0].path)
	}
	if got := reqs[0].form.Get("ReservationStatus"); got != "accepted" {
		t.Errorf("ReservationStatus = %q", got)
	}

	if r.Status() != ReservationStatusAccepted {
		t.Errorf("Status = %q, want accepted", r.Status())
	}
	// вложенный task из ответа тоже применён
	if r.Task().Status() != TaskStatusAssigned {
		t.Errorf("task Status = %q, want assigned", r.Task().Status())
	}
}

func TestReservation_Accept_RollbackOnError(t *testing.T) {
	api := newAPIServer(t)
	api.fail(429, `{"message":"reservation already handled"}`)

	r := newTestReservation(t, newTestWorker(t, api))

	_, err := r.Accept(context.Background())
	if err == nil {
		t.Fatal("Accept succeeded, want error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 429 {
		t.Errorf("err = %v, want *APIError with status 429", err)
	}

	if r.Status() != ReservationStatusPending {
		t.Errorf("Status = %q, want pending after rollback", r.Status())
	}
}

func TestReservation_Reject(t *testing.T) {
	api := newAPIServer(t)
	api.respond(reservationPath, reservationJSON("WR0001", "rejected", "WT0001", "pending"))

	r := newTestReservation(t, newTestWorker(t, api))

	if _, err := r.Reject(context.Background(), RejectOptions{ActivitySid: "WA0002"}); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	form := api.captured()[0].form
	if got := form.Get("ReservationStatus"); got != "rejected" {
		t.Errorf("ReservationStatus = %q", got)
	}
	if got := form.Get("WorkerActivitySid"); got != "WA0002" {
		t.Errorf("WorkerActivitySid = %q", got)
	}

	if !r.IsTerminal() {
		t.Error("rejected reservation is not terminal")
	}
}

func TestReservation_Reject_NoActivity(t *testing.T) {
	api := newAPIServer(t)
	api.respond(reservationPath, reservationJSON("WR0001", "rejected", "WT0001", "pending"))

	r := newTestReservation(t, newTestWorker(t, api))

	if _, err := r.Reject(context.Background(), RejectOptions{}); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if _, ok := api.captured()[0].form["WorkerActivitySid"]; ok {
		t.Error("WorkerActivitySid sent without option")
	}
}

func TestReservation_HandlePush(t *testing.T) {
	api := newAPIServer(t)
	r := newTestReservation(t, newTestWorker(t, api))

	var got []*Reservation
	r.On(EventReservationAccepted, func(payload any) {
		got = append(got, payload.(*Reservation))
	})

	r.handlePush(signaling.EventReservationAccepted, json.RawMessage(reservationJSON("WR0001", "accepted", "WT0001", "assigned")))

	if len(got) != 1 || got[0] != r {
		t.Fatalf("handler calls = %v", got)
	}
	if r.Status() != ReservationStatusAccepted {
		t.Errorf("Status = %q, want accepted", r.Status())
	}
	if r.Task().Status() != TaskStatusAssigned {
		t.Errorf("task Status = %q, want assigned", r.Task().Status())
	}
}

// Кадры task-событий, адресованные reservation, доходят до его task.
func TestReservation_HandlePush_ForwardsTaskEvents(t *testing.T) {
	api := newAPIServer(t)
	r := newTestReservation(t, newTestWorker(t, api))

	called := false
	r.Task().On(EventTaskWrapup, func(payload any) { called = true })

	r.handlePush(signaling.EventTaskWrapup, json.RawMessage(taskJSON("WT0001", "wrapping", "Task is wrapping.")))

	if !called {
		t.Error("task handler not called")
	}
	if r.Task().Status() != TaskStatusWrapping {
		t.Errorf("task Status = %q, want wrapping", r.Task().Status())
	}
	// статус reservation не задет
	if r.Status() != ReservationStatusPending {
		t.Errorf("Status = %q, want pending", r.Status())
	}
}
