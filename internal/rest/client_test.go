package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestRoutes(t *testing.T) {
	routes := NewRoutes("WSxxx", "WKxxx")

	cases := []struct {
		got  string
		want string
	}{
		{routes.Task("WTxx1"), "Workspaces/WSxxx/Tasks/WTxx1"},
		{routes.Transfers("WTxx1"), "Workspaces/WSxxx/Tasks/WTxx1/Transfers"},
		{routes.CustomerParticipant(), "Workspaces/WSxxx/Workers/WKxxx/CustomerParticipant"},
		{routes.Worker(), "Workspaces/WSxxx/Workers/WKxxx"},
		{routes.Reservation("WRxx1"), "Workspaces/WSxxx/Workers/WKxxx/Reservations/WRxx1"},
		{routes.Reservations(), "Workspaces/WSxxx/Workers/WKxxx/Reservations"},
	}

	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("route = %q, want %q", c.got, c.want)
		}
	}
}

func TestClient_Post(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotForm url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"sid": "WTxx1"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Tokens: staticToken("tok123")})

	params := url.Values{}
	params.Set("AssignmentStatus", "completed")
	params.Set("Reason", "Task is completed.")

	raw, err := client.Post(context.Background(), "Workspaces/WSxxx/Tasks/WTxx1", params, V1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/Workspaces/WSxxx/Tasks/WTxx1" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content-type = %q", gotContentType)
	}
	if gotForm.Get("AssignmentStatus") != "completed" || gotForm.Get("Reason") != "Task is completed." {
		t.Errorf("form = %v", gotForm)
	}
	if string(raw) != `{"sid": "WTxx1"}` {
		t.Errorf("body = %s", raw)
	}
}

func TestClient_PostV2Path(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Tokens: staticToken("tok")})

	_, err := client.Post(context.Background(), "Workspaces/WSxxx/Workers/WKxxx/CustomerParticipant", url.Values{}, V2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v2/Workspaces/WSxxx/Workers/WKxxx/CustomerParticipant" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestClient_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Failed to parse JSON."}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Tokens: staticToken("tok")})

	_, err := client.Post(context.Background(), "Workspaces/WSxxx/Tasks/WTxx1", url.Values{}, V1)
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Name != TaskRouterError {
		t.Errorf("name = %q, want %q", apiErr.Name, TaskRouterError)
	}
	if apiErr.Message != "Failed to parse JSON." {
		t.Errorf("message = %q", apiErr.Message)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d", apiErr.Status)
	}
}

func TestClient_RemoteErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Tokens: staticToken("tok")})

	_, err := client.Get(context.Background(), "Workspaces/WSxxx/Workers/WKxxx", V1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != "HTTP 503" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestClient_FreshTokenPerRequest(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tok := &rotatingToken{current: "first"}
	client := NewClient(Config{BaseURL: server.URL, Tokens: tok})

	client.Get(context.Background(), "Workspaces/WSxxx/Workers/WKxxx", V1)
	if gotAuth != "Bearer first" {
		t.Errorf("authorization = %q", gotAuth)
	}

	tok.current = "second"
	client.Get(context.Background(), "Workspaces/WSxxx/Workers/WKxxx", V1)
	if gotAuth != "Bearer second" {
		t.Errorf("authorization after rotation = %q", gotAuth)
	}
}

type rotatingToken struct {
	current string
}

func (r *rotatingToken) Token() string { return r.current }
