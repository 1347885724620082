package signaling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsTestServer поднимает httptest-сервер с websocket upgrade.
func wsTestServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		handler(conn)
	}))
	t.Cleanup(server.Close)

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebsocketDialer_ReadMessage(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event_type": "task.updated", "payload": {}}`))
	})

	dialer := &WebsocketDialer{}
	conn, err := dialer.DialContext(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "task.updated") {
		t.Errorf("message = %s", data)
	}
}

func TestWebsocketDialer_TokenInQueryString(t *testing.T) {
	var gotToken string
	server := wsTestServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})

	// Токен доезжает до сервера через query string dial-URL
	upgraded := server.Config.Handler
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		upgraded.ServeHTTP(w, r)
	})

	dialer := &WebsocketDialer{}
	conn, err := dialer.DialContext(context.Background(), wsURL(server)+"?token=tok123")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if gotToken != "tok123" {
		t.Errorf("token = %q", gotToken)
	}
}

func TestWebsocketDialer_ServerCloseEndsRead(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})

	dialer := &WebsocketDialer{}
	conn, err := dialer.DialContext(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read error after server close")
	}
}

func TestWebsocketDialer_DialFailure(t *testing.T) {
	dialer := &WebsocketDialer{HandshakeTimeout: time.Second}

	_, err := dialer.DialContext(context.Background(), "ws://127.0.0.1:1/ws")
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestChannel_OverRealWebsocket(t *testing.T) {
	frames := make(chan Frame, 1)

	server := wsTestServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event_type": "reservation.created", "payload": {"sid": "WRxx1"}}`))
		// Держим соединение открытым, пока клиент не закроет
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ch := New(Config{
		URL:     wsURL(server),
		Tokens:  &testToken{tok: "tok"},
		OnFrame: func(f Frame) { frames <- f },
	})

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Disconnect("test over")

	select {
	case f := <-frames:
		if f.EventType != EventReservationCreated {
			t.Errorf("event_type = %q", f.EventType)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame over real websocket")
	}
}
