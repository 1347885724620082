package taskrouter

import (
	"errors"
	"strings"
	"testing"
)

func TestNewConfiguration_Defaults(t *testing.T) {
	cfg, err := NewConfiguration("token-1", "", "")
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}

	if cfg.WSServer() != defaultWSServer {
		t.Errorf("WSServer = %q, want %q", cfg.WSServer(), defaultWSServer)
	}
	if cfg.EBServer() != defaultEBServer {
		t.Errorf("EBServer = %q, want %q", cfg.EBServer(), defaultEBServer)
	}
	if cfg.Token() != "token-1" {
		t.Errorf("Token = %q, want token-1", cfg.Token())
	}
}

func TestNewConfiguration_CustomServers(t *testing.T) {
	cfg, err := NewConfiguration("token-1", "ws://localhost:9000/ws", "http://localhost:9000")
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}

	if cfg.WSServer() != "ws://localhost:9000/ws" {
		t.Errorf("WSServer = %q", cfg.WSServer())
	}
	if cfg.EBServer() != "http://localhost:9000" {
		t.Errorf("EBServer = %q", cfg.EBServer())
	}
}

func TestNewConfiguration_RequiresToken(t *testing.T) {
	_, err := NewConfiguration("", "", "")
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("err = %v, want ErrMissingParameter", err)
	}
	if !strings.Contains(err.Error(), "token is a required parameter") {
		t.Errorf("err = %q", err.Error())
	}
}

func TestConfiguration_UpdateToken(t *testing.T) {
	cfg, err := NewConfiguration("token-1", "", "")
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}

	if err := cfg.UpdateToken("token-2"); err != nil {
		t.Fatalf("UpdateToken: %v", err)
	}
	if cfg.Token() != "token-2" {
		t.Errorf("Token = %q, want token-2", cfg.Token())
	}
}

func TestConfiguration_UpdateToken_RequiresToken(t *testing.T) {
	cfg, err := NewConfiguration("token-1", "", "")
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}

	err = cfg.UpdateToken("")
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("err = %v, want ErrMissingParameter", err)
	}
	if !strings.Contains(err.Error(), "newToken is a required parameter") {
		t.Errorf("err = %q", err.Error())
	}
	if cfg.Token() != "token-1" {
		t.Errorf("Token = %q, want token-1 after rejected update", cfg.Token())
	}
}
