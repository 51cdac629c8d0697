package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/chrism0rs/Taskie/internal/config"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := config.Config{Port: 4321, MasterSecret: "x"}
	srv := NewHTTPServer(cfg, http.NewServeMux())
	if srv.Addr != ":4321" {
		t.Fatalf("expected :4321, got %q", srv.Addr)
	}
	if srv.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("unexpected ReadHeaderTimeout")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, config.Config{Port: port}, http.NewServeMux()) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp", l.Addr().String())
		if err == nil {
			_ = conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
