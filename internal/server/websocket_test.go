package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chrism0rs/Taskie/internal/auth"
	"github.com/chrism0rs/Taskie/internal/hub"
	"github.com/gorilla/websocket"
)

type frame struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	UserID *int64          `json:"userId"`
}

func dialSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return f
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	for {
		f := readFrame(t, conn)
		if f.Type == typ {
			return f
		}
	}
}

func authenticate(t *testing.T, conn *websocket.Conn, userID int64, token string) {
	t.Helper()
	msg := map[string]any{"type": "auth", "userId": userID}
	if token != "" {
		msg["token"] = token
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

func waitOnline(t *testing.T, h *hub.Hub, userID int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !h.IsOnline(userID) {
		if time.Now().After(deadline) {
			t.Fatalf("user %d never came online", userID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketPingPong(t *testing.T) {
	env := newTestEnv(t, hub.Options{})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialSocket(t, srv)
	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if f := readFrame(t, conn); f.Type != "pong" {
		t.Fatalf("expected pong, got %s", f.Type)
	}
}

func TestWebSocketCompletionReachesCollaborators(t *testing.T) {
	env := newTestEnv(t, hub.Options{})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ada := env.register(t, "ada")
	bob := env.register(t, "bob")

	adaConn := dialSocket(t, srv)
	authenticate(t, adaConn, ada.User.ID, "")
	waitOnline(t, env.hub, ada.User.ID)

	bobConn := dialSocket(t, srv)
	authenticate(t, bobConn, bob.User.ID, "")

	joined := readUntil(t, adaConn, "user_joined")
	if joined.UserID == nil || *joined.UserID != bob.User.ID {
		t.Fatalf("expected bob's join, got %+v", joined)
	}
	waitOnline(t, env.hub, bob.User.ID)

	w := env.do(t, http.MethodGet, "/api/presence", ada.Token, nil)
	var presence struct {
		Online []int64 `json:"online"`
	}
	decode(t, w, &presence)
	if len(presence.Online) != 2 {
		t.Fatalf("expected both users online, got %v", presence.Online)
	}

	w = env.do(t, http.MethodPost, "/api/tasks", bob.Token, map[string]any{"title": "Lab", "subject": "chemistry", "difficulty": 2})
	expectStatus(t, w, http.StatusOK)
	var task struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &task)
	expectStatus(t, env.do(t, http.MethodPost, "/api/tasks/"+itoa(task.ID)+"/complete", bob.Token, nil), http.StatusOK)

	// Origin is informational: bob's own socket receives the echo too.
	for name, conn := range map[string]*websocket.Conn{"ada": adaConn, "bob": bobConn} {
		created := readUntil(t, conn, "task_created")
		if created.UserID == nil || *created.UserID != bob.User.ID {
			t.Fatalf("%s: unexpected task_created origin %+v", name, created)
		}
		completed := readFrame(t, conn)
		if completed.Type != "task_completed" {
			t.Fatalf("%s: expected task_completed after task_created, got %s", name, completed.Type)
		}
		points := readFrame(t, conn)
		if points.Type != "points_updated" {
			t.Fatalf("%s: expected points_updated last, got %s", name, points.Type)
		}
		var data struct {
			TaskID      int64 `json:"taskId"`
			Points      int   `json:"points"`
			TotalPoints int   `json:"totalPoints"`
		}
		if err := json.Unmarshal(points.Data, &data); err != nil {
			t.Fatalf("%s: unmarshal points: %v", name, err)
		}
		if data.TaskID != task.ID || data.Points != 20 || data.TotalPoints != 20 {
			t.Fatalf("%s: unexpected points payload %+v", name, data)
		}
	}

	_ = bobConn.Close()
	left := readUntil(t, adaConn, "user_left")
	if left.UserID == nil || *left.UserID != bob.User.ID {
		t.Fatalf("expected bob's leave, got %+v", left)
	}
}

func TestWebSocketRejectsRebind(t *testing.T) {
	env := newTestEnv(t, hub.Options{})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialSocket(t, srv)
	authenticate(t, conn, 1, "")
	waitOnline(t, env.hub, 1)
	authenticate(t, conn, 2, "")

	f := readUntil(t, conn, "error")
	var data struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(f.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.Code != "already_authenticated" {
		t.Fatalf("expected already_authenticated, got %q", data.Code)
	}
	if env.hub.IsOnline(2) {
		t.Fatalf("rebind must not bring the second identity online")
	}
}

func TestWebSocketRequiresTokenWhenVerifierSet(t *testing.T) {
	verifier := auth.SocketVerifier{Config: auth.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}}
	env := newTestEnv(t, hub.Options{Verifier: verifier})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ada := env.register(t, "ada")

	conn := dialSocket(t, srv)
	authenticate(t, conn, ada.User.ID, "")
	f := readUntil(t, conn, "error")
	if !strings.Contains(string(f.Data), "unauthorized") {
		t.Fatalf("expected unauthorized error, got %s", f.Data)
	}
	if env.hub.IsOnline(ada.User.ID) {
		t.Fatalf("expected connection to stay unauthenticated")
	}

	authenticate(t, conn, ada.User.ID, ada.Token)
	waitOnline(t, env.hub, ada.User.ID)
}
