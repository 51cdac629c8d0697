package event

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/chrism0rs/Taskie/internal/model"
)

func TestEncode_TaskCompletedWireShape(t *testing.T) {
	raw, err := Encode(TaskCompleted{Task: model.Task{ID: 7, Title: "Essay", Points: 30}, Origin: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != "task_completed" {
		t.Fatalf("expected type task_completed, got %v", got["type"])
	}
	if got["userId"] != float64(1) {
		t.Fatalf("expected userId 1, got %v", got["userId"])
	}
	data, ok := got["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", got["data"])
	}
	if data["id"] != float64(7) || data["title"] != "Essay" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestEncode_PresencePayload(t *testing.T) {
	raw, err := Encode(PeerLeft{UserID: 4})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(raw) != `{"type":"user_left","data":{"userId":4},"userId":4}` {
		t.Fatalf("unexpected frame: %s", raw)
	}
}

func TestEncode_OmitsZeroOrigin(t *testing.T) {
	raw, err := Encode(PointsUpdated{TaskID: 2, Points: 20, TotalPoints: 50})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(raw) != `{"type":"points_updated","data":{"taskId":2,"points":20,"totalPoints":50}}` {
		t.Fatalf("unexpected frame: %s", raw)
	}
}

func TestDecode_RoundTripsKnownKinds(t *testing.T) {
	events := []Event{
		TaskCreated{Task: model.Task{ID: 1, Title: "a"}, Origin: 2},
		TaskUpdated{Task: model.Task{ID: 1, Title: "b"}, Origin: 2},
		PeerJoined{UserID: 3},
		PointsUpdated{TaskID: 1, Points: 10, TotalPoints: 10, Origin: 2},
	}
	for _, ev := range events {
		raw, err := Encode(ev)
		if err != nil {
			t.Fatalf("Encode(%s): %v", ev.Kind(), err)
		}
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%s): %v", ev.Kind(), err)
		}
		if got.Kind() != ev.Kind() || got.OriginID() != ev.OriginID() {
			t.Fatalf("expected %s/%d, got %s/%d", ev.Kind(), ev.OriginID(), got.Kind(), got.OriginID())
		}
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"type":"streak_extended","data":{"days":3}}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
