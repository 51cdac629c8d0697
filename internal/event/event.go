// Package event defines the domain events pushed to connected clients and
// their wire encoding.
package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrism0rs/Taskie/internal/model"
)

type Kind string

const (
	KindTaskCreated   Kind = "task_created"
	KindTaskCompleted Kind = "task_completed"
	KindTaskUpdated   Kind = "task_updated"
	KindPeerJoined    Kind = "user_joined"
	KindPeerLeft      Kind = "user_left"
	KindPointsUpdated Kind = "points_updated"
)

var ErrUnknownKind = errors.New("unknown event kind")

// Event is implemented only by the types in this package.
type Event interface {
	Kind() Kind
	// OriginID is the identity whose action produced the event, 0 if none.
	OriginID() int64
	payload() any
}

type TaskCreated struct {
	Task   model.Task
	Origin int64
}

type TaskCompleted struct {
	Task   model.Task
	Origin int64
}

type TaskUpdated struct {
	Task   model.Task
	Origin int64
}

type PeerJoined struct {
	UserID int64
}

type PeerLeft struct {
	UserID int64
}

type PointsUpdated struct {
	TaskID      int64
	Points      int
	TotalPoints int
	Origin      int64
}

type peerPayload struct {
	UserID int64 `json:"userId"`
}

type pointsPayload struct {
	TaskID      int64 `json:"taskId"`
	Points      int   `json:"points"`
	TotalPoints int   `json:"totalPoints"`
}

func (TaskCreated) Kind() Kind { return KindTaskCreated }
func (e TaskCreated) OriginID() int64 { return e.Origin }
func (e TaskCreated) payload() any { return e.Task }

func (TaskCompleted) Kind() Kind { return KindTaskCompleted }
func (e TaskCompleted) OriginID() int64 { return e.Origin }
func (e TaskCompleted) payload() any { return e.Task }

func (TaskUpdated) Kind() Kind { return KindTaskUpdated }
func (e TaskUpdated) OriginID() int64 { return e.Origin }
func (e TaskUpdated) payload() any { return e.Task }

// Presence events originate from the peer itself.
func (PeerJoined) Kind() Kind { return KindPeerJoined }
func (e PeerJoined) OriginID() int64 { return e.UserID }
func (e PeerJoined) payload() any { return peerPayload{UserID: e.UserID} }

func (PeerLeft) Kind() Kind { return KindPeerLeft }
func (e PeerLeft) OriginID() int64 { return e.UserID }
func (e PeerLeft) payload() any { return peerPayload{UserID: e.UserID} }

func (PointsUpdated) Kind() Kind { return KindPointsUpdated }
func (e PointsUpdated) OriginID() int64 { return e.Origin }
func (e PointsUpdated) payload() any {
	return pointsPayload{TaskID: e.TaskID, Points: e.Points, TotalPoints: e.TotalPoints}
}

// Message is the frame written to clients.
type Message struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	UserID *int64          `json:"userId,omitempty"`
}

func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev.payload())
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Kind(), err)
	}
	msg := Message{Type: string(ev.Kind()), Data: data}
	if origin := ev.OriginID(); origin != 0 {
		msg.UserID = &origin
	}
	return json.Marshal(msg)
}

// Decode parses a frame produced by Encode. Frames of kinds this package does
// not know return ErrUnknownKind so callers can skip them.
func Decode(raw []byte) (Event, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	var origin int64
	if msg.UserID != nil {
		origin = *msg.UserID
	}

	switch Kind(msg.Type) {
	case KindTaskCreated, KindTaskCompleted, KindTaskUpdated:
		var task model.Task
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", msg.Type, err)
		}
		switch Kind(msg.Type) {
		case KindTaskCreated:
			return TaskCreated{Task: task, Origin: origin}, nil
		case KindTaskCompleted:
			return TaskCompleted{Task: task, Origin: origin}, nil
		default:
			return TaskUpdated{Task: task, Origin: origin}, nil
		}
	case KindPeerJoined, KindPeerLeft:
		var p peerPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", msg.Type, err)
		}
		if Kind(msg.Type) == KindPeerJoined {
			return PeerJoined{UserID: p.UserID}, nil
		}
		return PeerLeft{UserID: p.UserID}, nil
	case KindPointsUpdated:
		var p pointsPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", msg.Type, err)
		}
		return PointsUpdated{TaskID: p.TaskID, Points: p.Points, TotalPoints: p.TotalPoints, Origin: origin}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Type)
	}
}
