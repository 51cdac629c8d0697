package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type State int32

const (
	StatePending State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one client connection as seen by the hub.
type Conn struct {
	id     string
	writer Writer
	send   chan []byte
	done   chan struct{}
	state  atomic.Int32

	closeOnce sync.Once
	authTimer *time.Timer
}

func newConn(w Writer, depth int) *Conn {
	return &Conn{
		id:     uuid.NewString(),
		writer: w,
		send:   make(chan []byte, depth),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) State() State { return State(c.state.Load()) }

// enqueue reports false when the connection is closed or its queue is full.
func (c *Conn) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
