// Package hub runs the per-connection protocol on top of the registry and fans
// domain events out to every authenticated connection.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chrism0rs/Taskie/internal/event"
	"github.com/chrism0rs/Taskie/internal/registry"
)

const DefaultQueueDepth = 256

// Writer is the outbound side of a transport. Write is only ever called from
// the connection's writer goroutine.
type Writer interface {
	Write(message []byte) error
	Close() error
}

// Verifier checks the optional token carried by an auth message.
type Verifier interface {
	Verify(userID int64, token string) error
}

type Options struct {
	// QueueDepth bounds each connection's outbound queue. A connection whose
	// queue is full when an event is published is evicted.
	QueueDepth int
	// AuthTimeout closes connections still pending after this long. Zero
	// disables the timeout.
	AuthTimeout time.Duration
	Verifier    Verifier
	Logger      *slog.Logger
}

type Hub struct {
	reg  *registry.Registry[*Conn]
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func New(reg *registry.Registry[*Conn], opts Options) *Hub {
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = DefaultQueueDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{reg: reg, opts: opts, log: logger}
}

type clientMessage struct {
	Type   string `json:"type"`
	UserID *int64 `json:"userId"`
	Token  string `json:"token,omitempty"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Connect registers a new pending connection writing to w and starts its
// writer goroutine. After Shutdown the returned connection is already closed.
func (h *Hub) Connect(w Writer) *Conn {
	c := newConn(w, h.opts.QueueDepth)

	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		c.state.Store(int32(StateClosed))
		close(c.done)
		_ = w.Close()
		return c
	}
	if h.opts.AuthTimeout > 0 {
		c.authTimer = time.AfterFunc(h.opts.AuthTimeout, func() {
			if c.State() == StatePending {
				h.log.Info("closing unauthenticated connection", "conn", c.id, "timeout", h.opts.AuthTimeout)
				h.Disconnect(c)
			}
		})
	}
	h.reg.Add(c)
	h.wg.Add(1)
	h.mu.Unlock()

	go h.writePump(c)

	h.log.Debug("connection accepted", "conn", c.id)
	return c
}

// Receive handles one inbound frame. Frames that are not understood are
// dropped without changing the connection's state.
func (h *Hub) Receive(c *Conn, data []byte) {
	if c.State() == StateClosed {
		return
	}

	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.log.Warn("dropping malformed message", "conn", c.id, "error", err)
		return
	}

	switch msg.Type {
	case "auth":
		h.authenticate(c, msg)
	case "ping":
		h.sendControl(c, "pong", nil)
	default:
		h.log.Debug("dropping unsupported message", "conn", c.id, "type", msg.Type)
	}
}

func (h *Hub) authenticate(c *Conn, msg clientMessage) {
	if msg.UserID == nil || *msg.UserID <= 0 {
		h.log.Warn("dropping auth message without userId", "conn", c.id)
		return
	}
	userID := *msg.UserID

	if h.opts.Verifier != nil {
		if err := h.opts.Verifier.Verify(userID, msg.Token); err != nil {
			h.log.Warn("auth rejected", "conn", c.id, "userId", userID, "error", err)
			h.sendControl(c, "error", errorData{Code: "unauthorized", Message: "Invalid authentication token"})
			return
		}
	}

	first, err := h.reg.Bind(c, userID)
	switch {
	case errors.Is(err, registry.ErrAlreadyAuthenticated):
		current, _ := h.reg.Identity(c)
		h.log.Warn("rebind rejected", "conn", c.id, "userId", current, "requested", userID)
		h.sendControl(c, "error", errorData{Code: "already_authenticated", Message: "Connection is already authenticated"})
		return
	case err != nil:
		// Closed while the message was being handled.
		return
	}

	if !c.state.CompareAndSwap(int32(StatePending), int32(StateAuthenticated)) {
		return
	}
	if c.authTimer != nil {
		c.authTimer.Stop()
	}
	h.log.Info("connection authenticated", "conn", c.id, "userId", userID, "firstForUser", first)

	if first {
		h.publish(event.PeerJoined{UserID: userID}, c)
	}
}

// Publish delivers ev to every connection authenticated at the time of the
// call. It never blocks on a slow connection and never fails: connections that
// cannot accept the event are evicted.
func (h *Hub) Publish(ev event.Event) {
	h.publish(ev, nil)
}

func (h *Hub) publish(ev event.Event, except *Conn) {
	raw, err := event.Encode(ev)
	if err != nil {
		h.log.Error("encode event", "type", ev.Kind(), "error", err)
		return
	}

	var evicted []*Conn
	for c := range h.reg.AllAuthenticated() {
		if c == except {
			continue
		}
		if !c.enqueue(raw) {
			evicted = append(evicted, c)
		}
	}
	for _, c := range evicted {
		h.log.Warn("evicting connection that cannot keep up", "conn", c.id, "type", ev.Kind())
		h.Disconnect(c)
	}
}

func (h *Hub) sendControl(c *Conn, typ string, data any) {
	msg := event.Message{Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			h.log.Error("encode control frame", "type", typ, "error", err)
			return
		}
		msg.Data = raw
	}
	out, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode control frame", "type", typ, "error", err)
		return
	}
	if !c.enqueue(out) {
		h.Disconnect(c)
	}
}

// Disconnect closes c and removes it from the registry. It is safe to call
// any number of times from any goroutine; only the first call has effect.
func (h *Hub) Disconnect(c *Conn) {
	var left int64
	c.closeOnce.Do(func() {
		prev := State(c.state.Swap(int32(StateClosed)))
		if c.authTimer != nil {
			c.authTimer.Stop()
		}
		rm := h.reg.Remove(c)
		close(c.done)
		if err := c.writer.Close(); err != nil {
			h.log.Debug("close transport", "conn", c.id, "error", err)
		}

		if !rm.Authenticated {
			h.log.Debug("connection closed", "conn", c.id)
			return
		}
		h.log.Info("connection closed", "conn", c.id, "userId", rm.UserID, "lastForUser", rm.LastForUser)
		if prev == StateAuthenticated && rm.LastForUser {
			left = rm.UserID
		}
	})
	if left != 0 {
		h.Publish(event.PeerLeft{UserID: left})
	}
}

func (h *Hub) writePump(c *Conn) {
	defer h.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.writer.Write(msg); err != nil {
				h.log.Info("write failed", "conn", c.id, "error", err)
				h.Disconnect(c)
				return
			}
		}
	}
}

// Shutdown closes every connection and waits for their writer goroutines, or
// until ctx is done. Presence events emitted while shutting down are best-effort.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	conns := h.reg.Connections()
	for _, c := range conns {
		h.Disconnect(c)
	}
	h.log.Info("hub stopping", "connections", len(conns))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsOnline reports whether userID has at least one authenticated connection.
func (h *Hub) IsOnline(userID int64) bool {
	return h.reg.IsOnline(userID)
}

// Online lists the identities that currently have a live connection.
func (h *Hub) Online() []int64 {
	return h.reg.Online()
}

// Stats returns the number of live and authenticated connections.
func (h *Hub) Stats() (connections, authenticated int) {
	return h.reg.Len()
}
