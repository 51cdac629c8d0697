// Package registry keeps track of live connections and the identities they are
// authenticated as. It has no protocol knowledge; the hub drives it.
package registry

import (
	"errors"
	"iter"
	"sort"
	"sync"
)

var (
	ErrAlreadyAuthenticated = errors.New("connection already authenticated")
	ErrNotRegistered        = errors.New("connection not registered")
)

type entry struct {
	userID        int64
	authenticated bool
}

// Registry is safe for concurrent use. C is the connection handle type.
type Registry[C comparable] struct {
	mu     sync.Mutex
	conns  map[C]*entry
	byUser map[int64]map[C]struct{}
}

// Removal describes what Remove found.
type Removal struct {
	Found         bool
	Authenticated bool
	UserID        int64
	// LastForUser is set when the removed connection was the identity's last
	// live connection.
	LastForUser bool
}

func New[C comparable]() *Registry[C] {
	return &Registry[C]{
		conns:  make(map[C]*entry),
		byUser: make(map[int64]map[C]struct{}),
	}
}

// Add registers c as unauthenticated. Adding a registered connection is a no-op.
func (r *Registry[C]) Add(c C) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c]; ok {
		return
	}
	r.conns[c] = &entry{}
}

// Bind authenticates c as userID. first reports whether c is the identity's
// first live connection. Binding to a different identity than the one already
// bound fails with ErrAlreadyAuthenticated; binding again to the same identity
// is a no-op.
func (r *Registry[C]) Bind(c C, userID int64) (first bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[c]
	if !ok {
		return false, ErrNotRegistered
	}
	if e.authenticated {
		if e.userID != userID {
			return false, ErrAlreadyAuthenticated
		}
		return false, nil
	}

	e.authenticated = true
	e.userID = userID

	set := r.byUser[userID]
	if set == nil {
		set = make(map[C]struct{})
		r.byUser[userID] = set
	}
	set[c] = struct{}{}
	return len(set) == 1, nil
}

// Remove unregisters c. Removing an absent connection returns a zero Removal.
func (r *Registry[C]) Remove(c C) Removal {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[c]
	if !ok {
		return Removal{}
	}
	delete(r.conns, c)
	if !e.authenticated {
		return Removal{Found: true}
	}

	last := true
	if set := r.byUser[e.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(r.byUser, e.userID)
		} else {
			last = false
		}
	}
	return Removal{Found: true, Authenticated: true, UserID: e.userID, LastForUser: last}
}

type binding[C comparable] struct {
	conn   C
	userID int64
}

// AllAuthenticated returns the authenticated connections as of the call.
// Later mutations are not observed. The sequence can be ranged over once.
func (r *Registry[C]) AllAuthenticated() iter.Seq2[C, int64] {
	r.mu.Lock()
	snapshot := make([]binding[C], 0, len(r.conns))
	for c, e := range r.conns {
		if e.authenticated {
			snapshot = append(snapshot, binding[C]{conn: c, userID: e.userID})
		}
	}
	r.mu.Unlock()

	var once sync.Once
	return func(yield func(C, int64) bool) {
		consumed := true
		once.Do(func() { consumed = false })
		if consumed {
			return
		}
		for _, b := range snapshot {
			if !yield(b.conn, b.userID) {
				return
			}
		}
	}
}

// Connections returns every registered connection, authenticated or not, as of
// the call.
func (r *Registry[C]) Connections() []C {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]C, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry[C]) IsOnline(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser[userID]) > 0
}

// Identity returns the identity c is bound to, if any.
func (r *Registry[C]) Identity(c C) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[c]
	if !ok || !e.authenticated {
		return 0, false
	}
	return e.userID, true
}

// Online lists identities with at least one live connection, ascending.
func (r *Registry[C]) Online() []int64 {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry[C]) Len() (total, authenticated int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.conns {
		if e.authenticated {
			authenticated++
		}
	}
	return len(r.conns), authenticated
}
