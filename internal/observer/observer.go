// Package observer provides a generic, thread-safe observer list, used
// anywhere one component needs to fan out events to several independent
// listeners without coupling to their concrete types.
package observer

import (
	"sync"

	"gopad/internal/debug"
)

// Manager is a thread-safe list of observers of type T. Notify follows the
// copy-then-notify rule: it snapshots the list under lock, releases the
// lock, then invokes each observer in order. A panic raised by an observer
// is recovered and logged; remaining observers still run.
//
// Registrations/unregistrations made from inside a callback invoked by
// Notify are deferred: they are queued and applied only after the current
// Notify call's snapshot loop completes, eliminating a class of
// re-entrancy hazards.
type Manager[T any] struct {
	mu        sync.Mutex
	observers []T
	notifying bool
	pending   []pendingOp[T]
}

type opKind int

const (
	opRegister opKind = iota
	opUnregister
)

type pendingOp[T any] struct {
	kind opKind
	obs  T
}

// New creates an empty observer manager for capability set T.
func New[T any]() *Manager[T] {
	return &Manager[T]{}
}

// Register adds obs to the list. If called from within an observer callback
// during Notify, the registration is deferred to the next cycle.
func (m *Manager[T]) Register(obs T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notifying {
		m.pending = append(m.pending, pendingOp[T]{kind: opRegister, obs: obs})
		return
	}
	m.observers = append(m.observers, obs)
}

// Unregister removes obs from the list (by pointer/value equality is left to
// the caller's comparator via a linear scan with `any` equality, which
// requires T be comparable at the call site's usage; callers typically pass
// pointer types). If called during Notify, it is deferred.
func (m *Manager[T]) Unregister(obs T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notifying {
		m.pending = append(m.pending, pendingOp[T]{kind: opUnregister, obs: obs})
		return
	}
	m.remove(obs)
}

func (m *Manager[T]) remove(obs T) {
	any1 := any(obs)
	for i, o := range m.observers {
		if any(o) == any1 {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

// Notify snapshots the current observer list, releases the lock, then calls
// fn for each observer in order. Panics from fn are recovered and logged;
// the remaining observers are still notified.
func (m *Manager[T]) Notify(fn func(obs T)) {
	m.mu.Lock()
	m.notifying = true
	snapshot := make([]T, len(m.observers))
	copy(snapshot, m.observers)
	m.mu.Unlock()

	for _, obs := range snapshot {
		safeCall(fn, obs)
	}

	m.mu.Lock()
	m.notifying = false
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, op := range pending {
		switch op.kind {
		case opRegister:
			m.Register(op.obs)
		case opUnregister:
			m.Unregister(op.obs)
		}
	}
}

// Len returns the current observer count (for diagnostics/tests only).
func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observers)
}

func safeCall[T any](fn func(obs T), obs T) {
	defer func() {
		if r := recover(); r != nil {
			debug.Log("observer", "recovered panic in observer callback: %v", r)
		}
	}()
	fn(obs)
}
