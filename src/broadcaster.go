package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Deliver one value to any number of listeners.
 *
 * Description:	Used for the symbol fan-out in front of the framers,
 *		for message delivery out of the processors, and for taps.
 *
 *		Listeners are called synchronously, in registration order,
 *		on the producer's goroutine.  Adding or removing a listener
 *		may happen concurrently with delivery: the listener list is
 *		copy-on-write, so a delivery already in progress finishes
 *		with the list it started with.
 *
 *		A listener that panics does not stop delivery to the
 *		others.  The panic is logged and counted.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Listener receives values pushed by an upstream stage.
type Listener[T any] interface {
	Receive(value T)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc[T any] func(value T)

func (f ListenerFunc[T]) Receive(value T) {
	f(value)
}

type subscriber[T any] struct {
	listener Listener[T]
}

// Broadcaster is usable as a zero value.
type Broadcaster[T any] struct {
	mu          sync.Mutex // Serialises writers of subscribers.
	subscribers atomic.Pointer[[]*subscriber[T]]
	faults      atomic.Uint64
}

// AddListener registers l and returns a function that removes it again.
func (b *Broadcaster[T]) AddListener(l Listener[T]) (cancel func()) {
	Assert(l != nil)

	var s = &subscriber[T]{listener: l}

	b.mu.Lock()
	var old = b.load()
	var updated = make([]*subscriber[T], 0, len(old)+1)
	updated = append(updated, old...)
	updated = append(updated, s)
	b.subscribers.Store(&updated)
	b.mu.Unlock()

	return func() {
		b.remove(func(x *subscriber[T]) bool { return x == s })
	}
}

// RemoveListener removes the first registration of l.  Listeners whose
// dynamic type isn't comparable (plain functions, for instance) can only
// be removed with the function returned by AddListener.
func (b *Broadcaster[T]) RemoveListener(l Listener[T]) bool {
	return b.remove(func(x *subscriber[T]) bool { return sameListener(x.listener, l) })
}

// ClearListeners removes everything.
func (b *Broadcaster[T]) ClearListeners() {
	b.mu.Lock()
	b.subscribers.Store(nil)
	b.mu.Unlock()
}

// Len is the number of registered listeners.
func (b *Broadcaster[T]) Len() int {
	return len(b.load())
}

// Faults is the number of listener panics recovered so far.
func (b *Broadcaster[T]) Faults() uint64 {
	return b.faults.Load()
}

// Receive makes a Broadcaster usable as the downstream listener of a stage.
func (b *Broadcaster[T]) Receive(value T) {
	b.Dispatch(value)
}

// Dispatch delivers value to every listener registered when the call began.
func (b *Broadcaster[T]) Dispatch(value T) {
	for _, s := range b.load() {
		b.deliver(s.listener, value)
	}
}

func (b *Broadcaster[T]) deliver(l Listener[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			b.faults.Add(1)
			metrics.listenerFaults.Inc()
			logger.Error("Listener fault during delivery", "listener", fmt.Sprintf("%T", l), "panic", r)
		}
	}()

	l.Receive(value)
}

func (b *Broadcaster[T]) load() []*subscriber[T] {
	var p = b.subscribers.Load()
	if p == nil {
		return nil
	}
	return *p
}

func (b *Broadcaster[T]) remove(match func(*subscriber[T]) bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	var old = b.load()
	for i, s := range old {
		if match(s) {
			var updated = make([]*subscriber[T], 0, len(old)-1)
			updated = append(updated, old[:i]...)
			updated = append(updated, old[i+1:]...)
			b.subscribers.Store(&updated)
			return true
		}
	}
	return false
}

func sameListener[T any](a, b Listener[T]) bool {
	if a == nil || b == nil {
		return false
	}
	var ta = reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

/*------------------------------------------------------------------
 *
 * Name:	Output
 *
 * Purpose:	The connection from a stage to whatever is downstream.
 *
 * Description:	Exactly one primary listener (the next stage) which
 *		may be replaced at any time, plus any number of observers.
 *		Observers are how taps work: they see exactly what the
 *		primary listener sees, first, and can't alter it.
 *
 *------------------------------------------------------------------*/

type Output[T any] struct {
	next      atomic.Pointer[subscriber[T]]
	observers Broadcaster[T]
}

// SetListener replaces the primary listener.  nil disconnects.
func (o *Output[T]) SetListener(l Listener[T]) {
	if l == nil {
		o.next.Store(nil)
		return
	}
	o.next.Store(&subscriber[T]{listener: l})
}

// Listener returns the primary listener, or nil.
func (o *Output[T]) Listener() Listener[T] { //nolint:ireturn
	var s = o.next.Load()
	if s == nil {
		return nil
	}
	return s.listener
}

// Observe attaches a passive observer.
func (o *Output[T]) Observe(l Listener[T]) (cancel func()) {
	return o.observers.AddListener(l)
}

// Observers is the number of attached observers.
func (o *Output[T]) Observers() int {
	return o.observers.Len()
}

// Emit sends value to the observers, then to the primary listener.
func (o *Output[T]) Emit(value T) {
	o.observers.Dispatch(value)

	if s := o.next.Load(); s != nil {
		s.listener.Receive(value)
	}
}
