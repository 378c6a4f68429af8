package mqtt

import "sync"

// UnsubscribeFunc removes a previously registered observer. Calling it
// more than once is harmless.
type UnsubscribeFunc func()

// observerList is an ordered registry of callbacks.
//
// Dispatch takes a snapshot of the list and iterates the snapshot, so an
// observer may unsubscribe itself (or any other observer) from within its
// callback without skipping or double-invoking anyone. Observers are
// notified in registration order.
type observerList[T any] struct {
	mu      sync.Mutex
	nextID  int
	entries []observerEntry[T]
}

type observerEntry[T any] struct {
	id int
	fn func(T)
}

// add registers fn and returns its unsubscribe handle.
func (l *observerList[T]) add(fn func(T)) UnsubscribeFunc {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.entries = append(l.entries, observerEntry[T]{id: id, fn: fn})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

// notify invokes every currently registered observer with v, in
// registration order.
func (l *observerList[T]) notify(v T) {
	l.mu.Lock()
	snapshot := make([]observerEntry[T], len(l.entries))
	copy(snapshot, l.entries)
	l.mu.Unlock()

	for _, e := range snapshot {
		e.fn(v)
	}
}

// len reports the number of registered observers.
func (l *observerList[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
