// Package event provides synchronous subscriber lists used for change
// notification between simulation components.
package event

// Listeners is an ordered list of callbacks. Emit invokes every callback
// inline, in subscription order, before returning.
type Listeners[T any] struct {
	subs   []subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe adds fn to the list and returns a func that removes it again.
func (l *Listeners[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscriber[T]{id: id, fn: fn})
	return func() { l.remove(id) }
}

// Emit calls every subscriber with v. Subscribers added during Emit are not
// called until the next Emit.
func (l *Listeners[T]) Emit(v T) {
	subs := l.subs
	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (l *Listeners[T]) Len() int {
	return len(l.subs)
}

func (l *Listeners[T]) remove(id uint64) {
	for i, s := range l.subs {
		if s.id == id {
			// Copy so an Emit in progress keeps iterating its own slice.
			next := make([]subscriber[T], 0, len(l.subs)-1)
			next = append(next, l.subs[:i]...)
			next = append(next, l.subs[i+1:]...)
			l.subs = next
			return
		}
	}
}
