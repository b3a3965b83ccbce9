package event

import (
	"reflect"
	"sync"
)

// Token identifies one handler registration so it can be removed again.
// The zero Token is never issued.
type Token uint64

type handlerEntry struct {
	token Token
	fn    any
}

// Bus carries world notifications. Publish delivers synchronously to current
// subscribers; Emit queues into a back buffer that becomes readable after the
// next SwapBuffers (tick N+1), dispatched by EventDispatchSystem.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]handlerEntry
	next     Token
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]handlerEntry),
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event into the back buffer (will be readable next tick).
func Emit[T any](b *Bus, event T) {
	t := typeKey[T]()
	b.back[t] = append(b.back[t], event)
}

// Publish delivers event to every handler of T before returning.
func Publish[T any](b *Bus, event T) {
	b.mu.Lock()
	hs := append([]handlerEntry(nil), b.handlers[typeKey[T]()]...)
	b.mu.Unlock()
	for _, h := range hs {
		h.fn.(func(T))(event)
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	t := typeKey[T]()
	b.handlers[t] = append(b.handlers[t], handlerEntry{token: b.next, fn: fn})
	return b.next
}

// Unsubscribe removes the handler registered under tok. It reports whether
// a handler was found, so a second call with the same token returns false.
func (b *Bus) Unsubscribe(tok Token) bool {
	if tok == 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, hs := range b.handlers {
		for i, h := range hs {
			if h.token == tok {
				b.handlers[t] = append(hs[:i:i], hs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Handlers returns the number of registered handlers across all event types.
func (b *Bus) Handlers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, hs := range b.handlers {
		n += len(hs)
	}
	return n
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
func (b *Bus) DispatchAll() {
	for t, events := range b.front {
		b.mu.Lock()
		handlers := append([]handlerEntry(nil), b.handlers[t]...)
		b.mu.Unlock()
		for _, ev := range events {
			for _, h := range handlers {
				// Subscribe and Emit use the same type key, so the handler's
				// parameter type always matches ev.
				callHandler(h.fn, ev)
			}
		}
	}
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
