package bus

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusClosed is returned when publishing to a closed EventBus.
var ErrBusClosed = errors.New("event bus closed")

const defaultBufferSize = 100

type EventBus struct {
	events chan Event
	done   chan struct{}
	closed atomic.Bool
}

// NewEventBus creates a bus buffering up to size events. A non-positive
// size uses the default.
func NewEventBus(size int) *EventBus {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &EventBus{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

func (b *EventBus) Publish(ctx context.Context, ev Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.events <- ev:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks until an event is available. Events buffered before Close
// are still delivered; once they are drained Consume returns false. It also
// returns false when ctx is done.
func (b *EventBus) Consume(ctx context.Context) (Event, bool) {
	select {
	case ev := <-b.events:
		return ev, true
	default:
	}

	select {
	case ev := <-b.events:
		return ev, true
	case <-b.done:
		select {
		case ev := <-b.events:
			return ev, true
		default:
			return Event{}, false
		}
	case <-ctx.Done():
		return Event{}, false
	}
}

func (b *EventBus) Done() <-chan struct{} {
	return b.done
}

func (b *EventBus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}
