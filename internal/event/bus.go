package event

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Type identifies a category of event.
type Type string

// Known event types.
const (
	ScanStarted   Type = "scan.started"
	ScanProgress  Type = "scan.progress"
	ScanCompleted Type = "scan.completed"
	ScanFailed    Type = "scan.failed"
	FilesDeleted  Type = "files.deleted"
	FilesCopied   Type = "files.copied"
)

// All subscribes a handler to every event type.
const All Type = "*"

// Event represents something that happened in the system.
type Event struct {
	Type      Type           `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Handler is a function that processes an event.
type Handler func(Event)

type subscription struct {
	id uint64
	h  Handler
}

// Bus is an in-process event bus backed by a buffered channel.
type Bus struct {
	ch      chan Event
	mu      sync.RWMutex
	subs    map[Type][]subscription
	nextID  uint64
	logger  *slog.Logger
	done    chan struct{}
	stopped bool
}

// NewBus creates a new event bus with the given buffer size.
func NewBus(logger *slog.Logger, bufSize int) *Bus {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Bus{
		ch:     make(chan Event, bufSize),
		subs:   make(map[Type][]subscription),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Subscribe registers a handler for the given event type, or for every type
// when t is All. The returned function removes the handler; calling it more
// than once is harmless.
func (b *Bus) Subscribe(t Type, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, h: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs[t] = slices.DeleteFunc(b.subs[t], func(s subscription) bool { return s.id == id })
	}
}

// Publish sends an event to the bus. Non-blocking; drops with a warning if the buffer is full.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	select {
	case b.ch <- e:
	default:
		b.logger.Warn("event bus full, dropping event", "type", string(e.Type))
	}
}

// Start begins draining the channel and dispatching events to subscribers.
// Call this in a goroutine. It blocks until Stop is called.
func (b *Bus) Start() {
	for {
		select {
		case e := <-b.ch:
			b.dispatch(e)
		case <-b.done:
			for {
				select {
				case e := <-b.ch:
					b.dispatch(e)
				default:
					return
				}
			}
		}
	}
}

// Stop signals the bus to stop processing events after draining the buffer.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.stopped {
		b.stopped = true
		close(b.done)
	}
}

func (b *Bus) dispatch(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Type])+len(b.subs[All]))
	for _, s := range b.subs[e.Type] {
		handlers = append(handlers, s.h)
	}
	for _, s := range b.subs[All] {
		handlers = append(handlers, s.h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked", "type", string(e.Type), "panic", r)
				}
			}()
			h(e)
		}()
	}
}
