package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// EventType represents a lifecycle phase of the store
type EventType string

const (
	EventStoreClosed   EventType = "store_closed"
	EventTableCreated  EventType = "table_created"
	EventNotifyStart   EventType = "notify_start"
	EventNotifyEnd     EventType = "notify_end"
	EventDatumRejected EventType = "datum_rejected"
	EventQueryStart    EventType = "query_start"
	EventQueryEnd      EventType = "query_end"
)

// Event represents a lifecycle event
type Event struct {
	Type      EventType   // Type of event
	OpID      string      // Notify or Query call this event belongs to
	Table     string      // Table involved, if any
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Phase-specific data (row counts, errors, schema)
}

// Observer interface for event subscribers
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a plain function to Observer.
// Function observers cannot be passed to RemoveObserver.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(event Event) { f(event) }

// AddObserver registers an observer to receive lifecycle events
func (s *Store) AddObserver(observer Observer) {
	s.observers = append(s.observers, observer)
}

// RemoveObserver unregisters an observer
func (s *Store) RemoveObserver(observer Observer) {
	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all observers in registration order.
// A panicking observer is logged and skipped; the rest still run.
func (s *Store) notify(event Event) {
	event.Timestamp = time.Now()
	for i, observer := range s.observers {
		s.deliver(i, observer, event)
	}
}

func (s *Store) deliver(i int, observer Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("observer failed",
				slog.Int("observer", i),
				slog.String("event", string(event.Type)),
				slog.String("error", fmt.Sprint(r)),
			)
		}
	}()
	observer.OnEvent(event)
}
