// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// EventBus decouples the services from websocket delivery. Services
// publish into a buffered channel and never block; the dispatch loop
// fans events out to subscribers. A full bus drops the event, printer
// state lives in the database so a dropped event only delays a UI.
type EventBus struct {
	events      chan *model.PrinterEvent
	subscribers map[model.EventType][]chan *model.PrinterEvent
	all         []chan *model.PrinterEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
	done        chan struct{}
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events:      make(chan *model.PrinterEvent, 1000),
		subscribers: make(map[model.EventType][]chan *model.PrinterEvent),
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// Start runs the dispatch loop until Stop is called
func (eb *EventBus) Start() {
	for {
		select {
		case event := <-eb.events:
			eb.distribute(event)
		case <-eb.done:
			return
		}
	}
}

// Stop terminates the dispatch loop
func (eb *EventBus) Stop() {
	close(eb.done)
}

// Publish queues an event for distribution. Implements
// service.EventPublisher.
func (eb *EventBus) Publish(event *model.PrinterEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
			zap.String("printer_id", event.PrinterID.String()),
		)
	}
}

// Subscribe returns a channel receiving events of the given types, or
// every event when none are named.
func (eb *EventBus) Subscribe(types ...model.EventType) <-chan *model.PrinterEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan *model.PrinterEvent, 100)
	if len(types) == 0 {
		eb.all = append(eb.all, subscriber)
		return subscriber
	}
	for _, t := range types {
		eb.subscribers[t] = append(eb.subscribers[t], subscriber)
	}
	return subscriber
}

// distribute delivers an event to its subscribers
func (eb *EventBus) distribute(event *model.PrinterEvent) {
	eb.mutex.RLock()
	targets := make([]chan *model.PrinterEvent, 0, len(eb.all)+len(eb.subscribers[event.EventType]))
	targets = append(targets, eb.all...)
	targets = append(targets, eb.subscribers[event.EventType]...)
	eb.mutex.RUnlock()

	for _, subscriber := range targets {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
