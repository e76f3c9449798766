// internal/service/events.go
package service

import "printer-service/internal/model"

// EventPublisher receives printer lifecycle and status events. The
// websocket event bus implements it; services only depend on this
// narrow surface so they can run without one.
type EventPublisher interface {
	Publish(event *model.PrinterEvent)
}

// publishEvent forwards to the bus when one is wired
func publishEvent(bus EventPublisher, event *model.PrinterEvent) {
	if bus != nil {
		bus.Publish(event)
	}
}
