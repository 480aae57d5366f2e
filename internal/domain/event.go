package domain

import "context"

// Event is a registration-relevant snapshot of a college event, owned by the
// event catalog. Price is in minor currency units; zero means the event is free.
type Event struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Venue           string `json:"venue"`
	Capacity        int    `json:"capacity"`
	Price           int64  `json:"price"`
	RegisteredCount int    `json:"registered_count"`
}

// Free reports whether the event requires no payment.
func (e *Event) Free() bool {
	return e.Price <= 0
}

// Remaining returns the number of open seats.
func (e *Event) Remaining() int {
	return e.Capacity - e.RegisteredCount
}

// Full reports whether registration has reached capacity.
func (e *Event) Full() bool {
	return e.Capacity > 0 && e.RegisteredCount >= e.Capacity
}

// EventCatalog loads event snapshots from the event catalog service.
// Implementations must tolerate partial upstream payloads: a missing price
// or registered count normalizes to zero.
type EventCatalog interface {
	Load(ctx context.Context, eventID string) (*Event, error)
}
