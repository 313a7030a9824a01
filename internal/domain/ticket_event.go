package domain

import "time"

// TicketEventType captures what a trail entry records.
type TicketEventType string

const (
	TicketEventCreated   TicketEventType = "CREATED"
	TicketEventAssigned  TicketEventType = "ASSIGNED"
	TicketEventCompleted TicketEventType = "COMPLETED"
)

// TicketEvent is an immutable audit trail entry. The execute comment, when
// given, is stored under "comment" in NewValue.
type TicketEvent struct {
	ID        string
	TicketID  string
	ActorID   *string
	EventType TicketEventType
	OldValue  map[string]any
	NewValue  map[string]any
	CreatedAt time.Time
}
