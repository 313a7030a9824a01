package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Display returns the human-readable status label.
func (s TicketStatus) Display() string {
	switch s {
	case TicketStatusNew:
		return "New"
	case TicketStatusAssigned:
		return "Assigned"
	case TicketStatusInProgress:
		return "In progress"
	case TicketStatusCompleted:
		return "Completed"
	case TicketStatusClosed:
		return "Closed"
	}
	return string(s)
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority is one of the known values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Display returns the human-readable priority label.
func (p TicketPriority) Display() string {
	switch p {
	case TicketPriorityLow:
		return "Low"
	case TicketPriorityMedium:
		return "Medium"
	case TicketPriorityHigh:
		return "High"
	case TicketPriorityUrgent:
		return "Urgent"
	}
	return string(p)
}

// Ticket is the aggregate for support requests. RequesterID is set once at
// creation and never changes; ExecutorID stays nil until an operator assigns;
// CompletedAt is non-nil exactly when Status is COMPLETED.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	RequesterID string
	ExecutorID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Assignable reports whether an operator may still (re)assign the ticket.
// Assignment is allowed while the ticket is NEW or already ASSIGNED; once work
// has started or finished the assignment is frozen.
func (t *Ticket) Assignable() bool {
	return t.Status == TicketStatusNew || t.Status == TicketStatusAssigned
}
