package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload for PATCH /tickets/:id.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	ExecutorID string `json:"executor_id"`
}

// ExecuteTicketRequest payload.
type ExecuteTicketRequest struct {
	Comment string `json:"comment"`
}

// TicketResponse is the denormalized ticket view: embedded user summaries
// plus human-readable labels for status and priority.
type TicketResponse struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Status          domain.TicketStatus   `json:"status"`
	StatusDisplay   string                `json:"status_display"`
	Priority        domain.TicketPriority `json:"priority"`
	PriorityDisplay string                `json:"priority_display"`
	Requester       *UserResponse         `json:"requester"`
	Executor        *UserResponse         `json:"executor"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	CompletedAt     *time.Time            `json:"completed_at"`
}

// TrailEntryResponse represents an audit trail entry.
type TrailEntryResponse struct {
	ID        string                 `json:"id"`
	EventType domain.TicketEventType `json:"event_type"`
	ActorID   *string                `json:"actor_id"`
	OldValue  map[string]any         `json:"old_value,omitempty"`
	NewValue  map[string]any         `json:"new_value,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// PageResponse wraps a paginated listing.
type PageResponse struct {
	Items    []TicketResponse `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int64            `json:"total"`
}

// NewTicketResponse maps a domain ticket, pulling requester/executor
// summaries from the resolved user set.
func NewTicketResponse(ticket *domain.Ticket, users map[string]domain.User) TicketResponse {
	resp := TicketResponse{
		ID:              ticket.ID,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          ticket.Status,
		StatusDisplay:   ticket.Status.Display(),
		Priority:        ticket.Priority,
		PriorityDisplay: ticket.Priority.Display(),
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		CompletedAt:     ticket.CompletedAt,
	}
	if requester, ok := users[ticket.RequesterID]; ok {
		r := NewUserResponse(&requester)
		resp.Requester = &r
	}
	if ticket.ExecutorID != nil {
		if executor, ok := users[*ticket.ExecutorID]; ok {
			e := NewUserResponse(&executor)
			resp.Executor = &e
		}
	}
	return resp
}

// NewTrailEntryResponse maps an audit trail entry.
func NewTrailEntryResponse(entry *domain.TicketEvent) TrailEntryResponse {
	return TrailEntryResponse{
		ID:        entry.ID,
		EventType: entry.EventType,
		ActorID:   entry.ActorID,
		OldValue:  entry.OldValue,
		NewValue:  entry.NewValue,
		CreatedAt: entry.CreatedAt,
	}
}
