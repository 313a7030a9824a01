package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle: create, assign, execute,
// role-scoped listing, update and delete.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	trail      repository.TicketEventRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	TrailRepo  repository.TicketEventRepository
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		trail:      deps.TrailRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketUpdateInput carries the mutable ticket fields. Status moves only
// through Assign and Execute, keeping the completed_at invariant intact.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
}

// TicketListFilter describes listing parameters shared by the scoped lists.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// Create opens a new ticket for the requester with status NEW.
func (s *TicketService) Create(ctx context.Context, requesterID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority",
			map[string]any{"priority": string(input.Priority)})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusNew,
		Priority:    input.Priority,
		RequesterID: requesterID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordTrail(ctx, &domain.TicketEvent{
		TicketID:  ticket.ID,
		ActorID:   &requesterID,
		EventType: domain.TicketEventCreated,
		NewValue:  map[string]any{"status": ticket.Status, "priority": ticket.Priority},
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  requesterID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// Get fetches a single ticket.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// List returns tickets for any authenticated caller, unscoped.
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.list(ctx, repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// ListMine returns tickets created by the caller.
func (s *TicketService) ListMine(ctx context.Context, requesterID string, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.list(ctx, repository.TicketFilter{
		RequesterID: &requesterID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

// ListAssigned returns tickets assigned to the caller.
func (s *TicketService) ListAssigned(ctx context.Context, executorID string, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.list(ctx, repository.TicketFilter{
		ExecutorID: &executorID,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// ListAllPaged returns the operator-wide listing together with a total count.
func (s *TicketService) ListAllPaged(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, int64, error) {
	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	total, err := s.tickets.CountWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// Update applies a partial update to title, description or priority.
func (s *TicketService) Update(ctx context.Context, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title must not be empty", nil)
		}
		ticket.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description must not be empty", nil)
		}
		ticket.Description = description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("unknown priority",
				map[string]any{"priority": string(*input.Priority)})
		}
		ticket.Priority = *input.Priority
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// Delete removes a ticket. Route guards restrict this to operators.
func (s *TicketService) Delete(ctx context.Context, actorID, ticketID string) error {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  actorID,
	})
	return nil
}

// Assign sets the executor and moves the ticket to ASSIGNED. The target must
// exist with role EXECUTOR. Re-assignment is allowed while the ticket is NEW
// or ASSIGNED; after work has started the assignment is frozen.
func (s *TicketService) Assign(ctx context.Context, operatorID, ticketID, executorID string) (*domain.Ticket, error) {
	executor, err := s.users.GetByID(ctx, executorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("no such executor",
				map[string]any{"executor_id": executorID})
		}
		return nil, apperrors.MapError(err)
	}
	if executor.Role != domain.RoleExecutor {
		return nil, apperrors.NewValidationError("no such executor",
			map[string]any{"executor_id": executorID})
	}

	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.Assignable() {
		return nil, apperrors.NewValidationError("ticket can no longer be assigned",
			map[string]any{"status": string(ticket.Status)})
	}

	oldExecutor := ticket.ExecutorID
	oldStatus := ticket.Status
	ticket.ExecutorID = &executor.ID
	ticket.Status = domain.TicketStatusAssigned
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordTrail(ctx, &domain.TicketEvent{
		TicketID:  ticket.ID,
		ActorID:   &operatorID,
		EventType: domain.TicketEventAssigned,
		OldValue:  map[string]any{"status": oldStatus, "executor_id": oldExecutor},
		NewValue:  map[string]any{"status": ticket.Status, "executor_id": executor.ID},
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  operatorID,
		Payload: events.TicketAssignedPayload{
			ExecutorID:  executor.ID,
			OldExecutor: oldExecutor,
		},
	})
	return ticket, nil
}

// Execute completes a ticket. Only the assigned executor may do so; the
// optional comment lands in the audit trail.
func (s *TicketService) Execute(ctx context.Context, callerID, ticketID, comment string) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ExecutorID == nil || *ticket.ExecutorID != callerID {
		return nil, apperrors.NewForbidden("ticket is not assigned to you")
	}

	now := time.Now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusCompleted
	ticket.CompletedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	newValue := map[string]any{"status": ticket.Status}
	if comment = strings.TrimSpace(comment); comment != "" {
		newValue["comment"] = comment
	}
	s.recordTrail(ctx, &domain.TicketEvent{
		TicketID:  ticket.ID,
		ActorID:   &callerID,
		EventType: domain.TicketEventCompleted,
		OldValue:  map[string]any{"status": oldStatus},
		NewValue:  newValue,
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCompleted,
		TicketID: ticket.ID,
		ActorID:  callerID,
		Payload: events.TicketCompletedPayload{
			ExecutorID: callerID,
			Comment:    comment,
		},
	})
	return ticket, nil
}

// ListTrail returns the persisted audit entries for a ticket, newest first.
func (s *TicketService) ListTrail(ctx context.Context, ticketID string, limit int) ([]domain.TicketEvent, error) {
	if s.trail == nil {
		return []domain.TicketEvent{}, nil
	}
	entries, err := s.trail.ListByTicket(ctx, ticketID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// CollectUsers resolves the requester and executor records referenced by the
// given tickets, for denormalized responses.
func (s *TicketService) CollectUsers(ctx context.Context, tickets []domain.Ticket) (map[string]domain.User, error) {
	resolved := make(map[string]domain.User)
	fetch := func(id string) error {
		if _, ok := resolved[id]; ok {
			return nil
		}
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return apperrors.MapError(err)
		}
		resolved[id] = *user
		return nil
	}
	for i := range tickets {
		if err := fetch(tickets[i].RequesterID); err != nil {
			return nil, err
		}
		if tickets[i].ExecutorID != nil {
			if err := fetch(*tickets[i].ExecutorID); err != nil {
				return nil, err
			}
		}
	}
	return resolved, nil
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) recordTrail(ctx context.Context, entry *domain.TicketEvent) {
	if s.trail == nil {
		return
	}
	_ = s.trail.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
