package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// In-memory repository fakes backing the service and handler tests.

type MemUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{users: make(map[string]domain.User)}
}

func (r *MemUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.JoinedAt = time.Now()
	user.UpdatedAt = user.JoinedAt
	r.users[user.ID] = *user
	return nil
}

func (r *MemUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *MemUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *MemUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type MemTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	order   []string
}

func NewMemTicketRepo() *MemTicketRepo {
	return &MemTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *MemTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *MemTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	// mirrors the SQL UPDATE: requester_id is never written
	ticket.RequesterID = stored.RequesterID
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *MemTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	for i, ticketID := range r.order {
		if ticketID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *MemTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := r.match(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *MemTicketRepo) CountWithFilter(_ context.Context, filter repository.TicketFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.match(filter))), nil
}

func (r *MemTicketRepo) match(filter repository.TicketFilter) []domain.Ticket {
	var matched []domain.Ticket
	// newest first, as the SQL orders by created_at DESC
	for i := len(r.order) - 1; i >= 0; i-- {
		ticket := r.tickets[r.order[i]]
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.ExecutorID != nil && (ticket.ExecutorID == nil || *ticket.ExecutorID != *filter.ExecutorID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		matched = append(matched, ticket)
	}
	return matched
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(priorities []domain.TicketPriority, priority domain.TicketPriority) bool {
	for _, p := range priorities {
		if p == priority {
			return true
		}
	}
	return false
}

type MemTrailRepo struct {
	mu      sync.Mutex
	entries []domain.TicketEvent
}

func NewMemTrailRepo() *MemTrailRepo {
	return &MemTrailRepo{}
}

func (r *MemTrailRepo) Create(_ context.Context, event *domain.TicketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now()
	r.entries = append(r.entries, *event)
	return nil
}

func (r *MemTrailRepo) ListByTicket(_ context.Context, ticketID string, limit int) ([]domain.TicketEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var result []domain.TicketEvent
	for i := len(r.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if r.entries[i].TicketID == ticketID {
			result = append(result, r.entries[i])
		}
	}
	return result, nil
}

type MemRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewMemRefreshStore() *MemRefreshStore {
	return &MemRefreshStore{tokens: make(map[string]string)}
}

func (s *MemRefreshStore) SaveRefresh(_ context.Context, digest, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[digest] = userID
	return nil
}

func (s *MemRefreshStore) ConsumeRefresh(_ context.Context, digest string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := s.tokens[digest]
	delete(s.tokens, digest)
	return userID, nil
}

func (s *MemRefreshStore) RevokeRefresh(_ context.Context, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, digest)
	return nil
}
