package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type ticketFixture struct {
	svc     *TicketService
	users   *testutil.MemUserRepo
	tickets *testutil.MemTicketRepo
	trail   *testutil.MemTrailRepo
}

func newTicketFixture() *ticketFixture {
	users := testutil.NewMemUserRepo()
	tickets := testutil.NewMemTicketRepo()
	trail := testutil.NewMemTrailRepo()
	svc := NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		TrailRepo:  trail,
		Dispatcher: events.NewInMemoryDispatcher(),
	})
	return &ticketFixture{svc: svc, users: users, tickets: tickets, trail: trail}
}

func (f *ticketFixture) addUser(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     gofakeit.Username(),
		Email:        gofakeit.Email(),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func TestCreateTicketStartsNewAndUnassigned(t *testing.T) {
	f := newTicketFixture()
	alice := f.addUser(t, domain.RoleRequester)

	ticket, err := f.svc.Create(context.Background(), alice.ID, TicketCreateInput{
		Title:       "Printer broken",
		Description: "The office printer no longer prints.",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, alice.ID, ticket.RequesterID)
	assert.Nil(t, ticket.ExecutorID)
	assert.Nil(t, ticket.CompletedAt)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture()
	alice := f.addUser(t, domain.RoleRequester)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: " ", Description: "d"})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	_, err = f.svc.Create(ctx, alice.ID, TicketCreateInput{
		Title: "t", Description: "d", Priority: "CRITICAL",
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestAssignRequiresExecutorRole(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	// assigning to a requester is rejected
	_, err = f.svc.Assign(ctx, bob.ID, ticket.ID, alice.ID)
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, 400, domainErr.HTTPStatus)
	assert.Equal(t, "no such executor", domainErr.Message)

	// unknown user id likewise
	_, err = f.svc.Assign(ctx, bob.ID, ticket.ID, "no-such-user")
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	// the ticket stays untouched
	stored, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, stored.Status)
	assert.Nil(t, stored.ExecutorID)
}

func TestAssignSetsExecutorAndStatus(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)
	carol := f.addUser(t, domain.RoleExecutor)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	assigned, err := f.svc.Assign(ctx, bob.ID, ticket.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.ExecutorID)
	assert.Equal(t, carol.ID, *assigned.ExecutorID)

	// re-assignment while still ASSIGNED is permitted
	dave := f.addUser(t, domain.RoleExecutor)
	reassigned, err := f.svc.Assign(ctx, bob.ID, ticket.ID, dave.ID)
	require.NoError(t, err)
	assert.Equal(t, dave.ID, *reassigned.ExecutorID)
}

func TestAssignRejectedAfterCompletion(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)
	carol := f.addUser(t, domain.RoleExecutor)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, bob.ID, ticket.ID, carol.ID)
	require.NoError(t, err)
	_, err = f.svc.Execute(ctx, carol.ID, ticket.ID, "")
	require.NoError(t, err)

	dave := f.addUser(t, domain.RoleExecutor)
	_, err = f.svc.Assign(ctx, bob.ID, ticket.ID, dave.ID)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestExecuteOnlyByAssignedExecutor(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)
	carol := f.addUser(t, domain.RoleExecutor)
	dave := f.addUser(t, domain.RoleExecutor)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, bob.ID, ticket.ID, carol.ID)
	require.NoError(t, err)

	// dave is an executor but not the assignee
	_, err = f.svc.Execute(ctx, dave.ID, ticket.ID, "trying anyway")
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.ToDomainError(err).HTTPStatus)

	// status unchanged after the rejected attempt
	stored, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestExecuteCompletesAndStampsTimestamp(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)
	carol := f.addUser(t, domain.RoleExecutor)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, bob.ID, ticket.ID, carol.ID)
	require.NoError(t, err)

	done, err := f.svc.Execute(ctx, carol.ID, ticket.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	// the comment lands in the audit trail
	trail, err := f.svc.ListTrail(ctx, ticket.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, trail)
	assert.Equal(t, domain.TicketEventCompleted, trail[0].EventType)
	assert.Equal(t, "fixed", trail[0].NewValue["comment"])
}

func TestExecuteUnassignedTicketForbidden(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	carol := f.addUser(t, domain.RoleExecutor)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	_, err = f.svc.Execute(ctx, carol.ID, ticket.ID, "")
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.ToDomainError(err).HTTPStatus)
}

func TestCompletedAtOnlyWhenCompleted(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)
	carol := f.addUser(t, domain.RoleExecutor)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	assert.Nil(t, ticket.CompletedAt)

	assigned, err := f.svc.Assign(ctx, bob.ID, ticket.ID, carol.ID)
	require.NoError(t, err)
	assert.Nil(t, assigned.CompletedAt)

	done, err := f.svc.Execute(ctx, carol.ID, ticket.ID, "")
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, domain.TicketStatusCompleted, done.Status)
}

func TestRequesterImmutableThroughUpdate(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	title := "updated title"
	priority := domain.TicketPriorityHigh
	updated, err := f.svc.Update(ctx, ticket.ID, TicketUpdateInput{Title: &title, Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, updated.RequesterID)
	assert.Equal(t, "updated title", updated.Title)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)
	// status untouched by a general update
	assert.Equal(t, domain.TicketStatusNew, updated.Status)
}

func TestListMineScopesToRequester(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	eve := f.addUser(t, domain.RoleRequester)

	_, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "alice 1", Description: "d"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, eve.ID, TicketCreateInput{Title: "eve 1", Description: "d"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "alice 2", Description: "d"})
	require.NoError(t, err)

	mine, err := f.svc.ListMine(ctx, alice.ID, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, ticket := range mine {
		assert.Equal(t, alice.ID, ticket.RequesterID)
	}
}

func TestListAssignedScopesToExecutor(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)
	carol := f.addUser(t, domain.RoleExecutor)
	dave := f.addUser(t, domain.RoleExecutor)

	first, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "one", Description: "d"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "two", Description: "d"})
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, bob.ID, first.ID, carol.ID)
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, bob.ID, second.ID, dave.ID)
	require.NoError(t, err)

	assigned, err := f.svc.ListAssigned(ctx, carol.ID, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, first.ID, assigned[0].ID)
}

func TestListAllPagedCounts(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)

	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{
			Title:       gofakeit.Sentence(3),
			Description: gofakeit.Sentence(8),
		})
		require.NoError(t, err)
	}

	page, total, err := f.svc.ListAllPaged(ctx, TicketListFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.EqualValues(t, 5, total)

	rest, _, err := f.svc.ListAllPaged(ctx, TicketListFilter{Limit: 10, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestDeleteTicket(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, bob.ID, ticket.ID))

	_, err = f.svc.Get(ctx, ticket.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
}

func TestGetUnknownTicketNotFound(t *testing.T) {
	f := newTicketFixture()

	_, err := f.svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
}

func TestCollectUsersResolvesReferences(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()
	alice := f.addUser(t, domain.RoleRequester)
	bob := f.addUser(t, domain.RoleOperator)
	carol := f.addUser(t, domain.RoleExecutor)

	ticket, err := f.svc.Create(ctx, alice.ID, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	assigned, err := f.svc.Assign(ctx, bob.ID, ticket.ID, carol.ID)
	require.NoError(t, err)

	users, err := f.svc.CollectUsers(ctx, []domain.Ticket{*assigned})
	require.NoError(t, err)
	assert.Contains(t, users, alice.ID)
	assert.Contains(t, users, carol.ID)
	assert.NotContains(t, users, bob.ID)
}

var _ repository.TicketRepository = (*testutil.MemTicketRepo)(nil)
var _ repository.UserRepository = (*testutil.MemUserRepo)(nil)
var _ repository.TicketEventRepository = (*testutil.MemTrailRepo)(nil)
var _ RefreshStore = (*testutil.MemRefreshStore)(nil)
