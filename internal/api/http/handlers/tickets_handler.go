package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages the ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.Context(), principal.User.ID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ticket": h.render(c, ticket)})
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.Context(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	return h.renderList(c, tickets)
}

// MyTickets GET /api/tickets/my-tickets.
func (h *TicketsHandler) MyTickets(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	tickets, err := h.service.ListMine(c.Context(), principal.User.ID, parseTicketQuery(c))
	if err != nil {
		return err
	}
	return h.renderList(c, tickets)
}

// AssignedToMe GET /api/tickets/assigned-to-me.
func (h *TicketsHandler) AssignedToMe(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	tickets, err := h.service.ListAssigned(c.Context(), principal.User.ID, parseTicketQuery(c))
	if err != nil {
		return err
	}
	return h.renderList(c, tickets)
}

// AllTickets GET /api/tickets/all-tickets.
func (h *TicketsHandler) AllTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	tickets, total, err := h.service.ListAllPaged(c.Context(), filter)
	if err != nil {
		return err
	}
	users, err := h.service.CollectUsers(c.Context(), tickets)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i], users))
	}
	pageSize := filter.Limit
	page := filter.Offset/pageSize + 1
	return c.JSON(dto.PageResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := fiber.Map{"ticket": h.render(c, ticket)}

	principal, _ := auth.PrincipalFromContext(c)
	if principal != nil && principal.User != nil && principal.User.Role == domain.RoleOperator {
		trail, err := h.service.ListTrail(c.Context(), ticket.ID, 50)
		if err != nil {
			return err
		}
		entries := make([]dto.TrailEntryResponse, 0, len(trail))
		for i := range trail {
			entries = append(entries, dto.NewTrailEntryResponse(&trail[i]))
		}
		resp["events"] = entries
	}
	return c.JSON(resp)
}

// Update PATCH /api/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Update(c.Context(), c.Params("id"), service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": h.render(c, ticket)})
}

// Delete DELETE /api/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.service.Delete(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Assign POST /api/tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ExecutorID == "" {
		return apperrors.NewValidationError("executor_id required", nil)
	}

	ticket, err := h.service.Assign(c.Context(), principal.User.ID, c.Params("id"), req.ExecutorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": h.render(c, ticket)})
}

// Execute POST /api/tickets/:id/execute.
func (h *TicketsHandler) Execute(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.ExecuteTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Execute(c.Context(), principal.User.ID, c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": h.render(c, ticket)})
}

func (h *TicketsHandler) render(c *fiber.Ctx, ticket *domain.Ticket) dto.TicketResponse {
	users, err := h.service.CollectUsers(c.Context(), []domain.Ticket{*ticket})
	if err != nil {
		users = map[string]domain.User{}
	}
	return dto.NewTicketResponse(ticket, users)
}

func (h *TicketsHandler) renderList(c *fiber.Ctx, tickets []domain.Ticket) error {
	users, err := h.service.CollectUsers(c.Context(), tickets)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i], users))
	}
	return c.JSON(fiber.Map{"tickets": items})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
