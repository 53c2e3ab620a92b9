package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// TicketsHandler serves both the user and the admin ticket routes. The
// caller's role decides scope and lifecycle events inside the service.
type TicketsHandler struct {
	tickets   *service.TicketService
	lifecycle *service.Lifecycle
}

// NewTicketsHandler builds handler.
func NewTicketsHandler(tickets *service.TicketService, lifecycle *service.Lifecycle) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, lifecycle: lifecycle}
}

// ListTickets GET /ticket.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	categoryID, err := queryInt64(c, "category_id")
	if err != nil {
		return err
	}
	page, err := h.tickets.List(c.UserContext(), caller, service.ListInput{
		CategoryID: categoryID,
		Department: queryString(c, "department"),
		State:      queryString(c, "state"),
		Page:       c.QueryInt("page", 1),
		PerPage:    c.QueryInt("per_page", 0),
	})
	if err != nil {
		return err
	}
	return respondPage(c, page, dto.NewTicketResponse)
}

// CreateTicket POST /ticket.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Create(c.UserContext(), caller, service.CreateInput{
		CategoryID: req.CategoryID,
		Department: req.Department,
		Title:      req.Title,
		Message:    req.Message,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.NewTicketDetailResponse(ticket))
}

// GetTicket GET /ticket/:id. For admins this claims the ticket.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Show(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, dto.NewTicketDetailResponse(ticket))
}

// UpdateTicket PUT|PATCH /ticket/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Update(c.UserContext(), caller, id, service.UpdateInput{
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, dto.NewTicketDetailResponse(ticket))
}

// DeleteTicket DELETE /ticket/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, nil)
}

// ReplyTicket POST /ticket/:ticket_id/reply.
func (h *TicketsHandler) ReplyTicket(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket_id", "ticket")
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	reply, err := h.lifecycle.Reply(c.UserContext(), caller, id, service.ReplyInput{Message: req.Message})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.NewReplyResponse(reply))
}

// DeleteReply DELETE /ticket/reply/:id.
func (h *TicketsHandler) DeleteReply(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "reply")
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteReply(c.UserContext(), caller, id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, nil)
}
