package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadsync/internal/application/syncbus"
	"leadsync/internal/domain/ticket"
	"leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/utils"
)

type ticketMutator interface {
	UpdateTicket(ctx context.Context, id int64, fields map[string]any) (*ticket.Ticket, error)
	DeleteTickets(ctx context.Context, ids []int64) error
	MergeTickets(ctx context.Context, oldID, newID int64) error
}

type eventEmitter interface {
	Emit(e syncbus.Event)
}

type ticketPurger interface {
	Purge(id int64) int
}

type TicketHandler struct {
	tickets ticketMutator
	events  eventEmitter
	caches  ticketPurger
	logger  logger.Interface
}

func NewTicketHandler(tickets ticketMutator, events eventEmitter, caches ticketPurger, logger logger.Interface) *TicketHandler {
	return &TicketHandler{
		tickets: tickets,
		events:  events,
		caches:  caches,
		logger:  logger,
	}
}

type MergeTicketsRequest struct {
	TicketOld int64 `json:"ticket_old" binding:"required,gt=0"`
	TicketNew int64 `json:"ticket_new" binding:"required,gt=0,nefield=TicketOld"`
}

type DeleteTicketsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,dive,gt=0"`
}

// UpdateTicket patches the given fields and patches the caches with the
// ticket the backend returns.
// PATCH /api/tickets/:id
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		h.logger.Warnw("invalid request body for update ticket", "ticket_id", ticketID, "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("at least one field is required"))
		return
	}

	updated, err := h.tickets.UpdateTicket(c.Request.Context(), ticketID, fields)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.events.Emit(syncbus.TicketUpdated{TicketID: ticketID, Ticket: updated})
	h.logger.Infow("ticket updated", "ticket_id", ticketID)
	utils.SuccessResponse(c, http.StatusOK, "Ticket updated", updated)
}

// DeleteTickets removes the tickets on the backend, then from every cache.
// DELETE /api/tickets
func (h *TicketHandler) DeleteTickets(c *gin.Context) {
	var req DeleteTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for delete tickets", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("ids must list at least one ticket id", err.Error()))
		return
	}

	if err := h.tickets.DeleteTickets(c.Request.Context(), req.IDs); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	for _, id := range req.IDs {
		h.caches.Purge(id)
	}
	h.logger.Infow("tickets deleted", "ticket_ids", req.IDs)
	utils.SuccessResponse(c, http.StatusOK, "Tickets deleted", nil)
}

// MergeTickets asks the backend to fold ticket_old into ticket_new. The
// caches follow when the tickets_merged push arrives.
// POST /api/tickets/merge
func (h *TicketHandler) MergeTickets(c *gin.Context) {
	var req MergeTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for merge tickets", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("ticket_old and ticket_new must be two different ids", err.Error()))
		return
	}

	if err := h.tickets.MergeTickets(c.Request.Context(), req.TicketOld, req.TicketNew); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("tickets merged", "ticket_old", req.TicketOld, "ticket_new", req.TicketNew)
	utils.SuccessResponse(c, http.StatusOK, "Tickets merged", nil)
}
