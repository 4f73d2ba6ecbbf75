package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"leadsync/internal/application/chat"
	"leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/utils"
)

type ChatHandler struct {
	chat   chatService
	logger logger.Interface
}

func NewChatHandler(chat chatService, logger logger.Interface) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger,
	}
}

type OpenTicketRequest struct {
	ClientID int64 `json:"client_id"`
}

type SendMessageRequest struct {
	ClientID int64  `json:"client_id"`
	Content  string `json:"message" binding:"required"`
	MType    string `json:"mtype"`
	Platform string `json:"platform"`
}

type PresenceResponse struct {
	TicketID     int64   `json:"ticket_id"`
	Participants []int64 `json:"participants"`
}

// OpenTicket joins the ticket room and loads its messages.
// POST /api/tickets/:id/open
func (h *ChatHandler) OpenTicket(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req OpenTicketRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}

	messages, err := h.chat.Open(c.Request.Context(), ticketID, req.ClientID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", messages)
}

// ListMessages returns the reconciled thread of an opened ticket.
// GET /api/tickets/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	messages, ok := h.chat.Messages(ticketID)
	if !ok {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("conversation is not open", "open the ticket first"))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", messages)
}

// SendMessage posts a message; the response carries the PENDING or
// settled entry.
// POST /api/tickets/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for send message", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("message is required", err.Error()))
		return
	}

	m, err := h.chat.Send(c.Request.Context(), chat.SendInput{
		TicketID: ticketID,
		ClientID: req.ClientID,
		Content:  req.Content,
		MType:    req.MType,
		Platform: req.Platform,
	})
	if err != nil {
		if m.LocalID == "" {
			utils.ErrorResponseWithError(c, err)
			return
		}
		// the failed entry stays in the thread flagged ERROR
		status := http.StatusBadGateway
		if appErr := errors.GetAppError(err); appErr != nil && appErr.Code >= 400 {
			status = appErr.Code
		}
		c.JSON(status, utils.APIResponse{
			Success: false,
			Data:    m,
			Error: &utils.ErrorInfo{
				Type:    string(errors.ErrorTypeRequest),
				Message: errors.UserMessage(err),
			},
		})
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "", m)
}

// GetTimeline returns messages, logs and notes grouped for display.
// GET /api/tickets/:id/timeline
func (h *ChatHandler) GetTimeline(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	blocks, err := h.chat.Timeline(c.Request.Context(), ticketID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", blocks)
}

// GetPresence lists who is viewing the ticket.
// GET /api/tickets/:id/presence
func (h *ChatHandler) GetPresence(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", PresenceResponse{
		TicketID:     ticketID,
		Participants: h.chat.Participants(ticketID),
	})
}

func parseTicketID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("invalid ticket id", raw)
	}
	return id, nil
}
