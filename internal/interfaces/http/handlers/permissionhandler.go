package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadsync/internal/application/session"
	"leadsync/internal/domain/permission"
	vo "leadsync/internal/domain/permission/value_objects"
	"leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/utils"
)

type sessionProvider interface {
	Current() *session.Session
}

type PermissionHandler struct {
	sessions sessionProvider
	logger   logger.Interface
}

func NewPermissionHandler(sessions sessionProvider, logger logger.Interface) *PermissionHandler {
	return &PermissionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

type CheckPermissionRequest struct {
	Module           string `json:"module" binding:"required"`
	Action           string `json:"action" binding:"required"`
	ResponsibleID    string `json:"responsible_id"`
	SkipContextCheck bool   `json:"skip_context_check"`
}

type CheckPermissionResponse struct {
	Allowed bool   `json:"allowed"`
	Level   string `json:"level"`
	Strict  bool   `json:"strict"`
}

// CheckPermission evaluates the signed-in user's matrix for one ticket.
// POST /api/permissions/check
func (h *PermissionHandler) CheckPermission(c *gin.Context) {
	var req CheckPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("module and action are required", err.Error()))
		return
	}

	action, err := vo.NewAction(req.Action)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid action", err.Error()))
		return
	}

	module, err := vo.NewModule(req.Module)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid module", err.Error()))
		return
	}

	sess := h.sessions.Current()
	if sess == nil {
		utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("no active session"))
		return
	}

	allowed := sess.CanWithOptions(module, action, req.ResponsibleID, permission.Options{
		SkipContextCheck: req.SkipContextCheck,
	})
	utils.SuccessResponse(c, http.StatusOK, "", CheckPermissionResponse{
		Allowed: allowed,
		Level:   sess.Matrix().Level(module.Key(action)).String(),
		Strict:  sess.HasStrict(module, action),
	})
}
