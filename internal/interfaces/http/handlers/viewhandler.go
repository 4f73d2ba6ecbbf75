package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadsync/internal/application/query"
	"leadsync/internal/application/store"
	"leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/utils"
)

type ViewHandler struct {
	views  viewService
	unread unreadReader
	logger logger.Interface
}

func NewViewHandler(views viewService, unread unreadReader, logger logger.Interface) *ViewHandler {
	return &ViewHandler{
		views:  views,
		unread: unread,
		logger: logger,
	}
}

type ViewResponse struct {
	store.View
	URL string `json:"url"`
}

type ApplyViewResponse struct {
	Changed bool         `json:"changed"`
	View    ViewResponse `json:"view"`
}

type GroupTitleRequest struct {
	GroupTitle string `json:"group_title" binding:"required"`
}

type GroupTitleResponse struct {
	GroupTitle string `json:"group_title"`
}

type UnreadResponse struct {
	Unread int `json:"unread"`
}

// GetView returns the cached tickets of a view with its canonical URL.
// GET /api/views/:view
func (h *ViewHandler) GetView(c *gin.Context) {
	resp, err := h.viewResponse(c.Param("view"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// ApplyView applies the request's query string the way the address bar
// would. Only a changed query triggers a load.
// PUT /api/views/:view?<query>
func (h *ViewHandler) ApplyView(c *gin.Context) {
	view := c.Param("view")
	changed, err := h.views.Apply(c.Request.Context(), view, c.Request.URL.RawQuery)
	if err != nil {
		if stderrors.Is(err, query.ErrUnknownView) {
			utils.ErrorResponseWithError(c, errors.NewNotFoundError("unknown view", view))
			return
		}
		h.logger.Warnw("failed to apply view query", "view", view, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp, err := h.viewResponse(view)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", ApplyViewResponse{Changed: changed, View: resp})
}

// Refresh reloads every view with its current query.
// POST /api/views/refresh
func (h *ViewHandler) Refresh(c *gin.Context) {
	if err := h.views.Refresh(c.Request.Context()); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

// GetGroupTitle returns the selected group title.
// GET /api/group-title
func (h *ViewHandler) GetGroupTitle(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", GroupTitleResponse{GroupTitle: h.views.GroupTitle()})
}

// SetGroupTitle switches the selected group title.
// PUT /api/group-title
func (h *ViewHandler) SetGroupTitle(c *gin.Context) {
	var req GroupTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for set group title", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("group_title is required", err.Error()))
		return
	}
	if err := h.views.SetGroupTitle(c.Request.Context(), req.GroupTitle); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Group title updated", GroupTitleResponse{GroupTitle: h.views.GroupTitle()})
}

// GetUnread returns the total unseen message counter.
// GET /api/unread
func (h *ViewHandler) GetUnread(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", UnreadResponse{Unread: h.unread.Value()})
}

func (h *ViewHandler) viewResponse(view string) (ViewResponse, error) {
	v, err := h.views.View(view)
	if err != nil {
		if stderrors.Is(err, query.ErrUnknownView) {
			return ViewResponse{}, errors.NewNotFoundError("unknown view", view)
		}
		return ViewResponse{}, err
	}
	url, _ := h.views.URL(view)
	return ViewResponse{View: v, URL: url}, nil
}
