package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motolinktech/server/internal/dto"
	"github.com/motolinktech/server/internal/service"
	pkgerrors "github.com/motolinktech/server/pkg/errors"
	"github.com/motolinktech/server/pkg/response"
)

// InviteHandler serves the bulk dispatch and the courier-facing invite pages.
type InviteHandler struct {
	inviteSvc service.InviteService
}

// NewInviteHandler creates an InviteHandler.
func NewInviteHandler(inviteSvc service.InviteService) *InviteHandler {
	return &InviteHandler{inviteSvc: inviteSvc}
}

// SendInvites dispatches invite messages for a day's INVITED slots.
// POST /api/v1/invites/send
func (h *InviteHandler) SendInvites(c *gin.Context) {
	var req dto.SendBulkInvitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.inviteSvc.SendInvites(c.Request.Context(), &req)
	if err != nil {
		h.handleInviteError(c, err)
		return
	}

	response.OK(c, result)
}

// GetInvite loads the confirmation page payload.
// GET /api/v1/public/invites/:id?token=...
func (h *InviteHandler) GetInvite(c *gin.Context) {
	id := c.Param("id")
	var req dto.GetInviteRequest
	if err := c.ShouldBindQuery(&req); err != nil || id == "" {
		response.BadRequest(c, 10001, "invite id and token are required")
		return
	}

	invite, err := h.inviteSvc.GetInvite(c.Request.Context(), id, req.Token)
	if err != nil {
		h.handleInviteError(c, err)
		return
	}

	response.OK(c, invite)
}

// RespondToInvite records the courier's accept/decline.
// POST /api/v1/public/invites/:id/respond
func (h *InviteHandler) RespondToInvite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "invite id is required")
		return
	}

	var req dto.RespondInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	invite, err := h.inviteSvc.RespondToInvite(c.Request.Context(), id, &req)
	if err != nil {
		h.handleInviteError(c, err)
		return
	}

	response.OK(c, invite)
}

// handleInviteError maps invite business errors onto the response envelope.
func (h *InviteHandler) handleInviteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInviteNotFound):
		response.NotFound(c, 21001, "invite not found")
	case errors.Is(err, service.ErrInviteTokenMismatch):
		response.Forbidden(c, 21002, "invite token does not match")
	case errors.Is(err, service.ErrInviteExpired):
		response.Error(c, http.StatusGone, 21003, "invite has expired")
	case errors.Is(err, service.ErrInviteResolved):
		response.Conflict(c, 21004, "invite was already answered")
	case errors.Is(err, service.ErrSlotNotFound):
		response.NotFound(c, 20001, "work shift slot not found")
	case errors.Is(err, service.ErrInvalidTimeInput):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20009, "invite was modified concurrently, reload and retry")
	default:
		response.InternalError(c)
	}
}
