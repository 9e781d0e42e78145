package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motolinktech/server/internal/dto"
	"github.com/motolinktech/server/internal/service"
	pkgerrors "github.com/motolinktech/server/pkg/errors"
	"github.com/motolinktech/server/pkg/response"
)

// WorkShiftSlotHandler serves the slot lifecycle endpoints.
type WorkShiftSlotHandler struct {
	slotSvc service.WorkShiftSlotService
}

// NewWorkShiftSlotHandler creates a WorkShiftSlotHandler.
func NewWorkShiftSlotHandler(slotSvc service.WorkShiftSlotService) *WorkShiftSlotHandler {
	return &WorkShiftSlotHandler{slotSvc: slotSvc}
}

// ListSlots lists slots with filters and pagination.
// GET /api/v1/work-shift-slots
func (h *WorkShiftSlotHandler) ListSlots(c *gin.Context) {
	var req dto.ListWorkShiftSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	slots, total, err := h.slotSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OKPage(c, slots, total, req.GetPage(), req.GetPageSize())
}

// GetSlot returns one slot with its full log trail.
// GET /api/v1/work-shift-slots/:id
func (h *WorkShiftSlotHandler) GetSlot(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "slot id is required")
		return
	}

	slot, err := h.slotSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// CreateSlot creates a slot.
// POST /api/v1/work-shift-slots
func (h *WorkShiftSlotHandler) CreateSlot(c *gin.Context) {
	var req dto.CreateWorkShiftSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	slot, err := h.slotSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.Created(c, slot)
}

// UpdateSlot partially edits a slot.
// PUT /api/v1/work-shift-slots/:id
func (h *WorkShiftSlotHandler) UpdateSlot(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "slot id is required")
		return
	}

	var req dto.UpdateWorkShiftSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	slot, err := h.slotSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// DeleteSlot removes an OPEN slot or cancels a committed one.
// DELETE /api/v1/work-shift-slots/:id
func (h *WorkShiftSlotHandler) DeleteSlot(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "slot id is required")
		return
	}

	if err := h.slotSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, nil)
}

// SendInvite invites a deliveryman to the slot.
// POST /api/v1/work-shift-slots/:id/invite
func (h *WorkShiftSlotHandler) SendInvite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "slot id is required")
		return
	}

	var req dto.SendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.slotSvc.SendInvite(c.Request.Context(), id, &req)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, result)
}

// AcceptInvite resolves the slot-embedded invite token. The slot is looked
// up by the token, so the confirmation link only has to carry the token.
// POST /api/v1/public/work-shift-slots/accept
func (h *WorkShiftSlotHandler) AcceptInvite(c *gin.Context) {
	var req dto.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	slot, err := h.slotSvc.AcceptInvite(c.Request.Context(), &req)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// CheckIn records shift start.
// POST /api/v1/work-shift-slots/:id/check-in
func (h *WorkShiftSlotHandler) CheckIn(c *gin.Context) {
	h.attendance(c, h.slotSvc.CheckIn)
}

// CheckOut records shift end; completion still needs operator confirmation.
// POST /api/v1/work-shift-slots/:id/check-out
func (h *WorkShiftSlotHandler) CheckOut(c *gin.Context) {
	h.attendance(c, h.slotSvc.CheckOut)
}

func (h *WorkShiftSlotHandler) attendance(c *gin.Context, op func(ctx context.Context, slotID, location string) (*dto.WorkShiftSlotResponse, error)) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "slot id is required")
		return
	}

	var req dto.CheckInOutRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	slot, err := op(c.Request.Context(), id, req.Location)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// ConfirmCompletion closes out a checked-out shift.
// POST /api/v1/work-shift-slots/:id/confirm-completion
func (h *WorkShiftSlotHandler) ConfirmCompletion(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "slot id is required")
		return
	}

	slot, err := h.slotSvc.ConfirmCompletion(c.Request.Context(), id)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// MarkAbsent records a no-show.
// POST /api/v1/work-shift-slots/:id/absent
func (h *WorkShiftSlotHandler) MarkAbsent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "slot id is required")
		return
	}

	var req dto.MarkAbsentRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	slot, err := h.slotSvc.MarkAbsent(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// ConnectTracking marks the courier's tracking app as connected.
// POST /api/v1/work-shift-slots/:id/tracking
func (h *WorkShiftSlotHandler) ConnectTracking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "slot id is required")
		return
	}

	slot, err := h.slotSvc.ConnectTracking(c.Request.Context(), id)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.OK(c, slot)
}

// CopyShifts clones a client's day schedule onto another date.
// POST /api/v1/work-shift-slots/copy
func (h *WorkShiftSlotHandler) CopyShifts(c *gin.Context) {
	var req dto.CopyShiftsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.slotSvc.CopyShifts(c.Request.Context(), &req)
	if err != nil {
		h.handleSlotError(c, err)
		return
	}

	response.Created(c, result)
}

// handleSlotError maps slot business errors onto the response envelope.
func (h *WorkShiftSlotHandler) handleSlotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSlotNotFound):
		response.NotFound(c, 20001, "work shift slot not found")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 20002, err.Error())
	case errors.Is(err, service.ErrInvalidTimeInput):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, service.ErrShiftConflict):
		response.Conflict(c, 20004, err.Error())
	case errors.Is(err, service.ErrDeliverymanBlocked):
		response.Forbidden(c, 20005, "deliveryman is blocked")
	case errors.Is(err, service.ErrBlockedForClient):
		response.Forbidden(c, 20006, "deliveryman is blocked for this client")
	case errors.Is(err, service.ErrDeliverymanNoPhone):
		response.BadRequest(c, 20007, "deliveryman has no phone number")
	case errors.Is(err, service.ErrNotificationFailed):
		response.BadGateway(c, 20008, "invite saved but the message was not delivered")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20009, "slot was modified concurrently, reload and retry")
	case errors.Is(err, service.ErrClientNotFound):
		response.BadRequest(c, 20010, "client not found")
	case errors.Is(err, service.ErrDeliverymanNotFound):
		response.BadRequest(c, 20011, "deliveryman not found")
	case errors.Is(err, service.ErrInviteExpired):
		response.Error(c, http.StatusGone, 21003, "invite has expired")
	case errors.Is(err, service.ErrInviteTokenMismatch):
		response.Forbidden(c, 21002, "invite token does not match")
	default:
		response.InternalError(c)
	}
}
