package handler

import "github.com/motolinktech/server/internal/service"

// Handler aggregates every HTTP handler.
type Handler struct {
	WorkShiftSlot *WorkShiftSlotHandler
	Invite        *InviteHandler
	Export        *ExportHandler
}

// NewHandler builds the handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		WorkShiftSlot: NewWorkShiftSlotHandler(svc.WorkShiftSlot),
		Invite:        NewInviteHandler(svc.Invite),
		Export:        NewExportHandler(svc.Export),
	}
}
