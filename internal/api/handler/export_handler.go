package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motolinktech/server/internal/service"
	"github.com/motolinktech/server/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler serves schedule downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ClientDayRoster downloads a client's day roster spreadsheet.
// GET /api/v1/export/roster?client_id=...&date=...
func (h *ExportHandler) ClientDayRoster(c *gin.Context) {
	clientID := c.Query("client_id")
	date := c.Query("date")
	if clientID == "" || date == "" {
		response.BadRequest(c, 10001, "client_id and date are required")
		return
	}

	data, filename, err := h.exportSvc.ClientDayRoster(c.Request.Context(), clientID, date)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// DeliverymanCalendar downloads a courier's shift calendar feed.
// GET /api/v1/export/calendar/:deliveryman_id?from=...&to=...
func (h *ExportHandler) DeliverymanCalendar(c *gin.Context) {
	deliverymanID := c.Param("deliveryman_id")
	if deliverymanID == "" {
		response.BadRequest(c, 10001, "deliveryman id is required")
		return
	}

	data, filename, err := h.exportSvc.DeliverymanCalendar(c.Request.Context(), deliverymanID, c.Query("from"), c.Query("to"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, icsContentType, data)
}

// handleExportError maps export business errors onto the response envelope.
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		response.NotFound(c, 20010, "client not found")
	case errors.Is(err, service.ErrDeliverymanNotFound):
		response.NotFound(c, 20011, "deliveryman not found")
	case errors.Is(err, service.ErrInvalidTimeInput):
		response.BadRequest(c, 20003, err.Error())
	default:
		response.InternalError(c)
	}
}
