package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/motolinktech/server/config"
	"github.com/motolinktech/server/internal/api/handler"
	"github.com/motolinktech/server/internal/api/middleware"
	"github.com/motolinktech/server/pkg/redis"
)

// Setup builds the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// slot lifecycle (operator console)
		slots := v1.Group("/work-shift-slots")
		{
			slots.GET("", h.WorkShiftSlot.ListSlots)
			slots.POST("", h.WorkShiftSlot.CreateSlot)
			slots.POST("/copy", h.WorkShiftSlot.CopyShifts)
			slots.GET("/:id", h.WorkShiftSlot.GetSlot)
			slots.PUT("/:id", h.WorkShiftSlot.UpdateSlot)
			slots.DELETE("/:id", h.WorkShiftSlot.DeleteSlot)
			slots.POST("/:id/invite", h.WorkShiftSlot.SendInvite)
			slots.POST("/:id/check-in", h.WorkShiftSlot.CheckIn)
			slots.POST("/:id/check-out", h.WorkShiftSlot.CheckOut)
			slots.POST("/:id/confirm-completion", h.WorkShiftSlot.ConfirmCompletion)
			slots.POST("/:id/absent", h.WorkShiftSlot.MarkAbsent)
			slots.POST("/:id/tracking", h.WorkShiftSlot.ConnectTracking)
		}

		// invite batches (operator console)
		invites := v1.Group("/invites")
		{
			invites.POST("/send", h.Invite.SendInvites)
		}

		// courier-facing confirmation pages, token-authenticated and
		// rate-limited per IP
		public := v1.Group("/public")
		public.Use(middleware.RateLimit(rdb, 30, time.Minute))
		{
			public.GET("/invites/:id", h.Invite.GetInvite)
			public.POST("/invites/:id/respond", h.Invite.RespondToInvite)
			public.POST("/work-shift-slots/accept", h.WorkShiftSlot.AcceptInvite)
		}

		// downloads
		export := v1.Group("/export")
		{
			export.GET("/roster", h.Export.ClientDayRoster)
			export.GET("/calendar/:deliveryman_id", h.Export.DeliverymanCalendar)
		}
	}

	return r
}
