package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/motolinktech/server/config"
	"github.com/motolinktech/server/internal/notifier"
	"github.com/motolinktech/server/internal/repository"
)

// Service aggregates every service interface.
type Service struct {
	WorkShiftSlot WorkShiftSlotService
	Invite        InviteService
	Export        ExportService
}

// NewService builds the service aggregate. The business timezone comes from
// configuration and is validated at load time.
func NewService(repo *repository.Repository, n notifier.Notifier, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Business.Timezone)
	if err != nil {
		return nil, err
	}
	norm := NewTimeNormalizer(loc)

	return &Service{
		WorkShiftSlot: NewWorkShiftSlotService(repo, n, norm, cfg, logger),
		Invite:        NewInviteService(repo, n, norm, cfg, logger),
		Export:        NewExportService(repo, norm, logger),
	}, nil
}
