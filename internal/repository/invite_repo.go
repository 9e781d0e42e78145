package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/motolinktech/server/internal/model"
	pkgerrors "github.com/motolinktech/server/pkg/errors"
)

// InviteRepository is the store for denormalized invite records.
type InviteRepository interface {
	Create(ctx context.Context, invite *model.Invite) error
	GetByID(ctx context.Context, id string) (*model.Invite, error)
	// UpdateStatusFrom persists the invite only if its stored status still
	// equals expectedStatus; pkg/errors.ErrOptimisticLock otherwise.
	UpdateStatusFrom(ctx context.Context, invite *model.Invite, expectedStatus string) error
}

type inviteRepo struct {
	db *gorm.DB
}

// NewInviteRepo creates an InviteRepository.
func NewInviteRepo(db *gorm.DB) InviteRepository {
	return &inviteRepo{db: db}
}

func (r *inviteRepo) Create(ctx context.Context, invite *model.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepo) GetByID(ctx context.Context, id string) (*model.Invite, error) {
	var invite model.Invite
	err := r.db.WithContext(ctx).
		Where("invite_id = ?", id).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepo) UpdateStatusFrom(ctx context.Context, invite *model.Invite, expectedStatus string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Invite{}).
		Where("invite_id = ? AND status = ?", invite.InviteID, expectedStatus).
		Select("*").
		Omit("invite_id", "created_at").
		Updates(invite)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
