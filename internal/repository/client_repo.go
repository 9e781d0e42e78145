package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/motolinktech/server/internal/model"
)

// ClientRepository is the client site directory lookup plus the blocklist.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*model.Client, error)
	IsBlocked(ctx context.Context, clientID, deliverymanID string) (bool, error)
}

type clientRepo struct {
	db *gorm.DB
}

// NewClientRepo creates a ClientRepository.
func NewClientRepo(db *gorm.DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) GetByID(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).
		Where("client_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) IsBlocked(ctx context.Context, clientID, deliverymanID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ClientBlock{}).
		Where("client_id = ? AND deliveryman_id = ?", clientID, deliverymanID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
