package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/motolinktech/server/internal/model"
)

// DeliverymanRepository is the courier directory lookup.
type DeliverymanRepository interface {
	GetByID(ctx context.Context, id string) (*model.Deliveryman, error)
}

type deliverymanRepo struct {
	db *gorm.DB
}

// NewDeliverymanRepo creates a DeliverymanRepository.
func NewDeliverymanRepo(db *gorm.DB) DeliverymanRepository {
	return &deliverymanRepo{db: db}
}

func (r *deliverymanRepo) GetByID(ctx context.Context, id string) (*model.Deliveryman, error) {
	var d model.Deliveryman
	err := r.db.WithContext(ctx).
		Where("deliveryman_id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}
