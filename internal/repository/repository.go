package repository

import "gorm.io/gorm"

// Repository aggregates every repository interface.
type Repository struct {
	WorkShiftSlot WorkShiftSlotRepository
	Invite        InviteRepository
	Deliveryman   DeliverymanRepository
	Client        ClientRepository
}

// NewRepository builds the repository aggregate.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		WorkShiftSlot: NewWorkShiftSlotRepo(db),
		Invite:        NewInviteRepo(db),
		Deliveryman:   NewDeliverymanRepo(db),
		Client:        NewClientRepo(db),
	}
}
