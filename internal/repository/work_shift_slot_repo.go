package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/motolinktech/server/internal/model"
	pkgerrors "github.com/motolinktech/server/pkg/errors"
)

// ErrOverlappingCommitment is returned by InviteAssign when the deliveryman
// picked up an overlapping commitment between the caller's conflict check and
// the write.
var ErrOverlappingCommitment = errors.New("deliveryman has an overlapping commitment")

// SlotListFilter narrows List queries.
type SlotListFilter struct {
	ClientID      string
	DeliverymanID string
	Status        string
	// Statuses is the internal multi-status variant; ignored when Status is set.
	Statuses     []string
	Period       []string
	IsFreelancer *bool
	From         time.Time
	To           time.Time
	Offset       int
	Limit        int
}

// WorkShiftSlotRepository is the slot store.
type WorkShiftSlotRepository interface {
	Create(ctx context.Context, slot *model.WorkShiftSlot) error
	GetByID(ctx context.Context, id string) (*model.WorkShiftSlot, error)
	GetByInviteToken(ctx context.Context, token string) (*model.WorkShiftSlot, error)
	List(ctx context.Context, filter SlotListFilter) ([]model.WorkShiftSlot, int64, error)
	// ListForDay returns a client's slots whose shift_date falls inside
	// [dayStart, dayEnd), optionally restricted to given statuses and to
	// slots with an assigned deliveryman.
	ListForDay(ctx context.Context, clientID string, dayStart, dayEnd time.Time, statuses []string, onlyAssigned bool) ([]model.WorkShiftSlot, error)
	// FindOverlapping returns the first active-state slot of the deliveryman
	// whose interval strictly overlaps [start, end), or nil when free.
	FindOverlapping(ctx context.Context, deliverymanID string, start, end time.Time, excludeSlotID string) (*model.WorkShiftSlot, error)
	// UpdateStatusFrom persists the slot only if its stored status still
	// equals expectedStatus; pkg/errors.ErrOptimisticLock otherwise.
	UpdateStatusFrom(ctx context.Context, slot *model.WorkShiftSlot, expectedStatus string) error
	// InviteAssign persists an INVITED assignment inside a transaction that
	// serializes per deliveryman and re-checks for overlapping commitments.
	InviteAssign(ctx context.Context, slot *model.WorkShiftSlot, expectedStatuses []string) error
	Update(ctx context.Context, slot *model.WorkShiftSlot) error
	HardDelete(ctx context.Context, id string) error
}

type workShiftSlotRepo struct {
	db *gorm.DB
}

// NewWorkShiftSlotRepo creates a WorkShiftSlotRepository.
func NewWorkShiftSlotRepo(db *gorm.DB) WorkShiftSlotRepository {
	return &workShiftSlotRepo{db: db}
}

func (r *workShiftSlotRepo) Create(ctx context.Context, slot *model.WorkShiftSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *workShiftSlotRepo) GetByID(ctx context.Context, id string) (*model.WorkShiftSlot, error) {
	var slot model.WorkShiftSlot
	err := r.db.WithContext(ctx).
		Preload("Deliveryman").
		Preload("Client").
		Where("work_shift_slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *workShiftSlotRepo) GetByInviteToken(ctx context.Context, token string) (*model.WorkShiftSlot, error) {
	var slot model.WorkShiftSlot
	err := r.db.WithContext(ctx).
		Where("invite_token = ?", token).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *workShiftSlotRepo) List(ctx context.Context, filter SlotListFilter) ([]model.WorkShiftSlot, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.WorkShiftSlot{})

	if filter.ClientID != "" {
		db = db.Where("client_id = ?", filter.ClientID)
	}
	if filter.DeliverymanID != "" {
		db = db.Where("deliveryman_id = ?", filter.DeliverymanID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	} else if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if len(filter.Period) > 0 {
		db = db.Where("period && ?", model.StringArray(filter.Period))
	}
	if filter.IsFreelancer != nil {
		db = db.Where("is_freelancer = ?", *filter.IsFreelancer)
	}
	if !filter.From.IsZero() {
		db = db.Where("shift_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		db = db.Where("shift_date <= ?", filter.To)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var slots []model.WorkShiftSlot
	err := db.
		Preload("Deliveryman").
		Preload("Client").
		Order("shift_date DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&slots).Error
	return slots, total, err
}

func (r *workShiftSlotRepo) ListForDay(ctx context.Context, clientID string, dayStart, dayEnd time.Time, statuses []string, onlyAssigned bool) ([]model.WorkShiftSlot, error) {
	db := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Where("shift_date >= ? AND shift_date < ?", dayStart, dayEnd)

	if len(statuses) > 0 {
		db = db.Where("status IN ?", statuses)
	}
	if onlyAssigned {
		db = db.Where("deliveryman_id IS NOT NULL")
	}

	var slots []model.WorkShiftSlot
	err := db.Preload("Client").Preload("Deliveryman").Order("start_time ASC").Find(&slots).Error
	return slots, err
}

func (r *workShiftSlotRepo) FindOverlapping(ctx context.Context, deliverymanID string, start, end time.Time, excludeSlotID string) (*model.WorkShiftSlot, error) {
	return findOverlapping(r.db.WithContext(ctx), deliverymanID, start, end, excludeSlotID)
}

// findOverlapping applies the strict open-interval overlap predicate:
// existing.start < end AND existing.end > start, so back-to-back shifts do
// not conflict. Only active-state slots count.
func findOverlapping(db *gorm.DB, deliverymanID string, start, end time.Time, excludeSlotID string) (*model.WorkShiftSlot, error) {
	q := db.
		Where("deliveryman_id = ?", deliverymanID).
		Where("status IN ?", model.ActiveStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeSlotID != "" {
		q = q.Where("work_shift_slot_id <> ?", excludeSlotID)
	}

	var slot model.WorkShiftSlot
	err := q.Order("start_time ASC").First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *workShiftSlotRepo) UpdateStatusFrom(ctx context.Context, slot *model.WorkShiftSlot, expectedStatus string) error {
	res := r.db.WithContext(ctx).
		Model(&model.WorkShiftSlot{}).
		Where("work_shift_slot_id = ? AND status = ?", slot.WorkShiftSlotID, expectedStatus).
		Select("*").
		Omit("work_shift_slot_id", "created_at").
		Updates(slot)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *workShiftSlotRepo) InviteAssign(ctx context.Context, slot *model.WorkShiftSlot, expectedStatuses []string) error {
	if slot.DeliverymanID == nil {
		return errors.New("invite assign requires a deliveryman")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent invites for the same deliveryman so two
		// overlapping invites cannot both pass the conflict check.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", *slot.DeliverymanID).Error; err != nil {
			return err
		}

		existing, err := findOverlapping(tx, *slot.DeliverymanID, slot.StartTime, slot.EndTime, slot.WorkShiftSlotID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrOverlappingCommitment
		}

		res := tx.Model(&model.WorkShiftSlot{}).
			Where("work_shift_slot_id = ? AND status IN ?", slot.WorkShiftSlotID, expectedStatuses).
			Select("*").
			Omit("work_shift_slot_id", "created_at").
			Updates(slot)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}
		return nil
	})
}

func (r *workShiftSlotRepo) Update(ctx context.Context, slot *model.WorkShiftSlot) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

func (r *workShiftSlotRepo) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("work_shift_slot_id = ?", id).
		Delete(&model.WorkShiftSlot{}).Error
}
