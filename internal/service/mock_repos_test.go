package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/motolinktech/server/internal/model"
	"github.com/motolinktech/server/internal/notifier"
	"github.com/motolinktech/server/internal/repository"
	pkgerrors "github.com/motolinktech/server/pkg/errors"
)

// ── slot repo ──

type mockSlotRepo struct {
	mu    sync.Mutex
	seq   int
	slots map[string]*model.WorkShiftSlot
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{slots: map[string]*model.WorkShiftSlot{}}
}

func (m *mockSlotRepo) Create(_ context.Context, slot *model.WorkShiftSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot.WorkShiftSlotID == "" {
		m.seq++
		slot.WorkShiftSlotID = fmt.Sprintf("slot-%d", m.seq)
	}
	cp := *slot
	m.slots[slot.WorkShiftSlotID] = &cp
	return nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id string) (*model.WorkShiftSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *stored
	return &cp, nil
}

func (m *mockSlotRepo) GetByInviteToken(_ context.Context, token string) (*model.WorkShiftSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.InviteToken != nil && *s.InviteToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSlotRepo) List(_ context.Context, filter repository.SlotListFilter) ([]model.WorkShiftSlot, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.WorkShiftSlot
	for _, s := range m.slots {
		if filter.ClientID != "" && s.ClientID != filter.ClientID {
			continue
		}
		if filter.DeliverymanID != "" && (s.DeliverymanID == nil || *s.DeliverymanID != filter.DeliverymanID) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.Status == "" && len(filter.Statuses) > 0 && !statusIn(s.Status, filter.Statuses) {
			continue
		}
		if !filter.From.IsZero() && s.ShiftDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && s.ShiftDate.After(filter.To) {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (m *mockSlotRepo) ListForDay(_ context.Context, clientID string, dayStart, dayEnd time.Time, statuses []string, onlyAssigned bool) ([]model.WorkShiftSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.WorkShiftSlot
	for _, s := range m.slots {
		if s.ClientID != clientID {
			continue
		}
		if s.ShiftDate.Before(dayStart) || !s.ShiftDate.Before(dayEnd) {
			continue
		}
		if len(statuses) > 0 && !statusIn(s.Status, statuses) {
			continue
		}
		if onlyAssigned && s.DeliverymanID == nil {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSlotRepo) FindOverlapping(_ context.Context, deliverymanID string, start, end time.Time, excludeSlotID string) (*model.WorkShiftSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findOverlappingLocked(deliverymanID, start, end, excludeSlotID), nil
}

func (m *mockSlotRepo) findOverlappingLocked(deliverymanID string, start, end time.Time, excludeSlotID string) *model.WorkShiftSlot {
	for _, s := range m.slots {
		if s.WorkShiftSlotID == excludeSlotID {
			continue
		}
		if s.DeliverymanID == nil || *s.DeliverymanID != deliverymanID {
			continue
		}
		if !statusIn(s.Status, model.ActiveStatuses) {
			continue
		}
		if s.StartTime.Before(end) && s.EndTime.After(start) {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (m *mockSlotRepo) UpdateStatusFrom(_ context.Context, slot *model.WorkShiftSlot, expectedStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.slots[slot.WorkShiftSlotID]
	if !ok || stored.Status != expectedStatus {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *slot
	m.slots[slot.WorkShiftSlotID] = &cp
	return nil
}

func (m *mockSlotRepo) InviteAssign(_ context.Context, slot *model.WorkShiftSlot, expectedStatuses []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.findOverlappingLocked(*slot.DeliverymanID, slot.StartTime, slot.EndTime, slot.WorkShiftSlotID); existing != nil {
		return repository.ErrOverlappingCommitment
	}
	stored, ok := m.slots[slot.WorkShiftSlotID]
	if !ok || !statusIn(stored.Status, expectedStatuses) {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *slot
	m.slots[slot.WorkShiftSlotID] = &cp
	return nil
}

func (m *mockSlotRepo) Update(_ context.Context, slot *model.WorkShiftSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *slot
	m.slots[slot.WorkShiftSlotID] = &cp
	return nil
}

func (m *mockSlotRepo) HardDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, id)
	return nil
}

// ── invite repo ──

type mockInviteRepo struct {
	mu      sync.Mutex
	invites map[string]*model.Invite
}

func newMockInviteRepo() *mockInviteRepo {
	return &mockInviteRepo{invites: map[string]*model.Invite{}}
}

func (m *mockInviteRepo) Create(_ context.Context, invite *model.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *invite
	m.invites[invite.InviteID] = &cp
	return nil
}

func (m *mockInviteRepo) GetByID(_ context.Context, id string) (*model.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invites[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *stored
	return &cp, nil
}

func (m *mockInviteRepo) UpdateStatusFrom(_ context.Context, invite *model.Invite, expectedStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invites[invite.InviteID]
	if !ok || stored.Status != expectedStatus {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *invite
	m.invites[invite.InviteID] = &cp
	return nil
}

// ── deliveryman repo ──

type mockDeliverymanRepo struct {
	deliverymen map[string]*model.Deliveryman
}

func newMockDeliverymanRepo() *mockDeliverymanRepo {
	return &mockDeliverymanRepo{deliverymen: map[string]*model.Deliveryman{}}
}

func (m *mockDeliverymanRepo) GetByID(_ context.Context, id string) (*model.Deliveryman, error) {
	dm, ok := m.deliverymen[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *dm
	return &cp, nil
}

// ── client repo ──

type mockClientRepo struct {
	clients map[string]*model.Client
	blocked map[string]bool // clientID + "|" + deliverymanID
}

func newMockClientRepo() *mockClientRepo {
	return &mockClientRepo{clients: map[string]*model.Client{}, blocked: map[string]bool{}}
}

func (m *mockClientRepo) GetByID(_ context.Context, id string) (*model.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockClientRepo) IsBlocked(_ context.Context, clientID, deliverymanID string) (bool, error) {
	return m.blocked[clientID+"|"+deliverymanID], nil
}

// ── notifier ──

type mockNotifier struct {
	mu       sync.Mutex
	sent     []notifier.ShiftInviteParams
	failWith error
}

func (m *mockNotifier) SendShiftInvite(_ context.Context, params notifier.ShiftInviteParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, params)
	return nil
}

func (m *mockNotifier) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
