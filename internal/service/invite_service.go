package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motolinktech/server/config"
	"github.com/motolinktech/server/internal/dto"
	"github.com/motolinktech/server/internal/model"
	"github.com/motolinktech/server/internal/notifier"
	"github.com/motolinktech/server/internal/repository"
	pkgerrors "github.com/motolinktech/server/pkg/errors"
	"github.com/motolinktech/server/pkg/token"
)

var (
	ErrInviteNotFound = errors.New("invite not found")
	// ErrInviteResolved means the invite was already accepted, rejected or
	// expired; responses are recorded exactly once.
	ErrInviteResolved = errors.New("invite already resolved")
)

const bulkBatchLimit = 500

// InviteService drives invite dispatch batches and the courier-facing
// confirmation page.
type InviteService interface {
	// SendInvites dispatches messages for INVITED slots with an assigned
	// deliveryman on a date. Per-slot failures are collected, never fatal.
	SendInvites(ctx context.Context, req *dto.SendBulkInvitesRequest) (*dto.SendBulkInvitesResponse, error)
	// GetInvite loads the invite snapshot behind the confirmation page.
	// A lapsed PENDING invite is marked EXPIRED on read and its slot, when
	// still waiting on this token, bounces back to OPEN.
	GetInvite(ctx context.Context, id, tok string) (*dto.InviteResponse, error)
	// RespondToInvite records the courier's accept/decline exactly once.
	RespondToInvite(ctx context.Context, id string, req *dto.RespondInviteRequest) (*dto.InviteResponse, error)
}

type inviteService struct {
	repo     *repository.Repository
	notifier notifier.Notifier
	norm     *TimeNormalizer
	cfg      *config.Config
	logger   *zap.Logger
}

// NewInviteService builds the invite service.
func NewInviteService(repo *repository.Repository, n notifier.Notifier, norm *TimeNormalizer, cfg *config.Config, logger *zap.Logger) InviteService {
	return &inviteService{repo: repo, notifier: n, norm: norm, cfg: cfg, logger: logger}
}

func (s *inviteService) SendInvites(ctx context.Context, req *dto.SendBulkInvitesRequest) (*dto.SendBulkInvitesResponse, error) {
	slots, err := s.resolveBatch(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &dto.SendBulkInvitesResponse{Errors: []dto.BulkInviteError{}}
	for i := range slots {
		slot := &slots[i]
		if err := s.dispatch(ctx, slot); err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.BulkInviteError{
				SlotID: slot.WorkShiftSlotID,
				Reason: err.Error(),
			})
			s.logger.Warn("bulk invite slot failed",
				zap.String("slot_id", slot.WorkShiftSlotID),
				zap.Error(err),
			)
			continue
		}
		resp.Sent++
	}

	s.logger.Info("bulk invites dispatched",
		zap.Int("sent", resp.Sent),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// resolveBatch loads the slots targeted by the request: a single slot when
// one is named, otherwise every INVITED, assigned slot on the date.
func (s *inviteService) resolveBatch(ctx context.Context, req *dto.SendBulkInvitesRequest) ([]model.WorkShiftSlot, error) {
	if req.WorkShiftSlotID != nil {
		slot, err := s.repo.WorkShiftSlot.GetByID(ctx, *req.WorkShiftSlotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSlotNotFound
			}
			return nil, err
		}
		return []model.WorkShiftSlot{*slot}, nil
	}

	day, err := s.norm.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	filter := repository.SlotListFilter{
		Status: model.StatusInvited,
		From:   day,
		To:     day,
		Limit:  bulkBatchLimit,
	}
	if req.ClientID != nil {
		filter.ClientID = *req.ClientID
	}
	slots, _, err := s.repo.WorkShiftSlot.List(ctx, filter)
	return slots, err
}

// dispatch issues a fresh token for one INVITED slot and sends the message.
// Any previous token is superseded; the slot's token stays authoritative.
func (s *inviteService) dispatch(ctx context.Context, slot *model.WorkShiftSlot) error {
	if slot.Status != model.StatusInvited {
		return fmt.Errorf("%w: slot is %s", ErrInvalidTransition, slot.Status)
	}
	if slot.DeliverymanID == nil {
		return fmt.Errorf("%w: slot has no deliveryman", ErrInvalidTransition)
	}

	dm, err := s.repo.Deliveryman.GetByID(ctx, *slot.DeliverymanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeliverymanNotFound
		}
		return err
	}
	if dm.IsBlocked {
		return ErrDeliverymanBlocked
	}
	if dm.Phone == nil || *dm.Phone == "" {
		return ErrDeliverymanNoPhone
	}
	client, err := s.repo.Client.GetByID(ctx, slot.ClientID)
	if err != nil {
		return err
	}

	tok, err := token.New()
	if err != nil {
		return err
	}
	inviteID := uuid.NewString()
	now := time.Now().In(s.norm.Location())
	expiresAt := now.Add(defaultInviteTTL)

	slot.InviteToken = &tok
	slot.InviteSentAt = &now
	slot.InviteExpiresAt = &expiresAt
	slot.AppendLog(model.ShiftLog{
		Action:        model.LogInviteSent,
		Timestamp:     now,
		DeliverymanID: dm.DeliverymanID,
		InviteID:      inviteID,
	})
	if err := s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, model.StatusInvited); err != nil {
		return err
	}

	invite := &model.Invite{
		InviteID:        inviteID,
		Token:           tok,
		Status:          model.InviteStatusPending,
		WorkShiftSlotID: slot.WorkShiftSlotID,
		DeliverymanID:   dm.DeliverymanID,
		ClientID:        client.ClientID,
		ClientName:      client.Name,
		ClientAddress:   client.Address(),
		ShiftDate:       slot.ShiftDate,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		SentAt:          now,
		ExpiresAt:       expiresAt,
	}
	if err := s.repo.Invite.Create(ctx, invite); err != nil {
		return err
	}

	err = s.notifier.SendShiftInvite(ctx, notifier.ShiftInviteParams{
		DeliverymanName: dm.Name,
		Phone:           *dm.Phone,
		ShiftDate:       slot.ShiftDate,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		ClientName:      client.Name,
		ClientAddress:   client.Address(),
		ConfirmationURL: fmt.Sprintf("%s/convite/%s?token=%s", s.cfg.Server.WebAppURL, inviteID, tok),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

func (s *inviteService) GetInvite(ctx context.Context, id, tok string) (*dto.InviteResponse, error) {
	invite, err := s.getInvite(ctx, id, tok)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(s.norm.Location())
	if invite.Status == model.InviteStatusPending && now.After(invite.ExpiresAt) {
		if err := s.expire(ctx, invite, now); err != nil {
			return nil, err
		}
		return nil, ErrInviteExpired
	}
	return s.toResponse(invite), nil
}

func (s *inviteService) RespondToInvite(ctx context.Context, id string, req *dto.RespondInviteRequest) (*dto.InviteResponse, error) {
	invite, err := s.getInvite(ctx, id, req.Token)
	if err != nil {
		return nil, err
	}
	if invite.Resolved() {
		return nil, ErrInviteResolved
	}

	now := time.Now().In(s.norm.Location())
	if now.After(invite.ExpiresAt) {
		if err := s.expire(ctx, invite, now); err != nil {
			return nil, err
		}
		return nil, ErrInviteExpired
	}

	// The slot is authoritative: its state moves first, then the snapshot.
	slot, err := s.repo.WorkShiftSlot.GetByID(ctx, invite.WorkShiftSlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if slot.Status != model.StatusInvited || slot.InviteToken == nil || *slot.InviteToken != invite.Token {
		// A newer invite superseded this token.
		return nil, ErrInviteTokenMismatch
	}

	accepted := req.Accepted != nil && *req.Accepted
	if accepted {
		slot.Status = model.StatusConfirmed
		slot.AppendLog(model.ShiftLog{Action: model.LogInviteAccepted, Timestamp: now, InviteID: invite.InviteID})
		invite.Status = model.InviteStatusAccepted
	} else {
		// A decline reopens the slot for the next courier; only the invite
		// snapshot keeps the rejection.
		slot.Status = model.StatusOpen
		slot.DeliverymanID = nil
		slot.InviteSentAt = nil
		slot.InviteExpiresAt = nil
		slot.AppendLog(model.ShiftLog{Action: model.LogInviteRejected, Timestamp: now, InviteID: invite.InviteID})
		invite.Status = model.InviteStatusRejected
	}
	slot.InviteToken = nil
	invite.RespondedAt = &now

	if err := s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, model.StatusInvited); err != nil {
		return nil, err
	}
	if err := s.repo.Invite.UpdateStatusFrom(ctx, invite, model.InviteStatusPending); err != nil {
		// The slot already moved; a lost race on the snapshot is logged,
		// not surfaced to the courier.
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Warn("invite snapshot update lost a race",
			zap.String("invite_id", invite.InviteID),
		)
	}

	s.logger.Info("invite responded",
		zap.String("invite_id", invite.InviteID),
		zap.String("slot_id", invite.WorkShiftSlotID),
		zap.Bool("accepted", accepted),
	)
	return s.toResponse(invite), nil
}

func (s *inviteService) getInvite(ctx context.Context, id, tok string) (*model.Invite, error) {
	invite, err := s.repo.Invite.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	if invite.Token != tok {
		return nil, ErrInviteTokenMismatch
	}
	return invite, nil
}

// expire marks a lapsed PENDING invite EXPIRED and, when the slot is still
// waiting on this exact token, bounces the slot back to OPEN.
func (s *inviteService) expire(ctx context.Context, invite *model.Invite, now time.Time) error {
	invite.Status = model.InviteStatusExpired
	if err := s.repo.Invite.UpdateStatusFrom(ctx, invite, model.InviteStatusPending); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return err
		}
	}

	slot, err := s.repo.WorkShiftSlot.GetByID(ctx, invite.WorkShiftSlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if slot.Status != model.StatusInvited || slot.InviteToken == nil || *slot.InviteToken != invite.Token {
		return nil
	}

	slot.Status = model.StatusOpen
	slot.DeliverymanID = nil
	slot.InviteToken = nil
	slot.InviteSentAt = nil
	slot.InviteExpiresAt = nil
	slot.AppendLog(model.ShiftLog{Action: model.LogInviteExpired, Timestamp: now, InviteID: invite.InviteID})
	if err := s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, model.StatusInvited); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return err
		}
	}
	s.logger.Info("invite expired on read",
		zap.String("invite_id", invite.InviteID),
		zap.String("slot_id", invite.WorkShiftSlotID),
	)
	return nil
}

func (s *inviteService) toResponse(invite *model.Invite) *dto.InviteResponse {
	loc := s.norm.Location()
	return &dto.InviteResponse{
		ID:              invite.InviteID,
		Token:           invite.Token,
		Status:          invite.Status,
		WorkShiftSlotID: invite.WorkShiftSlotID,
		DeliverymanID:   invite.DeliverymanID,
		ClientID:        invite.ClientID,
		ClientName:      invite.ClientName,
		ClientAddress:   invite.ClientAddress,
		ShiftDate:       invite.ShiftDate.In(loc).Format("2006-01-02"),
		StartTime:       invite.StartTime.In(loc).Format(time.RFC3339),
		EndTime:         invite.EndTime.In(loc).Format(time.RFC3339),
		SentAt:          invite.SentAt.In(loc).Format(time.RFC3339),
		ExpiresAt:       invite.ExpiresAt.In(loc).Format(time.RFC3339),
		RespondedAt:     formatTimePtr(invite.RespondedAt, loc),
	}
}
