package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motolinktech/server/config"
	"github.com/motolinktech/server/internal/dto"
	"github.com/motolinktech/server/internal/model"
	"github.com/motolinktech/server/internal/notifier"
	"github.com/motolinktech/server/internal/repository"
	"github.com/motolinktech/server/pkg/token"
)

var (
	ErrSlotNotFound        = errors.New("work shift slot not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrDeliverymanNotFound = errors.New("deliveryman not found")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrShiftConflict       = errors.New("deliveryman has an overlapping shift")
	ErrDeliverymanBlocked  = errors.New("deliveryman is blocked")
	ErrBlockedForClient    = errors.New("deliveryman is blocked for this client")
	ErrDeliverymanNoPhone  = errors.New("deliveryman has no phone number")
	ErrInviteExpired       = errors.New("invite has expired")
	ErrInviteTokenMismatch = errors.New("invite token does not match")
	// ErrNotificationFailed means the slot state was persisted but the
	// WhatsApp message did not go out; the invite stays valid for resending.
	ErrNotificationFailed = errors.New("invite saved but notification failed")
)

const defaultInviteTTL = 24 * time.Hour

// WorkShiftSlotService drives the slot lifecycle.
type WorkShiftSlotService interface {
	Create(ctx context.Context, req *dto.CreateWorkShiftSlotRequest) (*dto.WorkShiftSlotResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateWorkShiftSlotRequest) (*dto.WorkShiftSlotResponse, error)
	GetByID(ctx context.Context, id string) (*dto.WorkShiftSlotResponse, error)
	List(ctx context.Context, req *dto.ListWorkShiftSlotsRequest) ([]dto.WorkShiftSlotResponse, int64, error)
	// SendInvite moves an OPEN or INVITED slot to INVITED for the given
	// deliveryman, persists first and messages after.
	SendInvite(ctx context.Context, slotID string, req *dto.SendInviteRequest) (*dto.SendInviteResponse, error)
	// AcceptInvite resolves the slot-embedded token: an accept confirms the
	// slot, a decline returns it to OPEN unassigned. The slot is looked up by
	// the token itself. An expired invite bounces the slot to OPEN too.
	AcceptInvite(ctx context.Context, req *dto.AcceptInviteRequest) (*dto.WorkShiftSlotResponse, error)
	CheckIn(ctx context.Context, slotID, location string) (*dto.WorkShiftSlotResponse, error)
	CheckOut(ctx context.Context, slotID, location string) (*dto.WorkShiftSlotResponse, error)
	ConfirmCompletion(ctx context.Context, slotID string) (*dto.WorkShiftSlotResponse, error)
	// MarkAbsent is a deliberate escape hatch: it does not consult the
	// transition table and may be applied from any status; only unassigned
	// slots are refused.
	MarkAbsent(ctx context.Context, slotID, reason string) (*dto.WorkShiftSlotResponse, error)
	ConnectTracking(ctx context.Context, slotID string) (*dto.WorkShiftSlotResponse, error)
	// Delete hard-deletes an OPEN slot and cancels any other slot the
	// transition table allows to cancel.
	Delete(ctx context.Context, id string) error
	CopyShifts(ctx context.Context, req *dto.CopyShiftsRequest) (*dto.CopyShiftsResponse, error)
}

type workShiftSlotService struct {
	repo     *repository.Repository
	notifier notifier.Notifier
	norm     *TimeNormalizer
	cfg      *config.Config
	logger   *zap.Logger
}

// NewWorkShiftSlotService builds the slot service.
func NewWorkShiftSlotService(repo *repository.Repository, n notifier.Notifier, norm *TimeNormalizer, cfg *config.Config, logger *zap.Logger) WorkShiftSlotService {
	return &workShiftSlotService{repo: repo, notifier: n, norm: norm, cfg: cfg, logger: logger}
}

func (s *workShiftSlotService) Create(ctx context.Context, req *dto.CreateWorkShiftSlotRequest) (*dto.WorkShiftSlotResponse, error) {
	client, err := s.repo.Client.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	date, start, end, err := s.norm.Window(req.ShiftDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	slot := &model.WorkShiftSlot{
		ClientID:         client.ClientID,
		ShiftDate:        date,
		StartTime:        start,
		EndTime:          end,
		ContractType:     req.ContractType,
		Period:           model.StringArray(req.Period),
		Status:           model.StatusOpen,
		AuditStatus:      req.AuditStatus,
		AmountDay:        req.AmountDay,
		AmountNight:      req.AmountNight,
		PerDeliveryDay:   req.PerDeliveryDay,
		PerDeliveryNight: req.PerDeliveryNight,
		PaymentForm:      req.PaymentForm,
	}
	if req.IsFreelancer != nil {
		slot.IsFreelancer = *req.IsFreelancer
	}

	// A deliveryman supplied at creation is only pre-assigned; the slot
	// still starts OPEN. Conflicts are checked at assignment time (invite or
	// edit), never here.
	if req.DeliverymanID != nil {
		dm, err := s.repo.Deliveryman.GetByID(ctx, *req.DeliverymanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDeliverymanNotFound
			}
			return nil, err
		}
		slot.DeliverymanID = &dm.DeliverymanID
	}

	if err := s.repo.WorkShiftSlot.Create(ctx, slot); err != nil {
		return nil, err
	}
	s.logger.Info("work shift slot created",
		zap.String("slot_id", slot.WorkShiftSlotID),
		zap.String("client_id", slot.ClientID),
		zap.String("status", slot.Status),
	)
	return s.toResponse(slot), nil
}

func (s *workShiftSlotService) Update(ctx context.Context, id string, req *dto.UpdateWorkShiftSlotRequest) (*dto.WorkShiftSlotResponse, error) {
	slot, err := s.getSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	prevStatus := slot.Status

	if req.Status != nil && *req.Status != slot.Status {
		if !model.IsValidTransition(slot.Status, *req.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, slot.Status, *req.Status)
		}
		slot.Status = *req.Status
	}

	if req.ShiftDate != nil || req.StartTime != nil || req.EndTime != nil {
		date, start, end, err := s.resolveWindow(slot, req)
		if err != nil {
			return nil, err
		}
		slot.ShiftDate, slot.StartTime, slot.EndTime = date, start, end
	}

	if req.DeliverymanID != nil && (slot.DeliverymanID == nil || *req.DeliverymanID != *slot.DeliverymanID) {
		dm, err := s.repo.Deliveryman.GetByID(ctx, *req.DeliverymanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDeliverymanNotFound
			}
			return nil, err
		}
		slot.DeliverymanID = &dm.DeliverymanID
	}

	// Reassignments and moved windows both re-check double booking.
	if slot.DeliverymanID != nil && statusIn(slot.Status, model.ActiveStatuses) {
		if err := s.checkConflict(ctx, *slot.DeliverymanID, slot.StartTime, slot.EndTime, slot.WorkShiftSlotID); err != nil {
			return nil, err
		}
	}

	if req.ContractType != nil {
		slot.ContractType = *req.ContractType
	}
	if req.Period != nil {
		slot.Period = model.StringArray(req.Period)
	}
	if req.IsFreelancer != nil {
		slot.IsFreelancer = *req.IsFreelancer
	}
	if req.AuditStatus != nil {
		slot.AuditStatus = req.AuditStatus
	}
	if req.AmountDay != nil {
		slot.AmountDay = *req.AmountDay
	}
	if req.AmountNight != nil {
		slot.AmountNight = *req.AmountNight
	}
	if req.PerDeliveryDay != nil {
		slot.PerDeliveryDay = *req.PerDeliveryDay
	}
	if req.PerDeliveryNight != nil {
		slot.PerDeliveryNight = *req.PerDeliveryNight
	}
	if req.PaymentForm != nil {
		slot.PaymentForm = req.PaymentForm
	}

	if err := s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, prevStatus); err != nil {
		return nil, err
	}
	return s.toResponse(slot), nil
}

func (s *workShiftSlotService) GetByID(ctx context.Context, id string) (*dto.WorkShiftSlotResponse, error) {
	slot, err := s.getSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(slot), nil
}

func (s *workShiftSlotService) List(ctx context.Context, req *dto.ListWorkShiftSlotsRequest) ([]dto.WorkShiftSlotResponse, int64, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.Business.PageSize
	}
	filter := repository.SlotListFilter{
		ClientID:      req.ClientID,
		DeliverymanID: req.DeliverymanID,
		Status:        req.Status,
		Period:        req.Period,
		IsFreelancer:  req.IsFreelancer,
		Offset:        (req.GetPage() - 1) * pageSize,
		Limit:         pageSize,
	}

	// Month wins over week when both are present; both resolve against the
	// current year in the business timezone.
	year := time.Now().In(s.norm.Location()).Year()
	if req.Month > 0 {
		filter.From, filter.To = s.norm.DateRangeOfMonth(year, req.Month)
	} else if req.Week > 0 {
		filter.From, filter.To = s.norm.DateRangeOfISOWeek(year, req.Week)
	}

	slots, total, err := s.repo.WorkShiftSlot.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.WorkShiftSlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, *s.toResponse(&slots[i]))
	}
	return out, total, nil
}

func (s *workShiftSlotService) SendInvite(ctx context.Context, slotID string, req *dto.SendInviteRequest) (*dto.SendInviteResponse, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != model.StatusOpen && slot.Status != model.StatusInvited {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, slot.Status, model.StatusInvited)
	}

	dm, err := s.vetDeliveryman(ctx, slot.ClientID, req.DeliverymanID)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, dm.DeliverymanID, slot.StartTime, slot.EndTime, slot.WorkShiftSlotID); err != nil {
		return nil, err
	}

	client, err := s.repo.Client.GetByID(ctx, slot.ClientID)
	if err != nil {
		return nil, err
	}

	ttl := defaultInviteTTL
	if req.ExpiresInHours > 0 {
		ttl = time.Duration(req.ExpiresInHours) * time.Hour
	}

	prevStatuses := []string{model.StatusOpen, model.StatusInvited}
	inviteID := uuid.NewString()
	now := time.Now().In(s.norm.Location())
	expiresAt := now.Add(ttl)

	var tok string
	// One retry absorbs the astronomically unlikely token collision.
	for attempt := 0; attempt < 2; attempt++ {
		tok, err = token.New()
		if err != nil {
			return nil, err
		}

		slot.DeliverymanID = &dm.DeliverymanID
		slot.Status = model.StatusInvited
		slot.InviteToken = &tok
		slot.InviteSentAt = &now
		slot.InviteExpiresAt = &expiresAt
		slot.AppendLog(model.ShiftLog{
			Action:        model.LogInviteSent,
			Timestamp:     now,
			DeliverymanID: dm.DeliverymanID,
			InviteID:      inviteID,
		})

		err = s.repo.WorkShiftSlot.InviteAssign(ctx, slot, prevStatuses)
		if err == nil {
			break
		}
		slot.Logs = slot.Logs[:len(slot.Logs)-1]
		if errors.Is(err, repository.ErrOverlappingCommitment) {
			return nil, fmt.Errorf("%w: detected while assigning", ErrShiftConflict)
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
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
		return nil, err
	}

	s.logger.Info("invite sent",
		zap.String("slot_id", slot.WorkShiftSlotID),
		zap.String("deliveryman_id", dm.DeliverymanID),
		zap.String("invite_id", inviteID),
	)

	if err := s.notify(ctx, slot, dm, client, inviteID, tok); err != nil {
		return nil, err
	}

	return &dto.SendInviteResponse{
		InviteToken:     tok,
		InviteSentAt:    now.Format(time.RFC3339),
		InviteExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

func (s *workShiftSlotService) AcceptInvite(ctx context.Context, req *dto.AcceptInviteRequest) (*dto.WorkShiftSlotResponse, error) {
	// Active tokens are unique across all slots, so the token alone
	// identifies the slot. A token that matches nothing was rotated,
	// resolved or expired away.
	slot, err := s.repo.WorkShiftSlot.GetByInviteToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteTokenMismatch
		}
		return nil, err
	}
	if slot.Status != model.StatusInvited {
		return nil, fmt.Errorf("%w: slot is %s", ErrInvalidTransition, slot.Status)
	}

	now := time.Now().In(s.norm.Location())
	if slot.InviteExpiresAt != nil && now.After(*slot.InviteExpiresAt) {
		if err := s.bounceExpired(ctx, slot, now); err != nil {
			return nil, err
		}
		return nil, ErrInviteExpired
	}

	if req.Accepted != nil && *req.Accepted {
		slot.Status = model.StatusConfirmed
		slot.AppendLog(model.ShiftLog{Action: model.LogInviteAccepted, Timestamp: now})
	} else {
		// A decline reopens the slot for the next courier.
		slot.Status = model.StatusOpen
		slot.DeliverymanID = nil
		slot.InviteSentAt = nil
		slot.InviteExpiresAt = nil
		slot.AppendLog(model.ShiftLog{Action: model.LogInviteRejected, Timestamp: now})
	}
	slot.InviteToken = nil

	if err := s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, model.StatusInvited); err != nil {
		return nil, err
	}
	return s.toResponse(slot), nil
}

func (s *workShiftSlotService) CheckIn(ctx context.Context, slotID, location string) (*dto.WorkShiftSlotResponse, error) {
	return s.transition(ctx, slotID, model.StatusCheckedIn, func(slot *model.WorkShiftSlot, now time.Time) {
		slot.CheckInAt = &now
		slot.AppendLog(model.ShiftLog{Action: model.LogCheckIn, Timestamp: now, Location: location})
	})
}

func (s *workShiftSlotService) CheckOut(ctx context.Context, slotID, location string) (*dto.WorkShiftSlotResponse, error) {
	return s.transition(ctx, slotID, model.StatusPendingCompletion, func(slot *model.WorkShiftSlot, now time.Time) {
		slot.CheckOutAt = &now
		slot.AppendLog(model.ShiftLog{Action: model.LogCheckOut, Timestamp: now, Location: location})
	})
}

func (s *workShiftSlotService) ConfirmCompletion(ctx context.Context, slotID string) (*dto.WorkShiftSlotResponse, error) {
	return s.transition(ctx, slotID, model.StatusCompleted, func(slot *model.WorkShiftSlot, now time.Time) {
		slot.AppendLog(model.ShiftLog{Action: model.LogConfirmCompletion, Timestamp: now})
	})
}

func (s *workShiftSlotService) MarkAbsent(ctx context.Context, slotID, reason string) (*dto.WorkShiftSlotResponse, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	// No transition-table check here: operators record no-shows discovered
	// after the fact, whatever state the slot ended up in.
	if slot.DeliverymanID == nil {
		return nil, fmt.Errorf("%w: cannot mark an unassigned slot absent", ErrInvalidTransition)
	}
	if model.IsTerminalStatus(slot.Status) {
		s.logger.Warn("marking a resolved slot absent",
			zap.String("slot_id", slot.WorkShiftSlotID),
			zap.String("status", slot.Status),
		)
	}
	prevStatus := slot.Status
	now := time.Now().In(s.norm.Location())
	slot.Status = model.StatusAbsent
	slot.AppendLog(model.ShiftLog{Action: model.LogMarkedAbsent, Timestamp: now, Reason: reason})

	if err := s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, prevStatus); err != nil {
		return nil, err
	}
	s.logger.Info("slot marked absent",
		zap.String("slot_id", slot.WorkShiftSlotID),
		zap.String("previous_status", prevStatus),
	)
	return s.toResponse(slot), nil
}

func (s *workShiftSlotService) ConnectTracking(ctx context.Context, slotID string) (*dto.WorkShiftSlotResponse, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	// Status-independent: the tracking app can connect at any point.
	now := time.Now().In(s.norm.Location())
	slot.TrackingConnected = true
	slot.TrackingConnectedAt = &now
	slot.AppendLog(model.ShiftLog{Action: model.LogTrackingConnected, Timestamp: now})

	if err := s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, slot.Status); err != nil {
		return nil, err
	}
	return s.toResponse(slot), nil
}

func (s *workShiftSlotService) Delete(ctx context.Context, id string) error {
	slot, err := s.getSlot(ctx, id)
	if err != nil {
		return err
	}
	if slot.Status == model.StatusOpen {
		return s.repo.WorkShiftSlot.HardDelete(ctx, id)
	}
	if !model.IsValidTransition(slot.Status, model.StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, slot.Status, model.StatusCancelled)
	}
	prevStatus := slot.Status
	now := time.Now().In(s.norm.Location())
	slot.Status = model.StatusCancelled
	slot.InviteToken = nil
	slot.AppendLog(model.ShiftLog{Action: model.LogCancelled, Timestamp: now})
	return s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, prevStatus)
}

func (s *workShiftSlotService) CopyShifts(ctx context.Context, req *dto.CopyShiftsRequest) (*dto.CopyShiftsResponse, error) {
	if _, err := s.repo.Client.GetByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	sourceDay, err := s.norm.ParseDate(req.SourceDate)
	if err != nil {
		return nil, err
	}
	targetDay, err := s.norm.ParseDate(req.TargetDate)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.WorkShiftSlot.ListForDay(ctx, req.ClientID, sourceDay, sourceDay.AddDate(0, 0, 1), nil, false)
	if err != nil {
		return nil, err
	}
	sources := all[:0]
	for i := range all {
		if all[i].Status != model.StatusCancelled {
			sources = append(sources, all[i])
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no slots to copy on %s", ErrSlotNotFound, req.SourceDate)
	}

	resp := &dto.CopyShiftsResponse{Slots: []dto.WorkShiftSlotResponse{}}
	now := time.Now().In(s.norm.Location())

	for i := range sources {
		src := &sources[i]

		date, start, end := s.norm.Rebase(targetDay, src.StartTime, src.EndTime)
		copySlot := &model.WorkShiftSlot{
			ClientID:         src.ClientID,
			ShiftDate:        date,
			StartTime:        start,
			EndTime:          end,
			ContractType:     src.ContractType,
			Period:           src.Period,
			IsFreelancer:     src.IsFreelancer,
			Status:           model.StatusOpen,
			AmountDay:        src.AmountDay,
			AmountNight:      src.AmountNight,
			PerDeliveryDay:   src.PerDeliveryDay,
			PerDeliveryNight: src.PerDeliveryNight,
			PaymentForm:      src.PaymentForm,
			Logs: model.ShiftLogs{{
				Action:       model.LogCopiedFrom,
				Timestamp:    now,
				SourceSlotID: src.WorkShiftSlotID,
			}},
		}

		// An assigned source carries its deliveryman over as a fresh invite
		// target, unless the courier is already committed at the new time.
		if src.DeliverymanID != nil {
			conflicting, err := s.repo.WorkShiftSlot.FindOverlapping(ctx, *src.DeliverymanID, start, end, "")
			if err != nil {
				return nil, err
			}
			if conflicting != nil {
				name := ""
				if src.Deliveryman != nil {
					name = src.Deliveryman.Name
				} else if dm, err := s.repo.Deliveryman.GetByID(ctx, *src.DeliverymanID); err == nil {
					name = dm.Name
				}
				resp.Conflicts = append(resp.Conflicts, dto.CopyConflict{
					SourceSlotID:      src.WorkShiftSlotID,
					DeliverymanID:     *src.DeliverymanID,
					DeliverymanName:   name,
					ConflictingSlotID: conflicting.WorkShiftSlotID,
				})
			} else {
				dmID := *src.DeliverymanID
				copySlot.DeliverymanID = &dmID
				copySlot.Status = model.StatusInvited
			}
		}

		if err := s.repo.WorkShiftSlot.Create(ctx, copySlot); err != nil {
			return nil, err
		}
		resp.Slots = append(resp.Slots, *s.toResponse(copySlot))
	}

	s.logger.Info("shifts copied",
		zap.String("client_id", req.ClientID),
		zap.Time("source_day", sourceDay),
		zap.Time("target_day", targetDay),
		zap.Int("copied", len(resp.Slots)),
		zap.Int("conflicts", len(resp.Conflicts)),
	)
	return resp, nil
}

// ── helpers ──

func (s *workShiftSlotService) getSlot(ctx context.Context, id string) (*model.WorkShiftSlot, error) {
	slot, err := s.repo.WorkShiftSlot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return slot, nil
}

// transition performs one table-checked status move with a CAS write.
func (s *workShiftSlotService) transition(ctx context.Context, slotID, to string, apply func(*model.WorkShiftSlot, time.Time)) (*dto.WorkShiftSlotResponse, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !model.IsValidTransition(slot.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, slot.Status, to)
	}
	prevStatus := slot.Status
	now := time.Now().In(s.norm.Location())
	slot.Status = to
	apply(slot, now)

	if err := s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, prevStatus); err != nil {
		return nil, err
	}
	return s.toResponse(slot), nil
}

// vetDeliveryman applies every invite eligibility rule.
func (s *workShiftSlotService) vetDeliveryman(ctx context.Context, clientID, deliverymanID string) (*model.Deliveryman, error) {
	dm, err := s.repo.Deliveryman.GetByID(ctx, deliverymanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliverymanNotFound
		}
		return nil, err
	}
	if dm.IsBlocked {
		return nil, ErrDeliverymanBlocked
	}
	if dm.Phone == nil || *dm.Phone == "" {
		return nil, ErrDeliverymanNoPhone
	}
	blocked, err := s.repo.Client.IsBlocked(ctx, clientID, deliverymanID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlockedForClient
	}
	return dm, nil
}

func (s *workShiftSlotService) checkConflict(ctx context.Context, deliverymanID string, start, end time.Time, excludeSlotID string) error {
	conflicting, err := s.repo.WorkShiftSlot.FindOverlapping(ctx, deliverymanID, start, end, excludeSlotID)
	if err != nil {
		return err
	}
	if conflicting != nil {
		return fmt.Errorf("%w: slot %s", ErrShiftConflict, conflicting.WorkShiftSlotID)
	}
	return nil
}

// bounceExpired returns an INVITED slot whose invite lapsed back to OPEN.
func (s *workShiftSlotService) bounceExpired(ctx context.Context, slot *model.WorkShiftSlot, now time.Time) error {
	slot.Status = model.StatusOpen
	slot.DeliverymanID = nil
	slot.InviteToken = nil
	slot.InviteSentAt = nil
	slot.InviteExpiresAt = nil
	slot.AppendLog(model.ShiftLog{Action: model.LogInviteExpired, Timestamp: now})
	return s.repo.WorkShiftSlot.UpdateStatusFrom(ctx, slot, model.StatusInvited)
}

func (s *workShiftSlotService) notify(ctx context.Context, slot *model.WorkShiftSlot, dm *model.Deliveryman, client *model.Client, inviteID, tok string) error {
	err := s.notifier.SendShiftInvite(ctx, notifier.ShiftInviteParams{
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
		s.logger.Error("invite notification failed",
			zap.String("slot_id", slot.WorkShiftSlotID),
			zap.String("deliveryman_id", dm.DeliverymanID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

func (s *workShiftSlotService) toResponse(slot *model.WorkShiftSlot) *dto.WorkShiftSlotResponse {
	loc := s.norm.Location()
	resp := &dto.WorkShiftSlotResponse{
		ID:                slot.WorkShiftSlotID,
		ClientID:          slot.ClientID,
		DeliverymanID:     slot.DeliverymanID,
		ShiftDate:         slot.ShiftDate.In(loc).Format("2006-01-02"),
		StartTime:         slot.StartTime.In(loc).Format(time.RFC3339),
		EndTime:           slot.EndTime.In(loc).Format(time.RFC3339),
		ContractType:      slot.ContractType,
		Period:            slot.Period,
		IsFreelancer:      slot.IsFreelancer,
		Status:            slot.Status,
		AuditStatus:       slot.AuditStatus,
		AmountDay:         formatAmount(slot.AmountDay),
		AmountNight:       formatAmount(slot.AmountNight),
		PerDeliveryDay:    formatAmount(slot.PerDeliveryDay),
		PerDeliveryNight:  formatAmount(slot.PerDeliveryNight),
		PaymentForm:       slot.PaymentForm,
		InviteSentAt:      formatTimePtr(slot.InviteSentAt, loc),
		InviteExpiresAt:   formatTimePtr(slot.InviteExpiresAt, loc),
		CheckInAt:         formatTimePtr(slot.CheckInAt, loc),
		CheckOutAt:        formatTimePtr(slot.CheckOutAt, loc),
		TrackingConnected: slot.TrackingConnected,
		Logs:              make([]dto.ShiftLogEntry, 0, len(slot.Logs)),
		CreatedAt:         slot.CreatedAt.In(loc).Format(time.RFC3339),
		UpdatedAt:         slot.UpdatedAt.In(loc).Format(time.RFC3339),
	}
	if slot.Client != nil {
		resp.Client = &dto.ClientBrief{ID: slot.Client.ClientID, Name: slot.Client.Name}
	}
	if slot.Deliveryman != nil {
		resp.Deliveryman = &dto.DeliverymanBrief{ID: slot.Deliveryman.DeliverymanID, Name: slot.Deliveryman.Name}
	}
	for _, l := range slot.Logs {
		resp.Logs = append(resp.Logs, dto.ShiftLogEntry{
			Action:        l.Action,
			Timestamp:     l.Timestamp.In(loc).Format(time.RFC3339),
			DeliverymanID: l.DeliverymanID,
			InviteID:      l.InviteID,
			Location:      l.Location,
			Reason:        l.Reason,
			SourceSlotID:  l.SourceSlotID,
		})
	}
	return resp
}

// resolveWindow merges the request's partial date/time fields with the slot's
// stored window, then re-normalizes.
func (s *workShiftSlotService) resolveWindow(slot *model.WorkShiftSlot, req *dto.UpdateWorkShiftSlotRequest) (time.Time, time.Time, time.Time, error) {
	loc := s.norm.Location()
	dateStr := slot.ShiftDate.In(loc).Format("2006-01-02")
	startStr := slot.StartTime.In(loc).Format("15:04:05")
	endStr := slot.EndTime.In(loc).Format("15:04:05")

	if req.ShiftDate != nil {
		dateStr = *req.ShiftDate
	}
	if req.StartTime != nil {
		startStr = *req.StartTime
	}
	if req.EndTime != nil {
		endStr = *req.EndTime
	}
	return s.norm.Window(dateStr, startStr, endStr)
}

func statusIn(status string, set []string) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTimePtr(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

// isUniqueViolation matches PostgreSQL unique-constraint failures (SQLSTATE
// 23505) without binding to a driver error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
