package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── slot statuses ──

const (
	StatusOpen              = "OPEN"
	StatusInvited           = "INVITED"
	StatusConfirmed         = "CONFIRMED"
	StatusCheckedIn         = "CHECKED_IN"
	StatusPendingCompletion = "PENDING_COMPLETION"
	StatusCompleted         = "COMPLETED"
	StatusAbsent            = "ABSENT"
	StatusCancelled         = "CANCELLED"
	StatusRejected          = "REJECTED"
)

// SlotStatuses lists every slot status.
var SlotStatuses = []string{
	StatusOpen, StatusInvited, StatusConfirmed, StatusCheckedIn,
	StatusPendingCompletion, StatusCompleted, StatusAbsent,
	StatusCancelled, StatusRejected,
}

// validTransitions maps each status to its allowed successors.
// Terminal statuses (COMPLETED, ABSENT, CANCELLED, REJECTED) have none.
var validTransitions = map[string][]string{
	StatusOpen:              {StatusInvited, StatusConfirmed, StatusCancelled},
	StatusInvited:           {StatusConfirmed, StatusOpen, StatusCancelled, StatusRejected},
	StatusConfirmed:         {StatusCheckedIn, StatusAbsent, StatusCancelled},
	StatusCheckedIn:         {StatusPendingCompletion, StatusAbsent},
	StatusPendingCompletion: {StatusCompleted},
	StatusCompleted:         {},
	StatusAbsent:            {},
	StatusCancelled:         {},
	StatusRejected:          {},
}

// IsValidTransition reports whether a slot may move from one status to
// another. Marking absence does not go through this table: it is a deliberate
// escape hatch handled by the service layer.
func IsValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a status has no outgoing transitions.
func IsTerminalStatus(status string) bool {
	targets, ok := validTransitions[status]
	return ok && len(targets) == 0
}

// ActiveStatuses are the statuses in which a deliveryman is committed to a
// slot; only these count for double-booking detection.
var ActiveStatuses = []string{StatusInvited, StatusConfirmed, StatusCheckedIn, StatusPendingCompletion}

// ── periods ──

const (
	PeriodDaytime   = "daytime"
	PeriodNighttime = "nighttime"
)

// ── lifecycle log ──

const (
	LogInviteSent        = "INVITE_SENT"
	LogInviteAccepted    = "INVITE_ACCEPTED"
	LogInviteRejected    = "INVITE_REJECTED"
	LogInviteExpired     = "INVITE_EXPIRED"
	LogCheckIn           = "CHECK_IN"
	LogCheckOut          = "CHECK_OUT"
	LogConfirmCompletion = "CONFIRM_COMPLETION"
	LogMarkedAbsent      = "MARKED_ABSENT"
	LogTrackingConnected = "TRACKING_CONNECTED"
	LogCancelled         = "CANCELLED"
	LogCopiedFrom        = "COPIED_FROM"
)

// ShiftLog is a single append-only lifecycle entry. The payload is a fixed
// set of per-action fields rather than an open map: only the fields relevant
// to the action are set.
type ShiftLog struct {
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
	DeliverymanID string    `json:"deliveryman_id,omitempty"` // INVITE_SENT
	InviteID      string    `json:"invite_id,omitempty"`      // bulk invite flow
	Location      string    `json:"location,omitempty"`       // CHECK_IN / CHECK_OUT
	Reason        string    `json:"reason,omitempty"`         // MARKED_ABSENT
	SourceSlotID  string    `json:"source_slot_id,omitempty"` // COPIED_FROM
}

// ShiftLogs maps to a JSONB column holding the ordered log sequence.
type ShiftLogs []ShiftLog

// Scan deserializes the JSONB column value.
func (l *ShiftLogs) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("ShiftLogs.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, l)
}

// Value serializes to JSONB.
func (l ShiftLogs) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// ── model ──

// WorkShiftSlot is one schedulable shift for a client site on one day.
//
// Invariants:
//   - StartTime < EndTime always; EndTime may fall on the next calendar day
//     when the shift spans midnight, ShiftDate stays anchored to the start day.
//   - InviteToken, when set, is unique system-wide and only meaningful while
//     the slot is INVITED.
//   - DeliverymanID is set for every status except OPEN.
type WorkShiftSlot struct {
	WorkShiftSlotID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"work_shift_slot_id"`
	ClientID        string    `gorm:"type:uuid;not null"                             json:"client_id"`
	DeliverymanID   *string   `gorm:"type:uuid"                                      json:"deliveryman_id,omitempty"`
	ShiftDate       time.Time `gorm:"not null"                                       json:"shift_date"`
	StartTime       time.Time `gorm:"not null"                                       json:"start_time"`
	EndTime         time.Time `gorm:"not null"                                       json:"end_time"`

	ContractType     string      `gorm:"type:varchar(40)"                   json:"contract_type"`
	Period           StringArray `gorm:"type:text[];not null;default:'{}'"  json:"period"`
	IsFreelancer     bool        `gorm:"not null;default:false"             json:"is_freelancer"`
	Status           string      `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	AuditStatus      *string     `gorm:"type:varchar(20)"                   json:"audit_status,omitempty"`
	AmountDay        float64     `gorm:"type:numeric(10,2);not null;default:0" json:"amount_day"`
	AmountNight      float64     `gorm:"type:numeric(10,2);not null;default:0" json:"amount_night"`
	PerDeliveryDay   float64     `gorm:"type:numeric(10,2);not null;default:0" json:"per_delivery_day"`
	PerDeliveryNight float64     `gorm:"type:numeric(10,2);not null;default:0" json:"per_delivery_night"`
	PaymentForm      *string     `gorm:"type:varchar(20)"                   json:"payment_form,omitempty"`

	InviteToken     *string    `gorm:"type:text" json:"invite_token,omitempty"`
	InviteSentAt    *time.Time `json:"invite_sent_at,omitempty"`
	InviteExpiresAt *time.Time `json:"invite_expires_at,omitempty"`

	CheckInAt           *time.Time `json:"check_in_at,omitempty"`
	CheckOutAt          *time.Time `json:"check_out_at,omitempty"`
	TrackingConnected   bool       `gorm:"not null;default:false" json:"tracking_connected"`
	TrackingConnectedAt *time.Time `json:"tracking_connected_at,omitempty"`

	Logs ShiftLogs `gorm:"type:jsonb;not null;default:'[]'" json:"logs"`
	BaseModel

	Deliveryman *Deliveryman `gorm:"foreignKey:DeliverymanID;references:DeliverymanID" json:"deliveryman,omitempty"`
	Client      *Client      `gorm:"foreignKey:ClientID;references:ClientID"           json:"client,omitempty"`
}

// TableName sets the table name.
func (WorkShiftSlot) TableName() string { return "work_shift_slots" }

// AppendLog appends a lifecycle entry; log sequences are never rewritten.
func (s *WorkShiftSlot) AppendLog(entry ShiftLog) {
	s.Logs = append(s.Logs, entry)
}
