package model

import "time"

// ── invite statuses ──

const (
	InviteStatusPending  = "PENDING"
	InviteStatusAccepted = "ACCEPTED"
	InviteStatusRejected = "REJECTED"
	InviteStatusExpired  = "EXPIRED"
)

// Invite is a denormalized snapshot of slot+client+deliveryman taken when the
// invite was dispatched. The slot's own invite_token is authoritative; this
// record backs the courier-facing confirmation page and is immutable once
// resolved.
type Invite struct {
	InviteID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invite_id"`
	Token           string     `gorm:"type:text;not null"                             json:"token"`
	Status          string     `gorm:"type:varchar(10);not null;default:'PENDING'"    json:"status"`
	WorkShiftSlotID string     `gorm:"type:uuid;not null"                             json:"work_shift_slot_id"`
	DeliverymanID   string     `gorm:"type:uuid;not null"                             json:"deliveryman_id"`
	ClientID        string     `gorm:"type:uuid;not null"                             json:"client_id"`
	ClientName      string     `gorm:"type:varchar(120);not null"                     json:"client_name"`
	ClientAddress   string     `gorm:"type:varchar(240);not null"                     json:"client_address"`
	ShiftDate       time.Time  `gorm:"not null"                                       json:"shift_date"`
	StartTime       time.Time  `gorm:"not null"                                       json:"start_time"`
	EndTime         time.Time  `gorm:"not null"                                       json:"end_time"`
	SentAt          time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"sent_at"`
	ExpiresAt       time.Time  `gorm:"not null"                                       json:"expires_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	WorkShiftSlot *WorkShiftSlot `gorm:"foreignKey:WorkShiftSlotID;references:WorkShiftSlotID" json:"work_shift_slot,omitempty"`
}

// TableName sets the table name.
func (Invite) TableName() string { return "invites" }

// Resolved reports whether the invite reached a final status.
func (i *Invite) Resolved() bool {
	return i.Status != InviteStatusPending
}
