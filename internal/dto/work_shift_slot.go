package dto

// Date/time fields below are free-form date-like strings ("2024-01-10",
// "2024-01-10 22:00", RFC 3339 with offset); the time normalizer interprets
// them in the business timezone.

// CreateWorkShiftSlotRequest creates a slot.
type CreateWorkShiftSlotRequest struct {
	ClientID         string   `json:"client_id"       binding:"required,uuid"`
	DeliverymanID    *string  `json:"deliveryman_id"  binding:"omitempty,uuid"`
	ShiftDate        string   `json:"shift_date"      binding:"required"`
	StartTime        string   `json:"start_time"      binding:"required"`
	EndTime          string   `json:"end_time"        binding:"required"`
	ContractType     string   `json:"contract_type"`
	Period           []string `json:"period"          binding:"omitempty,dive,oneof=daytime nighttime"`
	IsFreelancer     *bool    `json:"is_freelancer"`
	AuditStatus      *string  `json:"audit_status"`
	AmountDay        float64  `json:"amount_day"         binding:"omitempty,min=0"`
	AmountNight      float64  `json:"amount_night"       binding:"omitempty,min=0"`
	PerDeliveryDay   float64  `json:"per_delivery_day"   binding:"omitempty,min=0"`
	PerDeliveryNight float64  `json:"per_delivery_night" binding:"omitempty,min=0"`
	PaymentForm      *string  `json:"payment_form"`
}

// UpdateWorkShiftSlotRequest partially edits a slot. Status changes must pass
// the transition table.
type UpdateWorkShiftSlotRequest struct {
	DeliverymanID    *string  `json:"deliveryman_id" binding:"omitempty,uuid"`
	ShiftDate        *string  `json:"shift_date"`
	StartTime        *string  `json:"start_time"`
	EndTime          *string  `json:"end_time"`
	ContractType     *string  `json:"contract_type"`
	Period           []string `json:"period" binding:"omitempty,dive,oneof=daytime nighttime"`
	IsFreelancer     *bool    `json:"is_freelancer"`
	Status           *string  `json:"status"`
	AuditStatus      *string  `json:"audit_status"`
	AmountDay        *float64 `json:"amount_day"         binding:"omitempty,min=0"`
	AmountNight      *float64 `json:"amount_night"       binding:"omitempty,min=0"`
	PerDeliveryDay   *float64 `json:"per_delivery_day"   binding:"omitempty,min=0"`
	PerDeliveryNight *float64 `json:"per_delivery_night" binding:"omitempty,min=0"`
	PaymentForm      *string  `json:"payment_form"`
}

// ListWorkShiftSlotsRequest filters the slot listing.
type ListWorkShiftSlotsRequest struct {
	PaginationRequest
	ClientID      string   `form:"client_id"      binding:"omitempty,uuid"`
	DeliverymanID string   `form:"deliveryman_id" binding:"omitempty,uuid"`
	Status        string   `form:"status"`
	Period        []string `form:"period"         binding:"omitempty,dive,oneof=daytime nighttime"`
	IsFreelancer  *bool    `form:"is_freelancer"`
	Month         int      `form:"month" binding:"omitempty,min=1,max=12"`
	Week          int      `form:"week"  binding:"omitempty,min=1,max=53"`
}

// SendInviteRequest invites a deliveryman to an OPEN or INVITED slot.
type SendInviteRequest struct {
	DeliverymanID  string `json:"deliveryman_id"   binding:"required,uuid"`
	ExpiresInHours int    `json:"expires_in_hours" binding:"omitempty,min=1,max=72"`
}

// AcceptInviteRequest is the courier's reply via the slot-embedded token.
type AcceptInviteRequest struct {
	Token    string `json:"token"    binding:"required"`
	Accepted *bool  `json:"accepted" binding:"required"`
}

// CheckInOutRequest records attendance with an optional location.
type CheckInOutRequest struct {
	Location string `json:"location"`
}

// MarkAbsentRequest marks a no-show.
type MarkAbsentRequest struct {
	Reason string `json:"reason"`
}

// CopyShiftsRequest clones a client's schedule from one date to another.
type CopyShiftsRequest struct {
	ClientID   string `json:"client_id"   binding:"required,uuid"`
	SourceDate string `json:"source_date" binding:"required"`
	TargetDate string `json:"target_date" binding:"required"`
}

// ── responses ──

// WorkShiftSlotResponse is the API view of a slot. Payment amounts render as
// decimal strings.
type WorkShiftSlotResponse struct {
	ID                string            `json:"id"`
	ClientID          string            `json:"client_id"`
	Client            *ClientBrief      `json:"client,omitempty"`
	DeliverymanID     *string           `json:"deliveryman_id,omitempty"`
	Deliveryman       *DeliverymanBrief `json:"deliveryman,omitempty"`
	ShiftDate         string            `json:"shift_date"`
	StartTime         string            `json:"start_time"`
	EndTime           string            `json:"end_time"`
	ContractType      string            `json:"contract_type"`
	Period            []string          `json:"period"`
	IsFreelancer      bool              `json:"is_freelancer"`
	Status            string            `json:"status"`
	AuditStatus       *string           `json:"audit_status,omitempty"`
	AmountDay         string            `json:"amount_day"`
	AmountNight       string            `json:"amount_night"`
	PerDeliveryDay    string            `json:"per_delivery_day"`
	PerDeliveryNight  string            `json:"per_delivery_night"`
	PaymentForm       *string           `json:"payment_form,omitempty"`
	InviteSentAt      *string           `json:"invite_sent_at,omitempty"`
	InviteExpiresAt   *string           `json:"invite_expires_at,omitempty"`
	CheckInAt         *string           `json:"check_in_at,omitempty"`
	CheckOutAt        *string           `json:"check_out_at,omitempty"`
	TrackingConnected bool              `json:"tracking_connected"`
	Logs              []ShiftLogEntry   `json:"logs"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

// ShiftLogEntry is the API view of one lifecycle log entry.
type ShiftLogEntry struct {
	Action        string `json:"action"`
	Timestamp     string `json:"timestamp"`
	DeliverymanID string `json:"deliveryman_id,omitempty"`
	InviteID      string `json:"invite_id,omitempty"`
	Location      string `json:"location,omitempty"`
	Reason        string `json:"reason,omitempty"`
	SourceSlotID  string `json:"source_slot_id,omitempty"`
}

// SendInviteResponse reports a dispatched slot invite.
type SendInviteResponse struct {
	InviteToken     string `json:"invite_token"`
	InviteSentAt    string `json:"invite_sent_at"`
	InviteExpiresAt string `json:"invite_expires_at"`
}

// CopyConflict names one assignment dropped during a copy.
type CopyConflict struct {
	SourceSlotID      string `json:"source_slot_id"`
	DeliverymanID     string `json:"deliveryman_id"`
	DeliverymanName   string `json:"deliveryman_name"`
	ConflictingSlotID string `json:"conflicting_slot_id"`
}

// CopyShiftsResponse returns the created copies plus a warning block that is
// absent when no assignment was dropped.
type CopyShiftsResponse struct {
	Slots     []WorkShiftSlotResponse `json:"slots"`
	Conflicts []CopyConflict          `json:"conflicts,omitempty"`
}
