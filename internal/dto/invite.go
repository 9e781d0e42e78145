package dto

// SendBulkInvitesRequest dispatches invites for INVITED slots on a date.
// Exactly one of work_shift_slot_id / client_id narrows the batch.
type SendBulkInvitesRequest struct {
	Date            string  `json:"date"               binding:"required"`
	WorkShiftSlotID *string `json:"work_shift_slot_id" binding:"omitempty,uuid"`
	ClientID        *string `json:"client_id"          binding:"omitempty,uuid"`
}

// BulkInviteError names one slot that failed inside a batch.
type BulkInviteError struct {
	SlotID string `json:"slot_id"`
	Reason string `json:"reason"`
}

// SendBulkInvitesResponse summarizes a batch dispatch. One slot's failure
// never aborts the rest of the batch.
type SendBulkInvitesResponse struct {
	Sent   int               `json:"sent"`
	Failed int               `json:"failed"`
	Errors []BulkInviteError `json:"errors"`
}

// GetInviteRequest authenticates the courier-facing invite read.
type GetInviteRequest struct {
	Token string `form:"token" binding:"required"`
}

// RespondInviteRequest is the courier's reply on the confirmation page.
type RespondInviteRequest struct {
	Token    string `json:"token"    binding:"required"`
	Accepted *bool  `json:"accepted" binding:"required"`
}

// InviteResponse is the courier-facing view of an invite snapshot.
type InviteResponse struct {
	ID              string  `json:"id"`
	Token           string  `json:"token"`
	Status          string  `json:"status"`
	WorkShiftSlotID string  `json:"work_shift_slot_id"`
	DeliverymanID   string  `json:"deliveryman_id"`
	ClientID        string  `json:"client_id"`
	ClientName      string  `json:"client_name"`
	ClientAddress   string  `json:"client_address"`
	ShiftDate       string  `json:"shift_date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	SentAt          string  `json:"sent_at"`
	ExpiresAt       string  `json:"expires_at"`
	RespondedAt     *string `json:"responded_at,omitempty"`
}
