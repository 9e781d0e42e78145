package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/motolinktech/server/internal/dto"
	"github.com/motolinktech/server/internal/model"
)

// sendAndFindInvite runs the single-slot invite flow and returns the created
// snapshot row.
func sendAndFindInvite(t *testing.T, env *testEnv, slotID, deliverymanID string) *model.Invite {
	t.Helper()
	if _, err := env.svc.SendInvite(context.Background(), slotID, &dto.SendInviteRequest{DeliverymanID: deliverymanID}); err != nil {
		t.Fatalf("SendInvite: %v", err)
	}
	for _, inv := range env.invites.invites {
		if inv.WorkShiftSlotID == slotID && inv.Status == model.InviteStatusPending {
			cp := *inv
			return &cp
		}
	}
	t.Fatalf("no pending invite for slot %s", slotID)
	return nil
}

func TestSendInvitesBatch(t *testing.T) {
	env := newTestEnv()
	env.addClient("c1", "Pizzaria Central")
	env.addDeliveryman("d1", "João", "11988887777")
	env.addDeliveryman("d2", "Sem Telefone", "")
	env.addSlot("s1", "c1", model.StatusInvited, strPtr("d1"), "18:00", "23:00")
	env.addSlot("s2", "c1", model.StatusInvited, strPtr("d2"), "08:00", "12:00")

	resp, err := env.inviteSvc.SendInvites(context.Background(), &dto.SendBulkInvitesRequest{
		Date: "2024-03-15",
	})
	if err != nil {
		t.Fatalf("SendInvites: %v", err)
	}
	if resp.Sent != 1 || resp.Failed != 1 {
		t.Fatalf("sent=%d failed=%d, want 1/1", resp.Sent, resp.Failed)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].SlotID != "s2" {
		t.Errorf("errors = %+v", resp.Errors)
	}

	ok := env.slots.slots["s1"]
	if ok.InviteToken == nil || ok.InviteSentAt == nil {
		t.Errorf("dispatched slot must carry a token")
	}
	if env.notif.sentCount() != 1 {
		t.Errorf("notifier called %d times, want 1", env.notif.sentCount())
	}
}

func TestSendInvitesSingleSlot(t *testing.T) {
	env := newTestEnv()
	env.addClient("c1", "Pizzaria Central")
	env.addDeliveryman("d1", "João", "11988887777")
	env.addSlot("s1", "c1", model.StatusInvited, strPtr("d1"), "18:00", "23:00")
	env.addSlot("s2", "c1", model.StatusInvited, strPtr("d1"), "08:00", "12:00")

	resp, err := env.inviteSvc.SendInvites(context.Background(), &dto.SendBulkInvitesRequest{
		Date:            "2024-03-15",
		WorkShiftSlotID: strPtr("s1"),
	})
	if err != nil {
		t.Fatalf("SendInvites: %v", err)
	}
	if resp.Sent != 1 || resp.Failed != 0 {
		t.Fatalf("sent=%d failed=%d, want exactly the named slot", resp.Sent, resp.Failed)
	}
	if env.slots.slots["s2"].InviteToken != nil {
		t.Errorf("unnamed slot must be untouched")
	}
}

func TestSendInvitesSkipsUnassigned(t *testing.T) {
	env := newTestEnv()
	env.addClient("c1", "Pizzaria Central")
	env.addSlot("s1", "c1", model.StatusOpen, nil, "18:00", "23:00")

	resp, err := env.inviteSvc.SendInvites(context.Background(), &dto.SendBulkInvitesRequest{
		Date: "2024-03-15",
	})
	if err != nil {
		t.Fatalf("SendInvites: %v", err)
	}
	if resp.Sent != 0 || resp.Failed != 0 {
		t.Errorf("OPEN slots are not invite targets: %+v", resp)
	}
}

func TestRespondToInviteAccept(t *testing.T) {
	env := newTestEnv()
	env.addClient("c1", "Pizzaria Central")
	env.addDeliveryman("d1", "João", "11988887777")
	env.addSlot("s1", "c1", model.StatusOpen, nil, "18:00", "23:00")
	invite := sendAndFindInvite(t, env, "s1", "d1")

	resp, err := env.inviteSvc.RespondToInvite(context.Background(), invite.InviteID, &dto.RespondInviteRequest{
		Token: invite.Token, Accepted: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("RespondToInvite: %v", err)
	}
	if resp.Status != model.InviteStatusAccepted || resp.RespondedAt == nil {
		t.Errorf("invite not resolved: %+v", resp)
	}
	if env.slots.slots["s1"].Status != model.StatusConfirmed {
		t.Errorf("slot must be CONFIRMED after accept")
	}

	// Responses are recorded exactly once.
	_, err = env.inviteSvc.RespondToInvite(context.Background(), invite.InviteID, &dto.RespondInviteRequest{
		Token: invite.Token, Accepted: boolPtr(true),
	})
	if !errors.Is(err, ErrInviteResolved) {
		t.Fatalf("second response err = %v, want ErrInviteResolved", err)
	}
}

func TestRespondToInviteDecline(t *testing.T) {
	env := newTestEnv()
	env.addClient("c1", "Pizzaria Central")
	env.addDeliveryman("d1", "João", "11988887777")
	env.addSlot("s1", "c1", model.StatusOpen, nil, "18:00", "23:00")
	invite := sendAndFindInvite(t, env, "s1", "d1")

	resp, err := env.inviteSvc.RespondToInvite(context.Background(), invite.InviteID, &dto.RespondInviteRequest{
		Token: invite.Token, Accepted: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("RespondToInvite: %v", err)
	}
	if resp.Status != model.InviteStatusRejected {
		t.Errorf("invite status = %s, want REJECTED", resp.Status)
	}
	stored := env.slots.slots["s1"]
	if stored.Status != model.StatusOpen {
		t.Errorf("slot must reopen after decline, got %s", stored.Status)
	}
	if stored.DeliverymanID != nil || stored.InviteToken != nil {
		t.Errorf("decline must unassign the deliveryman and clear the token")
	}
}

func TestRespondSupersededInvite(t *testing.T) {
	env := newTestEnv()
	env.addClient("c1", "Pizzaria Central")
	env.addDeliveryman("d1", "João", "11988887777")
	env.addDeliveryman("d2", "Maria", "11977776666")
	env.addSlot("s1", "c1", model.StatusOpen, nil, "18:00", "23:00")

	first := sendAndFindInvite(t, env, "s1", "d1")
	// A second invite rotates the slot token; the first snapshot goes stale.
	if _, err := env.svc.SendInvite(context.Background(), "s1", &dto.SendInviteRequest{DeliverymanID: "d2"}); err != nil {
		t.Fatalf("second SendInvite: %v", err)
	}

	_, err := env.inviteSvc.RespondToInvite(context.Background(), first.InviteID, &dto.RespondInviteRequest{
		Token: first.Token, Accepted: boolPtr(true),
	})
	if !errors.Is(err, ErrInviteTokenMismatch) {
		t.Fatalf("err = %v, want ErrInviteTokenMismatch", err)
	}
}

func TestGetInviteExpiresLazily(t *testing.T) {
	env := newTestEnv()
	env.addClient("c1", "Pizzaria Central")
	env.addDeliveryman("d1", "João", "11988887777")

	tok := "lazily-expired-token"
	past := time.Now().Add(-2 * time.Hour)
	slot := env.addSlot("s1", "c1", model.StatusInvited, strPtr("d1"), "18:00", "23:00")
	slot.InviteToken = &tok
	slot.InviteSentAt = &past
	slot.InviteExpiresAt = &past

	invite := &model.Invite{
		InviteID: "inv1", Token: tok, Status: model.InviteStatusPending,
		WorkShiftSlotID: "s1", DeliverymanID: "d1", ClientID: "c1",
		ClientName: "Pizzaria Central", ClientAddress: "Av. Paulista, 1000 - Bela Vista",
		ShiftDate: slot.ShiftDate, StartTime: slot.StartTime, EndTime: slot.EndTime,
		SentAt: past, ExpiresAt: past,
	}
	env.invites.invites["inv1"] = invite

	_, err := env.inviteSvc.GetInvite(context.Background(), "inv1", tok)
	if !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("err = %v, want ErrInviteExpired", err)
	}
	if env.invites.invites["inv1"].Status != model.InviteStatusExpired {
		t.Errorf("invite must be marked EXPIRED on read")
	}
	stored := env.slots.slots["s1"]
	if stored.Status != model.StatusOpen || stored.DeliverymanID != nil {
		t.Errorf("slot must bounce to unassigned OPEN, got %s", stored.Status)
	}
}

func TestGetInviteTokenMismatch(t *testing.T) {
	env := newTestEnv()
	env.addClient("c1", "Pizzaria Central")
	env.addDeliveryman("d1", "João", "11988887777")
	env.addSlot("s1", "c1", model.StatusOpen, nil, "18:00", "23:00")
	invite := sendAndFindInvite(t, env, "s1", "d1")

	_, err := env.inviteSvc.GetInvite(context.Background(), invite.InviteID, "wrong")
	if !errors.Is(err, ErrInviteTokenMismatch) {
		t.Fatalf("err = %v, want ErrInviteTokenMismatch", err)
	}
}

func TestGetInviteNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.inviteSvc.GetInvite(context.Background(), "ghost", "tok")
	if !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("err = %v, want ErrInviteNotFound", err)
	}
}
