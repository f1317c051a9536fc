package inspection

import (
	"errors"
	"testing"
	"time"

	"github.com/solaius/asset-registry/pkg/authn"
)

var testTime = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func leadActor() authn.Actor { return authn.Actor{UserID: "lara", Role: "lead"} }
func headActor() authn.Actor { return authn.Actor{UserID: "hank", Role: "head"} }

func TestMachine_SignProgression(t *testing.T) {
	m := NewMachine(nil)
	state := ApprovalState{BaseStatus: StatusInProgress, Status: StatusInProgress}

	// First signature moves to waiting_for_approval.
	state, err := m.Sign(state, RoleLead, leadActor(), "sig-lead", testTime)
	if err != nil {
		t.Fatalf("Sign(lead) error: %v", err)
	}
	if state.Status != StatusWaitingForApproval {
		t.Errorf("status after one signature = %s, want %s", state.Status, StatusWaitingForApproval)
	}
	if !state.Lead.Signed() || state.Head.Signed() {
		t.Errorf("unexpected slot state: lead=%v head=%v", state.Lead.Signed(), state.Head.Signed())
	}

	// All four slot fields are populated together.
	if state.Lead.SignatureData != "sig-lead" || state.Lead.SignedBy != "lara" || state.Lead.SignedAt == nil {
		t.Errorf("lead slot not fully populated: %+v", state.Lead)
	}
	if !state.Lead.SignedAt.Equal(testTime) {
		t.Errorf("lead signedAt = %v, want %v", state.Lead.SignedAt, testTime)
	}

	// Second signature completes the inspection.
	state, err = m.Sign(state, RoleHead, headActor(), "sig-head", testTime)
	if err != nil {
		t.Fatalf("Sign(head) error: %v", err)
	}
	if state.Status != StatusCompleted {
		t.Errorf("status after both signatures = %s, want %s", state.Status, StatusCompleted)
	}
}

func TestMachine_SignOrderIrrelevant(t *testing.T) {
	m := NewMachine(nil)
	state := ApprovalState{BaseStatus: StatusPending, Status: StatusPending}

	// Head may sign first.
	state, err := m.Sign(state, RoleHead, headActor(), "sig-head", testTime)
	if err != nil {
		t.Fatalf("Sign(head) error: %v", err)
	}
	if state.Status != StatusWaitingForApproval {
		t.Errorf("status = %s, want %s", state.Status, StatusWaitingForApproval)
	}

	state, err = m.Sign(state, RoleLead, leadActor(), "sig-lead", testTime)
	if err != nil {
		t.Fatalf("Sign(lead) error: %v", err)
	}
	if state.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", state.Status, StatusCompleted)
	}
}

func TestMachine_SignErrors(t *testing.T) {
	m := NewMachine(nil)

	signed := ApprovalState{BaseStatus: StatusPending, Status: StatusWaitingForApproval}
	signed.Lead = Slot{SignatureData: "sig", SignedBy: "lara", SignedAt: &testTime}

	tests := []struct {
		name      string
		state     ApprovalState
		role      Role
		actor     authn.Actor
		signature string
		wantErr   error
	}{
		{
			name:      "already signed",
			state:     signed,
			role:      RoleLead,
			actor:     leadActor(),
			signature: "sig-2",
			wantErr:   ErrAlreadySigned,
		},
		{
			name:      "wrong role",
			state:     ApprovalState{BaseStatus: StatusPending, Status: StatusPending},
			role:      RoleHead,
			actor:     authn.Actor{UserID: "mike", Role: "viewer"},
			signature: "sig",
			wantErr:   ErrForbidden,
		},
		{
			name:      "anonymous",
			state:     ApprovalState{BaseStatus: StatusPending, Status: StatusPending},
			role:      RoleLead,
			actor:     authn.Actor{},
			signature: "sig",
			wantErr:   ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.state
			after, err := m.Sign(tt.state, tt.role, tt.actor, tt.signature, testTime)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Sign() error = %v, want %v", err, tt.wantErr)
			}
			// A rejected sign leaves the state untouched.
			if after.Status != before.Status {
				t.Errorf("status changed on rejected sign: %s -> %s", before.Status, after.Status)
			}
		})
	}
}

func TestMachine_SignRequiresSignatureData(t *testing.T) {
	m := NewMachine(nil)
	state := ApprovalState{BaseStatus: StatusPending, Status: StatusPending}

	_, err := m.Sign(state, RoleLead, leadActor(), "", testTime)
	if err == nil {
		t.Fatal("Sign with empty signature data must fail")
	}
}

func TestMachine_RevokeRestoresBaseStatus(t *testing.T) {
	m := NewMachine(nil)

	for _, base := range []Status{StatusPending, StatusInProgress} {
		state := ApprovalState{BaseStatus: base, Status: base}

		state, err := m.Sign(state, RoleLead, leadActor(), "sig-lead", testTime)
		if err != nil {
			t.Fatalf("Sign error: %v", err)
		}
		state, err = m.Sign(state, RoleHead, headActor(), "sig-head", testTime)
		if err != nil {
			t.Fatalf("Sign error: %v", err)
		}

		// Revoking one of two signatures drops back to waiting.
		state, err = m.Revoke(state, RoleHead)
		if err != nil {
			t.Fatalf("Revoke error: %v", err)
		}
		if state.Status != StatusWaitingForApproval {
			t.Errorf("status after first revoke = %s, want %s", state.Status, StatusWaitingForApproval)
		}
		if state.Head.SignatureData != "" || state.Head.SignedBy != "" || state.Head.SignedAt != nil {
			t.Errorf("head slot not fully cleared: %+v", state.Head)
		}

		// Revoking the last signature restores the pre-approval status.
		state, err = m.Revoke(state, RoleLead)
		if err != nil {
			t.Fatalf("Revoke error: %v", err)
		}
		if state.Status != base {
			t.Errorf("status after last revoke = %s, want %s", state.Status, base)
		}
	}
}

func TestMachine_RevokeUnsigned(t *testing.T) {
	m := NewMachine(nil)
	state := ApprovalState{BaseStatus: StatusPending, Status: StatusPending}

	_, err := m.Revoke(state, RoleLead)
	if !errors.Is(err, ErrNothingToRevoke) {
		t.Fatalf("Revoke() error = %v, want %v", err, ErrNothingToRevoke)
	}
}

func TestMachine_ReSignAfterRevoke(t *testing.T) {
	m := NewMachine(nil)
	state := ApprovalState{BaseStatus: StatusInProgress, Status: StatusInProgress}

	state, err := m.Sign(state, RoleLead, leadActor(), "sig-1", testTime)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	state, err = m.Revoke(state, RoleLead)
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	// The cleared slot accepts a fresh signature.
	state, err = m.Sign(state, RoleLead, leadActor(), "sig-2", testTime)
	if err != nil {
		t.Fatalf("re-Sign error: %v", err)
	}
	if state.Lead.SignatureData != "sig-2" {
		t.Errorf("lead signature = %q, want sig-2", state.Lead.SignatureData)
	}
}
