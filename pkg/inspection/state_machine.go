package inspection

import (
	"fmt"
	"time"

	"github.com/solaius/asset-registry/pkg/authn"
)

// Slot holds one role's signature state. The four fields are set together
// on sign and cleared together on revoke; a partially-filled slot never
// exists.
type Slot struct {
	AssignedUserID string
	SignatureData  string
	SignedBy       string
	SignedAt       *time.Time
}

// Signed reports whether the slot carries a signature.
func (s Slot) Signed() bool { return s.SignatureData != "" }

// ApprovalState is the full approval state of one inspection: both slots,
// the derived aggregate status, and the status the inspection falls back to
// when no signature remains.
type ApprovalState struct {
	BaseStatus Status
	Status     Status
	Lead       Slot
	Head       Slot
}

func (st ApprovalState) slot(role Role) Slot {
	if role == RoleHead {
		return st.Head
	}
	return st.Lead
}

func (st *ApprovalState) setSlot(role Role, slot Slot) {
	if role == RoleHead {
		st.Head = slot
	} else {
		st.Lead = slot
	}
}

// deriveStatus recomputes the aggregate status from the slots. The status
// is never trusted independently of the slots, so it cannot desync.
func deriveStatus(st ApprovalState) Status {
	switch {
	case st.Lead.Signed() && st.Head.Signed():
		return StatusCompleted
	case st.Lead.Signed() || st.Head.Signed():
		return StatusWaitingForApproval
	default:
		return st.BaseStatus
	}
}

// Machine is the pure dual-signature decision function. It never performs
// I/O; callers are responsible for serializing concurrent invocations per
// inspection (see Coordinator).
type Machine struct {
	policy *RolePolicy
}

// NewMachine creates a machine with the given role policy.
func NewMachine(policy *RolePolicy) *Machine {
	if policy == nil {
		policy = DefaultRolePolicy()
	}
	return &Machine{policy: policy}
}

// Sign applies a signature to one slot and returns the resulting state.
//
// Preconditions: the slot must be unsigned (ErrAlreadySigned otherwise)
// and the actor must be authorized for the role (ErrForbidden otherwise).
// Signing never decreases the aggregate status.
func (m *Machine) Sign(state ApprovalState, role Role, actor authn.Actor, signatureData string, now time.Time) (ApprovalState, error) {
	if signatureData == "" {
		return state, fmt.Errorf("signature data is required")
	}

	slot := state.slot(role)
	if slot.Signed() {
		return state, ErrAlreadySigned
	}
	if !m.policy.Authorized(role, actor, slot.AssignedUserID) {
		return state, ErrForbidden
	}

	signedAt := now
	slot.SignatureData = signatureData
	slot.SignedBy = actor.UserID
	slot.SignedAt = &signedAt
	state.setSlot(role, slot)
	state.Status = deriveStatus(state)
	return state, nil
}

// Revoke clears one slot's signature and returns the resulting state.
//
// Precondition: the slot must be signed (ErrNothingToRevoke otherwise).
// Revoking the last remaining signature reverts the inspection to its
// pre-approval status.
func (m *Machine) Revoke(state ApprovalState, role Role) (ApprovalState, error) {
	slot := state.slot(role)
	if !slot.Signed() {
		return state, ErrNothingToRevoke
	}

	slot.SignatureData = ""
	slot.SignedBy = ""
	slot.SignedAt = nil
	state.setSlot(role, slot)
	state.Status = deriveStatus(state)
	return state, nil
}
