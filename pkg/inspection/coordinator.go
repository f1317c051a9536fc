package inspection

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/solaius/asset-registry/pkg/audit"
	"github.com/solaius/asset-registry/pkg/authn"
)

// signRetries bounds the optimistic retry loop on concurrent slot writes.
const signRetries = 3

// recordState projects the approval columns of a record into the pure
// state the Machine operates on.
func recordState(r *InspectionRecord) ApprovalState {
	return ApprovalState{
		BaseStatus: Status(r.BaseStatus),
		Status:     Status(r.Status),
		Lead: Slot{
			AssignedUserID: r.LeadAssignedUserID,
			SignatureData:  r.LeadSignatureData,
			SignedBy:       r.LeadSignedBy,
			SignedAt:       r.LeadSignedAt,
		},
		Head: Slot{
			AssignedUserID: r.HeadAssignedUserID,
			SignatureData:  r.HeadSignatureData,
			SignedBy:       r.HeadSignedBy,
			SignedAt:       r.HeadSignedAt,
		},
	}
}

// slotColumns maps one role's slot to its column updates.
func slotColumns(role Role, slot Slot, status Status) map[string]any {
	prefix := "lead"
	if role == RoleHead {
		prefix = "head"
	}
	return map[string]any{
		prefix + "_signature_data": slot.SignatureData,
		prefix + "_signed_by":      slot.SignedBy,
		prefix + "_signed_at":      slot.SignedAt,
		"status":                   string(status),
	}
}

// ApprovalChange describes a completed sign or revoke, including the status
// transition it caused. Callers use it to notify interested parties.
type ApprovalChange struct {
	Inspection     Inspection  `json:"inspection"`
	Role           Role        `json:"role"`
	Action         string      `json:"action"`
	PreviousStatus Status      `json:"previousStatus"`
	NewStatus      Status      `json:"newStatus"`
	Actor          authn.Actor `json:"actor"`
}

// Coordinator serializes approval slot writes per inspection. Each sign or
// revoke reads the current row, runs the pure machine, and persists the
// result with a guarded update whose WHERE clause re-asserts the slot state
// the decision was based on. A concurrent writer makes the guard miss and
// the operation re-reads and retries, so two writers can never both claim
// the same slot.
type Coordinator struct {
	db      *gorm.DB
	store   *Store
	machine *Machine
	audit   *audit.Store
	logger  *slog.Logger
}

// NewCoordinator creates a Coordinator. auditStore and logger may be nil.
func NewCoordinator(db *gorm.DB, machine *Machine, auditStore *audit.Store, logger *slog.Logger) *Coordinator {
	if machine == nil {
		machine = NewMachine(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		db:      db,
		store:   NewStore(db),
		machine: machine,
		audit:   auditStore,
		logger:  logger,
	}
}

// ApplySign signs one approval slot of an inspection.
func (c *Coordinator) ApplySign(inspectionID string, role Role, actor authn.Actor, signatureData string, now time.Time) (*ApprovalChange, error) {
	return c.apply(inspectionID, role, actor, "sign", func(state ApprovalState) (ApprovalState, error) {
		return c.machine.Sign(state, role, actor, signatureData, now)
	})
}

// ApplyRevoke clears one approval slot of an inspection.
func (c *Coordinator) ApplyRevoke(inspectionID string, role Role, actor authn.Actor) (*ApprovalChange, error) {
	return c.apply(inspectionID, role, actor, "revoke", func(state ApprovalState) (ApprovalState, error) {
		if !c.machine.policy.Authorized(role, actor, state.slot(role).AssignedUserID) {
			return state, ErrForbidden
		}
		return c.machine.Revoke(state, role)
	})
}

func (c *Coordinator) apply(inspectionID string, role Role, actor authn.Actor, action string, decide func(ApprovalState) (ApprovalState, error)) (*ApprovalChange, error) {
	var lastErr error = ErrConflict

	for attempt := 0; attempt < signRetries; attempt++ {
		rec, err := c.store.Get(inspectionID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrNotFound
		}
		if rec.Status == string(StatusCancelled) {
			c.recordAudit(inspectionID, actor, role, action, audit.OutcomeDenied, ErrCancelled.Error(), nil, nil)
			return nil, ErrCancelled
		}

		prev := recordState(rec)
		next, err := decide(prev)
		if err != nil {
			outcome := audit.OutcomeFailure
			if errors.Is(err, ErrForbidden) {
				outcome = audit.OutcomeDenied
			}
			c.recordAudit(inspectionID, actor, role, action, outcome, err.Error(), nil, nil)
			return nil, err
		}

		// The guard re-asserts the slot emptiness/fullness and the
		// aggregate status the decision saw. A racing writer changes one
		// of these, the update affects zero rows, and we retry.
		guard := c.db.Model(&InspectionRecord{}).
			Where("id = ? AND status = ?", rec.ID, rec.Status)
		signedColumn := "lead_signed_at"
		if role == RoleHead {
			signedColumn = "head_signed_at"
		}
		if prev.slot(role).Signed() {
			guard = guard.Where(signedColumn + " IS NOT NULL")
		} else {
			guard = guard.Where(signedColumn + " IS NULL")
		}

		result := guard.Updates(slotColumns(role, next.slot(role), next.Status))
		if result.Error != nil {
			return nil, fmt.Errorf("%s approval: %w", action, result.Error)
		}
		if result.RowsAffected == 0 {
			lastErr = ErrConflict
			continue
		}

		updated, err := c.store.Get(inspectionID)
		if err != nil {
			return nil, err
		}
		if updated == nil {
			return nil, ErrNotFound
		}
		items, err := c.store.Items(inspectionID)
		if err != nil {
			return nil, err
		}

		c.recordAudit(inspectionID, actor, role, action, audit.OutcomeSuccess, "",
			map[string]any{"status": string(prev.Status)},
			map[string]any{"status": string(next.Status)})
		c.logger.Info("approval applied",
			"inspection_id", inspectionID,
			"role", string(role),
			"action", action,
			"actor", actor.UserID,
			"status", string(next.Status))

		return &ApprovalChange{
			Inspection:     updated.ToAPI(items),
			Role:           role,
			Action:         action,
			PreviousStatus: prev.Status,
			NewStatus:      next.Status,
			Actor:          actor,
		}, nil
	}

	return nil, lastErr
}

// recordAudit appends an audit event best-effort; persistence failures are
// logged and never block the approval path.
func (c *Coordinator) recordAudit(inspectionID string, actor authn.Actor, role Role, action, outcome, reason string, oldValue, newValue map[string]any) {
	if c.audit == nil {
		return
	}
	err := c.audit.Append(&audit.EventRecord{
		EventType:   "approval",
		Actor:       actor.UserID,
		SubjectType: audit.SubjectInspection,
		SubjectKey:  inspectionID,
		Action:      fmt.Sprintf("%s:%s", action, role),
		Outcome:     outcome,
		Reason:      reason,
		OldValue:    oldValue,
		NewValue:    newValue,
	})
	if err != nil {
		c.logger.Error("audit append failed", "inspection_id", inspectionID, "error", err)
	}
}
