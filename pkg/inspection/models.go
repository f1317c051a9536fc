package inspection

import "time"

// Status is the aggregate approval status of an inspection.
type Status string

const (
	StatusPending            Status = "pending"
	StatusInProgress         Status = "in_progress"
	StatusWaitingForApproval Status = "waiting_for_approval"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
)

// Role identifies one of the two countersigning approval slots.
type Role string

const (
	RoleLead Role = "lead"
	RoleHead Role = "head"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleLead, RoleHead:
		return Role(s), true
	}
	return "", false
}

// InspectionRecord is the GORM model for an inspection. The two approval
// slots are embedded as column groups; the record exclusively owns them.
type InspectionRecord struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	Date        time.Time `gorm:"column:date;index;not null"`
	Notes       string    `gorm:"column:notes"`
	InspectorID string    `gorm:"column:inspector_id;index;not null"`
	Status      string    `gorm:"column:status;index;default:pending;not null"`

	// BaseStatus is the status the inspection reverts to when its last
	// signature is revoked. Only pending and in_progress are valid here.
	BaseStatus string `gorm:"column:base_status;default:pending;not null"`

	LeadAssignedUserID string     `gorm:"column:lead_assigned_user_id"`
	LeadSignatureData  string     `gorm:"column:lead_signature_data;type:text"`
	LeadSignedBy       string     `gorm:"column:lead_signed_by"`
	LeadSignedAt       *time.Time `gorm:"column:lead_signed_at"`

	HeadAssignedUserID string     `gorm:"column:head_assigned_user_id"`
	HeadSignatureData  string     `gorm:"column:head_signature_data;type:text"`
	HeadSignedBy       string     `gorm:"column:head_signed_by"`
	HeadSignedAt       *time.Time `gorm:"column:head_signed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (InspectionRecord) TableName() string { return "inspections" }

// InspectionItemRecord links an inspection to the exact asset snapshot that
// was inspected. Immutable once created.
type InspectionItemRecord struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	InspectionID string    `gorm:"column:inspection_id;index:idx_item_inspection;not null"`
	LogicalKey   string    `gorm:"column:logical_key;not null"`
	AssetVersion int       `gorm:"column:asset_version;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (InspectionItemRecord) TableName() string { return "inspection_items" }

// ApprovalSlotView is the API-facing view of one approval slot.
type ApprovalSlotView struct {
	Role           Role   `json:"role"`
	AssignedUserID string `json:"assignedUserId,omitempty"`
	Signed         bool   `json:"signed"`
	SignedBy       string `json:"signedBy,omitempty"`
	SignedAt       string `json:"signedAt,omitempty"`
	SignatureData  string `json:"signatureData,omitempty"`
}

// Inspection is the API-facing inspection type.
type Inspection struct {
	ID          string             `json:"id"`
	Date        string             `json:"date"`
	Notes       string             `json:"notes,omitempty"`
	InspectorID string             `json:"inspectorId"`
	Status      Status             `json:"status"`
	Lead        ApprovalSlotView   `json:"lead"`
	Head        ApprovalSlotView   `json:"head"`
	Items       []InspectionItem   `json:"items,omitempty"`
	CreatedAt   string             `json:"createdAt"`
	UpdatedAt   string             `json:"updatedAt"`
}

// InspectionItem is the API-facing inspection item type.
type InspectionItem struct {
	ID           string `json:"id"`
	InspectionID string `json:"inspectionId"`
	LogicalKey   string `json:"logicalKey"`
	AssetVersion int    `json:"assetVersion"`
	CreatedAt    string `json:"createdAt"`
}

// InspectionList is a paginated list of inspections.
type InspectionList struct {
	Inspections   []Inspection `json:"inspections"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
	TotalSize     int          `json:"totalSize"`
}

func slotView(role Role, slot Slot) ApprovalSlotView {
	view := ApprovalSlotView{
		Role:           role,
		AssignedUserID: slot.AssignedUserID,
		Signed:         slot.Signed(),
		SignedBy:       slot.SignedBy,
		SignatureData:  slot.SignatureData,
	}
	if slot.SignedAt != nil {
		view.SignedAt = slot.SignedAt.Format(time.RFC3339)
	}
	return view
}

// ToAPI converts a record (and optional items) to the API type.
func (r *InspectionRecord) ToAPI(items []InspectionItemRecord) Inspection {
	state := recordState(r)
	insp := Inspection{
		ID:          r.ID,
		Date:        r.Date.Format(time.RFC3339),
		Notes:       r.Notes,
		InspectorID: r.InspectorID,
		Status:      Status(r.Status),
		Lead:        slotView(RoleLead, state.Lead),
		Head:        slotView(RoleHead, state.Head),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}
	for _, item := range items {
		insp.Items = append(insp.Items, InspectionItem{
			ID:           item.ID,
			InspectionID: item.InspectionID,
			LogicalKey:   item.LogicalKey,
			AssetVersion: item.AssetVersion,
			CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		})
	}
	return insp
}
