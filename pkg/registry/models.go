package registry

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONPayload is a custom GORM type for an opaque business payload stored as JSON.
type JSONPayload map[string]any

// Scan implements the sql.Scanner interface for JSONPayload.
func (p *JSONPayload) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONPayload: %T", value)
	}
	return json.Unmarshal(bytes, p)
}

// Value implements the driver.Valuer interface for JSONPayload.
func (p JSONPayload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// AssetSnapshotRecord stores one immutable version of an asset. Rows are
// never updated after creation except for the is_latest pointer flip and
// soft-delete tombstoning; edits always append a new row.
type AssetSnapshotRecord struct {
	ID         string      `gorm:"primaryKey;column:id;type:varchar(36)"`
	LogicalKey string      `gorm:"column:logical_key;uniqueIndex:idx_snapshot_key_version,priority:1;index:idx_snapshot_latest,priority:1;not null"`
	Version    int         `gorm:"column:version;uniqueIndex:idx_snapshot_key_version,priority:2;not null"`
	IsLatest   bool        `gorm:"column:is_latest;index:idx_snapshot_latest,priority:2;not null"`
	Payload    JSONPayload `gorm:"column:payload;type:text;not null"`
	CreatedBy  string      `gorm:"column:created_by"`
	DeletedAt  *time.Time  `gorm:"column:deleted_at"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (AssetSnapshotRecord) TableName() string { return "asset_snapshots" }

// AssetSnapshot is the API-facing snapshot type.
type AssetSnapshot struct {
	SnapshotID string         `json:"snapshotId"`
	LogicalKey string         `json:"logicalKey"`
	Version    int            `json:"version"`
	IsLatest   bool           `json:"isLatest"`
	Payload    map[string]any `json:"payload"`
	CreatedBy  string         `json:"createdBy,omitempty"`
	CreatedAt  string         `json:"createdAt"`
	UpdatedAt  string         `json:"updatedAt"`
}

// AssetHistory is the API response for a snapshot history listing.
type AssetHistory struct {
	LogicalKey string          `json:"logicalKey"`
	Snapshots  []AssetSnapshot `json:"snapshots"`
}

// VersionChanges pairs a snapshot version with the change set against its
// immediate predecessor.
type VersionChanges struct {
	Version   int       `json:"version"`
	Initial   bool      `json:"initial"`
	Changes   ChangeSet `json:"changes"`
	CreatedAt string    `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// AssetChangeLog is the API response for the per-version change sets of an asset.
type AssetChangeLog struct {
	LogicalKey string           `json:"logicalKey"`
	Versions   []VersionChanges `json:"versions"`
}

func snapshotToAPI(rec *AssetSnapshotRecord) AssetSnapshot {
	return AssetSnapshot{
		SnapshotID: rec.ID,
		LogicalKey: rec.LogicalKey,
		Version:    rec.Version,
		IsLatest:   rec.IsLatest,
		Payload:    map[string]any(rec.Payload),
		CreatedBy:  rec.CreatedBy,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  rec.UpdatedAt.Format(time.RFC3339),
	}
}
