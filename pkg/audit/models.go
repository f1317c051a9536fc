package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Subject types recorded on audit events.
const (
	SubjectAsset      = "asset"
	SubjectInspection = "inspection"
)

// Outcomes recorded on audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// JSONValues is a custom GORM type for old/new value maps stored as JSON.
type JSONValues map[string]any

// Scan implements the sql.Scanner interface for JSONValues.
func (m *JSONValues) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONValues: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for JSONValues.
func (m JSONValues) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// EventRecord is an immutable audit log entry.
type EventRecord struct {
	ID          string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	EventType   string     `gorm:"column:event_type;index:idx_audit_type_time,priority:1;not null"`
	Actor       string     `gorm:"column:actor;index:idx_audit_actor_time,priority:1;not null"`
	SubjectType string     `gorm:"column:subject_type;not null"`
	SubjectKey  string     `gorm:"column:subject_key;index:idx_audit_subject_time,priority:1;not null"`
	Action      string     `gorm:"column:action"`
	Outcome     string     `gorm:"column:outcome;not null"`
	Reason      string     `gorm:"column:reason"`
	OldValue    JSONValues `gorm:"column:old_value;type:text"`
	NewValue    JSONValues `gorm:"column:new_value;type:text"`
	CreatedAt   time.Time  `gorm:"column:created_at;index:idx_audit_type_time,priority:2;index:idx_audit_actor_time,priority:2;index:idx_audit_subject_time,priority:2;autoCreateTime"`
}

// TableName returns the GORM table name.
func (EventRecord) TableName() string { return "audit_events" }

// Event is the API-facing audit event.
type Event struct {
	ID          string         `json:"id"`
	EventType   string         `json:"eventType"`
	Actor       string         `json:"actor"`
	SubjectType string         `json:"subjectType"`
	SubjectKey  string         `json:"subjectKey"`
	Action      string         `json:"action,omitempty"`
	Outcome     string         `json:"outcome"`
	Reason      string         `json:"reason,omitempty"`
	OldValue    map[string]any `json:"oldValue,omitempty"`
	NewValue    map[string]any `json:"newValue,omitempty"`
	CreatedAt   string         `json:"createdAt"`
}

// EventList is a paginated list of audit events.
type EventList struct {
	Events        []Event `json:"events"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	TotalSize     int     `json:"totalSize"`
}

// ToAPI converts a record to the API type.
func (r *EventRecord) ToAPI() Event {
	return Event{
		ID:          r.ID,
		EventType:   r.EventType,
		Actor:       r.Actor,
		SubjectType: r.SubjectType,
		SubjectKey:  r.SubjectKey,
		Action:      r.Action,
		Outcome:     r.Outcome,
		Reason:      r.Reason,
		OldValue:    map[string]any(r.OldValue),
		NewValue:    map[string]any(r.NewValue),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}
