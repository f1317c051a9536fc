package inspection

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store provides CRUD operations for inspections and their items. Approval
// slot columns are only ever written through the Coordinator.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new inspection Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the inspection tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&InspectionRecord{}); err != nil {
		return fmt.Errorf("auto-migrate inspections: %w", err)
	}
	if err := s.db.AutoMigrate(&InspectionItemRecord{}); err != nil {
		return fmt.Errorf("auto-migrate inspection_items: %w", err)
	}
	return nil
}

// Create inserts a new inspection. Both approval slots start empty; slot
// assignees may be pre-set. Defaults: status pending, date now.
func (s *Store) Create(rec *InspectionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = string(StatusPending)
	}
	if rec.BaseStatus == "" {
		rec.BaseStatus = rec.Status
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("create inspection: %w", err)
	}
	return nil
}

// Get retrieves an inspection by ID. Returns nil, nil if none exists.
func (s *Store) Get(id string) (*InspectionRecord, error) {
	var rec InspectionRecord
	err := s.db.Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get inspection: %w", err)
	}
	return &rec, nil
}

// GetWithItems retrieves an inspection and its items.
// Returns nil, nil, nil if the inspection does not exist.
func (s *Store) GetWithItems(id string) (*InspectionRecord, []InspectionItemRecord, error) {
	rec, err := s.Get(id)
	if err != nil || rec == nil {
		return rec, nil, err
	}
	items, err := s.Items(id)
	if err != nil {
		return nil, nil, err
	}
	return rec, items, nil
}

// List returns paginated inspections, newest first by inspection date.
// pageToken is an RFC3339Nano timestamp cursor.
func (s *Store) List(status Status, inspectorID string, pageSize int, pageToken string) ([]InspectionRecord, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	buildQuery := func(base *gorm.DB) *gorm.DB {
		q := base.Model(&InspectionRecord{})
		if status != "" {
			q = q.Where("status = ?", string(status))
		}
		if inspectorID != "" {
			q = q.Where("inspector_id = ?", inspectorID)
		}
		return q
	}

	var totalSize int64
	if err := buildQuery(s.db).Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count inspections: %w", err)
	}

	query := buildQuery(s.db).Order("date DESC").Limit(pageSize + 1)
	if pageToken != "" {
		t, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("date < ?", t)
	}

	var records []InspectionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list inspections: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].Date.Format(time.RFC3339Nano)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}

// Update changes an inspection's notes and date. Nil parameters leave the
// field untouched.
func (s *Store) Update(id string, notes *string, date *time.Time) (*InspectionRecord, error) {
	updates := map[string]any{}
	if notes != nil {
		updates["notes"] = *notes
	}
	if date != nil {
		updates["date"] = *date
	}
	if len(updates) > 0 {
		result := s.db.Model(&InspectionRecord{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("update inspection: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Start moves a pending inspection to in_progress. The transition also
// updates the pre-approval fallback status.
func (s *Store) Start(id string) (*InspectionRecord, error) {
	result := s.db.Model(&InspectionRecord{}).
		Where("id = ? AND status = ?", id, string(StatusPending)).
		Updates(map[string]any{
			"status":      string(StatusInProgress),
			"base_status": string(StatusInProgress),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("start inspection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		rec, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("inspection %s is %s, only pending inspections can be started", id, rec.Status)
	}
	return s.Get(id)
}

// Cancel cancels an inspection. Only pending or in_progress inspections
// can be cancelled; partially or fully signed inspections must be revoked
// first.
func (s *Store) Cancel(id string) (*InspectionRecord, error) {
	result := s.db.Model(&InspectionRecord{}).
		Where("id = ? AND status IN ?", id, []string{string(StatusPending), string(StatusInProgress)}).
		Update("status", string(StatusCancelled))
	if result.Error != nil {
		return nil, fmt.Errorf("cancel inspection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		rec, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("inspection %s is %s and cannot be cancelled", id, rec.Status)
	}
	return s.Get(id)
}

// AddItem links an asset snapshot to an inspection. The link is immutable
// once created.
func (s *Store) AddItem(item *InspectionItemRecord) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	insp, err := s.Get(item.InspectionID)
	if err != nil {
		return err
	}
	if insp == nil {
		return ErrNotFound
	}
	if err := s.db.Create(item).Error; err != nil {
		return fmt.Errorf("add inspection item: %w", err)
	}
	return nil
}

// Items returns all items of an inspection, oldest first.
func (s *Store) Items(inspectionID string) ([]InspectionItemRecord, error) {
	var items []InspectionItemRecord
	err := s.db.Where("inspection_id = ?", inspectionID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list inspection items: %w", err)
	}
	return items, nil
}

// DeleteItem removes an inspection item link.
func (s *Store) DeleteItem(itemID string) error {
	result := s.db.Where("id = ?", itemID).Delete(&InspectionItemRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete inspection item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
