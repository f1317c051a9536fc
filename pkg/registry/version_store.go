package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VersionStore persists asset snapshots. It is the only component allowed
// to move the is_latest pointer, and it only does so inside the
// transactional operations below.
type VersionStore struct {
	db *gorm.DB
}

// NewVersionStore creates a new VersionStore.
func NewVersionStore(db *gorm.DB) *VersionStore {
	return &VersionStore{db: db}
}

// AutoMigrate creates or updates the asset_snapshots table.
func (s *VersionStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&AssetSnapshotRecord{}); err != nil {
		return fmt.Errorf("auto-migrate asset_snapshots: %w", err)
	}
	return nil
}

// CreateInitial registers version 1 for a logical key.
// Fails with ErrAlreadyExists if any snapshot for the key exists, including
// soft-deleted ones; a deleted key is not reusable.
func (s *VersionStore) CreateInitial(logicalKey string, payload map[string]any, createdBy string) (*AssetSnapshotRecord, error) {
	if logicalKey == "" {
		return nil, fmt.Errorf("logical key is required")
	}

	rec := &AssetSnapshotRecord{
		ID:         uuid.New().String(),
		LogicalKey: logicalKey,
		Version:    1,
		IsLatest:   true,
		Payload:    JSONPayload(payload),
		CreatedBy:  createdBy,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&AssetSnapshotRecord{}).
			Where("logical_key = ?", logicalKey).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check existing snapshots: %w", err)
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		if err := tx.Create(rec).Error; err != nil {
			// A concurrent registration may have won the (logical_key, version)
			// unique index between our check and create.
			var raceCount int64
			if lookupErr := s.db.Model(&AssetSnapshotRecord{}).
				Where("logical_key = ?", logicalKey).
				Count(&raceCount).Error; lookupErr == nil && raceCount > 0 {
				return ErrAlreadyExists
			}
			return fmt.Errorf("create initial snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateNewVersion appends a snapshot for a logical key. The caller supplies
// the version it believes is current; a stale expectedVersion fails with
// ErrVersionConflict instead of silently overwriting.
//
// The latest-pointer flip and the new row insertion happen in one
// transaction; a crash or a concurrent conflicting writer can never leave
// the key with zero or two latest snapshots.
func (s *VersionStore) CreateNewVersion(logicalKey string, expectedVersion int, payload map[string]any, createdBy string) (*AssetSnapshotRecord, error) {
	var rec *AssetSnapshotRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current AssetSnapshotRecord
		err := tx.Where("logical_key = ? AND is_latest = ? AND deleted_at IS NULL", logicalKey, true).
			First(&current).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return fmt.Errorf("load latest snapshot: %w", err)
		}
		if current.Version != expectedVersion {
			return ErrVersionConflict
		}

		// Guarded flip: if a concurrent writer already superseded this row,
		// zero rows match and the whole transaction rolls back.
		result := tx.Model(&AssetSnapshotRecord{}).
			Where("id = ? AND is_latest = ? AND version = ?", current.ID, true, expectedVersion).
			Update("is_latest", false)
		if result.Error != nil {
			return fmt.Errorf("supersede snapshot: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		rec = &AssetSnapshotRecord{
			ID:         uuid.New().String(),
			LogicalKey: logicalKey,
			Version:    current.Version + 1,
			IsLatest:   true,
			Payload:    JSONPayload(payload),
			CreatedBy:  createdBy,
		}
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("create snapshot version %d: %w", rec.Version, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetLatest returns the authoritative current snapshot for a logical key.
func (s *VersionStore) GetLatest(logicalKey string) (*AssetSnapshotRecord, error) {
	var rec AssetSnapshotRecord
	err := s.db.Where("logical_key = ? AND is_latest = ? AND deleted_at IS NULL", logicalKey, true).
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return &rec, nil
}

// GetVersion returns one specific snapshot of a logical key.
func (s *VersionStore) GetVersion(logicalKey string, version int) (*AssetSnapshotRecord, error) {
	var rec AssetSnapshotRecord
	err := s.db.Where("logical_key = ? AND version = ?", logicalKey, version).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot version: %w", err)
	}
	return &rec, nil
}

// GetHistory returns every snapshot of a logical key, newest first.
// Soft-deleted rows are included; the history of a retired asset stays
// readable for audit display.
func (s *VersionStore) GetHistory(logicalKey string) ([]AssetSnapshotRecord, error) {
	var records []AssetSnapshotRecord
	err := s.db.Where("logical_key = ?", logicalKey).
		Order("version DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("get snapshot history: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// SoftDelete retires a logical key. Every row of the key is tombstoned and
// the latest pointer is cleared; history remains readable via GetHistory.
func (s *VersionStore) SoftDelete(logicalKey string) error {
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&AssetSnapshotRecord{}).
			Where("logical_key = ? AND deleted_at IS NULL", logicalKey).
			Updates(map[string]any{"deleted_at": now, "is_latest": false})
		if result.Error != nil {
			return fmt.Errorf("soft delete asset: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
