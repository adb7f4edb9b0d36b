package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
)

// cloneRepository implements the CloneRepository interface
type cloneRepository struct {
	db *gorm.DB
}

// NewCloneRepository creates a new clone repository instance
func NewCloneRepository(db *gorm.DB) CloneRepository {
	return &cloneRepository{db: db}
}

// Create inserts a new clone record. The unique key on (user_id, clone_domain)
// turns concurrent first detections into gorm.ErrDuplicatedKey for the loser,
// which the detection engine converts into a RecordHit.
func (r *cloneRepository) Create(clone *models.DetectedClone) error {
	return r.db.Create(clone).Error
}

// GetByID retrieves a clone record scoped to its owner
func (r *cloneRepository) GetByID(id uint, userID string) (*models.DetectedClone, error) {
	var clone models.DetectedClone
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&clone).Error
	if err != nil {
		return nil, err
	}
	return &clone, nil
}

// GetByUserAndDomain retrieves the clone record for a (user, domain) pair
// regardless of its active flag, since the unique key spans both states.
func (r *cloneRepository) GetByUserAndDomain(userID, domain string) (*models.DetectedClone, error) {
	var clone models.DetectedClone
	err := r.db.Where("user_id = ? AND clone_domain = ?", userID, domain).First(&clone).Error
	if err != nil {
		return nil, err
	}
	return &clone, nil
}

// RecordHit applies one detection ping to an existing record.
func (r *cloneRepository) RecordHit(id uint, seenAt time.Time, stats models.PageStats) error {
	updates := map[string]interface{}{
		"detection_count": gorm.Expr("detection_count + 1"),
		"last_seen":       seenAt,
		"is_active":       true,
	}
	if len(stats) > 0 {
		var current models.DetectedClone
		if err := r.db.Select("id", "page_stats").First(&current, id).Error; err != nil {
			return err
		}
		updates["page_stats"] = current.PageStats.Merge(stats)
	}
	res := r.db.Model(&models.DetectedClone{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetActive flips the administrative active flag on a clone record
func (r *cloneRepository) SetActive(id uint, userID string, active bool) error {
	res := r.db.Model(&models.DetectedClone{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByUserID returns a page of the user's clone records, newest first
func (r *cloneRepository) ListByUserID(userID string, offset, limit int) ([]models.DetectedClone, error) {
	var clones []models.DetectedClone
	err := r.db.Where("user_id = ?", userID).
		Order("last_seen DESC").
		Offset(offset).Limit(limit).
		Find(&clones).Error
	if err != nil {
		return nil, err
	}
	return clones, nil
}

// CountByUserID counts all clone records of a user
func (r *cloneRepository) CountByUserID(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.DetectedClone{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountActive counts active clone records across all users
func (r *cloneRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.DetectedClone{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// AppendLog writes one detection-log row
func (r *cloneRepository) AppendLog(entry *models.DetectionLog) error {
	return r.db.Create(entry).Error
}

// CountLogsSince counts detection-log rows newer than the given time
func (r *cloneRepository) CountLogsSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.DetectionLog{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}
