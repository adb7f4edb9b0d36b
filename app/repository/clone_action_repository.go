package repository

import (
	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
)

// cloneActionRepository implements the CloneActionRepository interface
type cloneActionRepository struct {
	db *gorm.DB
}

// NewCloneActionRepository creates a new clone-action repository instance
func NewCloneActionRepository(db *gorm.DB) CloneActionRepository {
	return &cloneActionRepository{db: db}
}

// Create inserts a new countermeasure configuration
func (r *cloneActionRepository) Create(action *models.CloneAction) error {
	return r.db.Create(action).Error
}

// GetByID retrieves an action scoped to its owner
func (r *cloneActionRepository) GetByID(id uint, userID string) (*models.CloneAction, error) {
	var action models.CloneAction
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&action).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// ListByUserID returns all actions of a user
func (r *cloneActionRepository) ListByUserID(userID string) ([]models.CloneAction, error) {
	var actions []models.CloneAction
	err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// ListActiveGlobal returns active global actions (clone_id IS NULL), oldest
// first. The selector's head-of-list policy depends on this ordering.
func (r *cloneActionRepository) ListActiveGlobal(userID string) ([]models.CloneAction, error) {
	var actions []models.CloneAction
	err := r.db.Where("user_id = ? AND clone_id IS NULL AND is_active = ?", userID, true).
		Order("id ASC").
		Find(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// Update saves changes to an action
func (r *cloneActionRepository) Update(action *models.CloneAction) error {
	return r.db.Save(action).Error
}

// Delete removes an action, scoped to its owner
func (r *cloneActionRepository) Delete(id uint, userID string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CloneAction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
