package repository

import (
	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
)

// allowedDomainRepository implements the AllowedDomainRepository interface
type allowedDomainRepository struct {
	db *gorm.DB
}

// NewAllowedDomainRepository creates a new allowed-domain repository instance
func NewAllowedDomainRepository(db *gorm.DB) AllowedDomainRepository {
	return &allowedDomainRepository{db: db}
}

// Create creates a new whitelist entry
func (r *allowedDomainRepository) Create(domain *models.AllowedDomain) error {
	return r.db.Create(domain).Error
}

// GetByID retrieves a whitelist entry by id
func (r *allowedDomainRepository) GetByID(id uint) (*models.AllowedDomain, error) {
	var domain models.AllowedDomain
	err := r.db.First(&domain, id).Error
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// ListByUserID returns all whitelist entries of a user, active or not
func (r *allowedDomainRepository) ListByUserID(userID string) ([]models.AllowedDomain, error) {
	var domains []models.AllowedDomain
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&domains).Error
	if err != nil {
		return nil, err
	}
	return domains, nil
}

// ListActiveDomains returns only the domain strings of active entries
func (r *allowedDomainRepository) ListActiveDomains(userID string) ([]string, error) {
	var domains []string
	err := r.db.Model(&models.AllowedDomain{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Pluck("domain", &domains).Error
	if err != nil {
		return nil, err
	}
	return domains, nil
}

// CountActiveByUserID counts a user's active whitelist entries
func (r *allowedDomainRepository) CountActiveByUserID(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.AllowedDomain{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// Deactivate soft-disables a whitelist entry. Scoped by user id so a caller
// can never deactivate another user's domain.
func (r *allowedDomainRepository) Deactivate(id uint, userID string) error {
	res := r.db.Model(&models.AllowedDomain{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
