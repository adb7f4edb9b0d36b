package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	ListIDs() ([]string, error)
	Count() (int64, error)
}

// AllowedDomainRepository defines the interface for whitelist operations
type AllowedDomainRepository interface {
	Create(domain *models.AllowedDomain) error
	GetByID(id uint) (*models.AllowedDomain, error)
	ListByUserID(userID string) ([]models.AllowedDomain, error)
	// ListActiveDomains returns only the domain strings of active entries,
	// ordered by creation time so the first entry is the best original-domain
	// guess for new clone records.
	ListActiveDomains(userID string) ([]string, error)
	CountActiveByUserID(userID string) (int64, error)
	Deactivate(id uint, userID string) error
}

// CloneRepository defines the interface for clone-record and detection-log operations
type CloneRepository interface {
	Create(clone *models.DetectedClone) error
	GetByID(id uint, userID string) (*models.DetectedClone, error)
	GetByUserAndDomain(userID, domain string) (*models.DetectedClone, error)
	// RecordHit increments the detection counter, bumps last_seen, merges the
	// optional page aggregates and reactivates the row.
	RecordHit(id uint, seenAt time.Time, stats models.PageStats) error
	SetActive(id uint, userID string, active bool) error
	ListByUserID(userID string, offset, limit int) ([]models.DetectedClone, error)
	CountByUserID(userID string) (int64, error)
	CountActive() (int64, error)
	AppendLog(entry *models.DetectionLog) error
	CountLogsSince(since time.Time) (int64, error)
}

// SubscriptionRepository defines the interface for subscription and plan lookups
type SubscriptionRepository interface {
	// GetActiveByUserID returns the user's active subscription with the plan
	// preloaded, or gorm.ErrRecordNotFound.
	GetActiveByUserID(userID string) (*models.Subscription, error)
	Create(sub *models.Subscription) error
	Update(sub *models.Subscription) error
	GetPlanBySlug(slug string) (*models.Plan, error)
}

// CloneActionRepository defines the interface for countermeasure configuration
type CloneActionRepository interface {
	Create(action *models.CloneAction) error
	GetByID(id uint, userID string) (*models.CloneAction, error)
	ListByUserID(userID string) ([]models.CloneAction, error)
	// ListActiveGlobal returns active actions with no clone scope, oldest first.
	ListActiveGlobal(userID string) ([]models.CloneAction, error)
	Update(action *models.CloneAction) error
	Delete(id uint, userID string) error
}

// ScriptTokenRepository defines the interface for the legacy token reverse lookup
type ScriptTokenRepository interface {
	GetUserIDByToken(token string) (string, error)
	Save(token, userID string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User          UserRepository
	AllowedDomain AllowedDomainRepository
	Clone         CloneRepository
	Subscription  SubscriptionRepository
	CloneAction   CloneActionRepository
	ScriptToken   ScriptTokenRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		AllowedDomain: NewAllowedDomainRepository(db),
		Clone:         NewCloneRepository(db),
		Subscription:  NewSubscriptionRepository(db),
		CloneAction:   NewCloneActionRepository(db),
		ScriptToken:   NewScriptTokenRepository(db),
	}
}
