package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusPending   = "pending"
)

// Subscription tracks a user's plan and the monthly detection counters.
// Exactly one active subscription exists per user; the usage meter creates a
// default free subscription lazily when none is found. CloneLimit is a
// denormalized copy of the plan limit taken at subscription time.
type Subscription struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            string    `gorm:"type:char(36);not null;index" json:"user_id"`
	PlanID            uint      `gorm:"not null" json:"plan_id"`
	Plan              Plan      `gorm:"foreignKey:PlanID" json:"plan"`
	Status            string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CurrentCloneCount int       `gorm:"not null;default:0" json:"current_clone_count"`
	CloneLimit        int       `gorm:"not null" json:"clone_limit"`
	ExtraClonesUsed   int       `gorm:"not null;default:0" json:"extra_clones_used"`
	BlockedClones     int       `gorm:"not null;default:0" json:"blocked_clones"`
	ResetDate         time.Time `gorm:"not null" json:"reset_date"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether this subscription currently entitles the user.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
