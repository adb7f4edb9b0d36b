package models

import "strings"

const (
	PlanFree    = "free"
	PlanBronze  = "bronze"
	PlanSilver  = "silver"
	PlanGold    = "gold"
	PlanDiamond = "diamond"
)

// Plan is immutable reference data describing a subscription tier.
// Prices are stored in cents.
type Plan struct {
	ID                   uint   `gorm:"primaryKey" json:"id"`
	Slug                 string `gorm:"type:varchar(50);not null;uniqueIndex" json:"slug"`
	Name                 string `gorm:"type:varchar(100);not null" json:"name"`
	CloneLimit           int    `gorm:"not null" json:"clone_limit"`
	DomainLimit          int    `gorm:"not null" json:"domain_limit"`
	PriceCents           int    `gorm:"not null;default:0" json:"price_cents"`
	ExtraClonePriceCents int    `gorm:"not null;default:0" json:"extra_clone_price_cents"`
	HasEmailAlerts       bool   `gorm:"not null;default:false" json:"has_email_alerts"`
	HasAPIAccess         bool   `gorm:"not null;default:false" json:"has_api_access"`
}

// IsFree reports whether detections beyond the clone limit are refused
// instead of billed as extras.
func (p *Plan) IsFree() bool {
	return p.Slug == PlanFree
}

// NormalizePlanSlug maps arbitrary input to a known plan slug, defaulting to free.
func NormalizePlanSlug(slug string) string {
	switch strings.ToLower(strings.TrimSpace(slug)) {
	case PlanBronze:
		return PlanBronze
	case PlanSilver:
		return PlanSilver
	case PlanGold:
		return PlanGold
	case PlanDiamond:
		return PlanDiamond
	default:
		return PlanFree
	}
}

// DefaultPlans returns the seed data for the plans reference table.
func DefaultPlans() []Plan {
	return []Plan{
		{Slug: PlanFree, Name: "Free", CloneLimit: 1, DomainLimit: 1},
		{Slug: PlanBronze, Name: "Bronze", CloneLimit: 5, DomainLimit: 3, PriceCents: 1900, ExtraClonePriceCents: 500, HasEmailAlerts: true},
		{Slug: PlanSilver, Name: "Silver", CloneLimit: 15, DomainLimit: 10, PriceCents: 4900, ExtraClonePriceCents: 400, HasEmailAlerts: true},
		{Slug: PlanGold, Name: "Gold", CloneLimit: 50, DomainLimit: 25, PriceCents: 9900, ExtraClonePriceCents: 300, HasEmailAlerts: true, HasAPIAccess: true},
		{Slug: PlanDiamond, Name: "Diamond", CloneLimit: 200, DomainLimit: 100, PriceCents: 24900, ExtraClonePriceCents: 200, HasEmailAlerts: true, HasAPIAccess: true},
	}
}
