package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// AllowedDomain is a whitelist entry owned by a user. Domains are stored
// lowercase without scheme or "www." prefix. Entries are deactivated rather
// than deleted so the authorization trail stays auditable; inactive entries
// never authorize a reporting domain.
type AllowedDomain struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:ux_allowed_domains_user_domain,priority:1" json:"user_id" validate:"required,uuid4"`
	Domain    string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_allowed_domains_user_domain,priority:2" json:"domain" validate:"required,fqdn,max=255"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *AllowedDomain) Validate() error {
	v := validator.New()

	return v.Struct(d)
}
