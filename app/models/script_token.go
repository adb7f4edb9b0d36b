package models

import "time"

// ScriptToken is the persisted reverse lookup for legacy script ids
// (fx_<12 hex>). The token is deterministic per user, so rows are written
// once at issuance and the O(n) recompute scan stays a last resort.
type ScriptToken struct {
	Token     string    `gorm:"type:varchar(15);primaryKey" json:"token"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
