package models

import "time"

// DetectionLog is the append-only audit trail: one row per reported ping,
// whether the ping created a clone record or only bumped an existing one.
// CloneID stays nullable because a log row may be written for pings whose
// clone upsert did not yield a record.
type DetectionLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;index" json:"user_id"`
	CloneID   *uint     `gorm:"index" json:"clone_id"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string    `gorm:"type:varchar(512)" json:"user_agent"`
	Referrer  string    `gorm:"type:varchar(2048)" json:"referrer"`
	PageURL   string    `gorm:"type:varchar(2048)" json:"page_url"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
