package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// OriginalDomainUnknown is stored when a clone is detected before the owner
// configured any allowed domain.
const OriginalDomainUnknown = "domain-not-configured"

// PageStat is a per-slug visitor aggregate reported by the tracking snippet.
type PageStat struct {
	Slug           string `json:"slug"`
	UniqueVisitors int64  `json:"unique_visitors"`
	TotalVisits    int64  `json:"total_visits"`
}

// PageStats is stored as a JSON column and merged cumulatively on every
// detection that carries aggregate data.
type PageStats []PageStat

func (p PageStats) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *PageStats) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for PageStats")
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Merge folds incoming per-slug aggregates into the existing stats without
// losing slugs that were only present on one side.
func (p PageStats) Merge(incoming PageStats) PageStats {
	if len(incoming) == 0 {
		return p
	}
	merged := make(PageStats, 0, len(p)+len(incoming))
	index := make(map[string]int, len(p))
	for _, s := range p {
		index[s.Slug] = len(merged)
		merged = append(merged, s)
	}
	for _, s := range incoming {
		if i, ok := index[s.Slug]; ok {
			merged[i].UniqueVisitors += s.UniqueVisitors
			merged[i].TotalVisits += s.TotalVisits
			continue
		}
		index[s.Slug] = len(merged)
		merged = append(merged, s)
	}
	return merged
}

// DetectedClone is the single record kept per (user, clone domain) pair.
// Detection pings upsert this row: the counter and last-seen timestamp move,
// a second row is never created. Rows are deactivated administratively, not
// deleted by the pipeline.
type DetectedClone struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"type:char(36);not null;uniqueIndex:ux_detected_clones_user_domain,priority:1" json:"user_id"`
	CloneDomain    string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_detected_clones_user_domain,priority:2" json:"clone_domain"`
	OriginalDomain string    `gorm:"type:varchar(255);not null" json:"original_domain"`
	DetectionCount int64     `gorm:"not null;default:1" json:"detection_count"`
	FirstDetected  time.Time `gorm:"not null" json:"first_detected"`
	LastSeen       time.Time `gorm:"not null" json:"last_seen"`
	IsActive       bool      `gorm:"not null;default:true;index" json:"is_active"`
	PageStats      PageStats `gorm:"type:json" json:"page_stats,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
