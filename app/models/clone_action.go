package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ActionTypeRedirect      = "redirect"
	ActionTypeBlankPage     = "blank_page"
	ActionTypeCustomMessage = "custom_message"
)

// TriggerParams maps a marketing query parameter name (fbclid, gclid,
// utm_source, ...) to an enabled flag. Stored as a JSON column.
type TriggerParams map[string]bool

func (t TriggerParams) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *TriggerParams) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for TriggerParams")
	}
	if len(raw) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(raw, t)
}

// Enabled returns the names of all parameters switched on.
func (t TriggerParams) Enabled() []string {
	names := make([]string, 0, len(t))
	for name, on := range t {
		if on {
			names = append(names, name)
		}
	}
	return names
}

// CloneAction is a configured countermeasure. A nil CloneID makes the action
// global, applying to every detected clone of the user.
type CloneAction struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	UserID             string        `gorm:"type:char(36);not null;index" json:"user_id" validate:"required,uuid4"`
	CloneID            *uint         `gorm:"index" json:"clone_id"`
	ActionType         string        `gorm:"type:varchar(20);not null" json:"action_type" validate:"oneof=redirect blank_page custom_message"`
	RedirectURL        string        `gorm:"type:varchar(2048)" json:"redirect_url" validate:"omitempty,url,max=2048"`
	CustomMessage      string        `gorm:"type:text" json:"custom_message"`
	RedirectPercentage int           `gorm:"not null;default:100" json:"redirect_percentage" validate:"min=0,max=100"`
	TriggerParams      TriggerParams `gorm:"type:json" json:"trigger_params"`
	IsActive           bool          `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *CloneAction) Validate() error {
	v := validator.New()

	if err := v.Struct(a); err != nil {
		return err
	}
	if a.ActionType == ActionTypeRedirect && a.RedirectURL == "" {
		return errors.New("redirect actions require a redirect_url")
	}
	return nil
}
