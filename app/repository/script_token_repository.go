package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/falconx-app/FalconX/app/models"
)

// scriptTokenRepository implements the ScriptTokenRepository interface
type scriptTokenRepository struct {
	db *gorm.DB
}

// NewScriptTokenRepository creates a new script-token repository instance
func NewScriptTokenRepository(db *gorm.DB) ScriptTokenRepository {
	return &scriptTokenRepository{db: db}
}

// GetUserIDByToken resolves a legacy script id to its user id
func (r *scriptTokenRepository) GetUserIDByToken(token string) (string, error) {
	var row models.ScriptToken
	err := r.db.Where("token = ?", token).First(&row).Error
	if err != nil {
		return "", err
	}
	return row.UserID, nil
}

// Save persists the token -> user mapping. Tokens are deterministic per user,
// so repeated saves are a no-op.
func (r *scriptTokenRepository) Save(token, userID string) error {
	row := models.ScriptToken{Token: token, UserID: userID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}
