package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/internal/pkg/env"
)

var DB *gorm.DB

const maxRetries = 5
const retryDelay = 5 * time.Second

func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{
			// The clone registry relies on gorm.ErrDuplicatedKey to resolve
			// concurrent upserts of the same (user, domain) pair.
			TranslateError: true,
		})
		if err == nil {
			DB.AutoMigrate(
				&models.User{},
				&models.AllowedDomain{},
				&models.DetectedClone{},
				&models.DetectionLog{},
				&models.Plan{},
				&models.Subscription{},
				&models.CloneAction{},
				&models.ScriptToken{},
			)
			seedPlans(DB)

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// GetDB returns the shared database handle (nil before SetupDatabase ran).
func GetDB() *gorm.DB {
	return DB
}

// seedPlans inserts the plan reference data if the slugs are not present yet.
// Existing rows are left untouched so limits can be tuned in the database.
func seedPlans(db *gorm.DB) {
	for _, plan := range models.DefaultPlans() {
		p := plan
		if err := db.Where(models.Plan{Slug: p.Slug}).FirstOrCreate(&p).Error; err != nil {
			log.Printf("failed to seed plan %s: %v", plan.Slug, err)
		}
	}
}
