package database

import (
	"errors"
	"os"

	"patisserie-backend/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=patisserie port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Ensure PostgreSQL has gen_random_uuid() available (pgcrypto extension).
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return err
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.Order{},
		&models.OrderItem{},
		&models.Banner{},
		&models.Notification{},
		&models.TimeSettings{},
	)
}

func CreateDefaultAdmin(db *gorm.DB) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" {
		adminEmail = "admin@lapatisserie.com"
	}
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	var existing models.User
	if err := db.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    adminEmail,
		Password: string(hashed),
		Role:     "admin",
		Name:     "Admin User",
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logrus.WithField("email", adminEmail).Info("default admin created")
	return nil
}

// EnsureTimeSettings returns the singleton shop-hours row, creating it
// with defaults on first read. SHOP_TIMEZONE overrides the default zone
// for the lazily created row only.
func EnsureTimeSettings(db *gorm.DB) (models.TimeSettings, error) {
	var settings models.TimeSettings
	err := db.Order("created_at asc").First(&settings).Error
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TimeSettings{}, err
	}

	settings = models.DefaultTimeSettings()
	if tz := os.Getenv("SHOP_TIMEZONE"); tz != "" {
		settings.Timezone = tz
	}
	if err := db.Create(&settings).Error; err != nil {
		// A concurrent first read may have created it; re-read before
		// giving up.
		var again models.TimeSettings
		if rerr := db.Order("created_at asc").First(&again).Error; rerr == nil {
			return again, nil
		}
		return models.TimeSettings{}, err
	}
	return settings, nil
}
