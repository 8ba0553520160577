package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/akulov/elib/internal/config"
	"github.com/akulov/elib/internal/entities"
)

var defaultRoles = []entities.Role{
	{Name: entities.RoleAdmin, Description: "Full catalog management and moderation"},
	{Name: entities.RoleModerator, Description: "Book editing and review moderation"},
	{Name: entities.RoleUser, Description: "Can browse the catalog and submit reviews"},
}

var reviewStatuses = []entities.ReviewStatus{
	{Name: entities.ReviewPending},
	{Name: entities.ReviewApproved},
	{Name: entities.ReviewRejected},
}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the configured backend, migrates the schema and seeds the
// fixed lookup rows (roles, review statuses).
func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Role{},
		&entities.User{},
		&entities.Cover{},
		&entities.Book{},
		&entities.Genre{},
		&entities.BookGenre{},
		&entities.ReviewStatus{},
		&entities.Review{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedLookups(); err != nil {
		return nil, fmt.Errorf("failed to seed lookup tables: %w", err)
	}

	log.Printf("Database initialized (%s)", cfg.Driver)

	return database, nil
}

func openDialector(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver selected but DATABASE_DSN is empty")
		}
		return postgres.Open(cfg.DSN), nil
	case config.DriverSQLite, "":
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// seedLookups inserts the fixed role and review-status rows if missing.
// Idempotent, runs on every startup.
func (d *Database) seedLookups() error {
	for _, role := range defaultRoles {
		var existing entities.Role
		result := d.DB.Where("name = ?", role.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&role).Error; err != nil {
				return fmt.Errorf("failed to create role %s: %w", role.Name, err)
			}
			log.Printf("Created role: %s", role.Name)
		}
	}

	for _, status := range reviewStatuses {
		var existing entities.ReviewStatus
		result := d.DB.Where("name = ?", status.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&status).Error; err != nil {
				return fmt.Errorf("failed to create review status %s: %w", status.Name, err)
			}
			log.Printf("Created review status: %s", status.Name)
		}
	}

	return nil
}
