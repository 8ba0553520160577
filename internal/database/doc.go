// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, lookup seeding
//	├── books/           # Catalog CRUD and review aggregates
//	├── genres/          # Genre listing and creation
//	├── reviews/         # Review submission and the moderation workflow
//	└── users/           # Accounts and roles
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase(cfg.Database)
//
//	// Create domain-specific repositories
//	booksRepo := books.NewRepository(db.DB)
//	reviewsRepo := reviews.NewRepository(db.DB)
//
//	// Use repositories
//	book, err := booksRepo.GetByID(123)
//
// # Transactions
//
// Write methods take an explicit *gorm.DB transaction handle as their first
// argument. The HTTP handler opens the transaction with db.DB.Transaction and
// is the only place that commits or rolls back; repositories never do either.
// Reads run on the repository's own handle.
//
// # Adding a New Domain
//
// To add a new domain:
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Give write methods a tx *gorm.DB first parameter
package database
