// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, error classification
//	├── publications/    # Persisted publications and import batches
//	├── drafts/          # Saved review sessions
//	├── settings/        # Application settings (key/value)
//	└── audit/           # Audit event trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type over the shared *gorm.DB:
//
//	db, err := database.NewDatabase("./pubimport.db")
//
//	pubs := publications.NewRepository(db.DB)
//	resp, err := pubs.ImportPublications(ctx, req)
//
//	prefs := settings.NewRepository(db.DB)
//	setting, err := prefs.GetSetting(entities.SettingKeyZoteroUserID)
//
// # Missing Tables
//
// Repositories pass driver errors through Classify, so a query against a
// table that does not exist surfaces as ErrTableNotFound. The HTTP layer
// turns that into a 503 with code TABLE_NOT_FOUND.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add the model to the AutoMigrate list in Open
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
