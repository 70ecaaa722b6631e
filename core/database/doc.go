// Package database handles database connections for the sync pipeline.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly
// configure MySQL connections based on the application's configuration, and an
// SQLite mode used by the test suites.
//
// # Connect
//
// The generic Connect function establishes a connection to the database. It is
// agnostic to the catalog schema; table definitions live in feature/catalog.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
