// Package database handles database connections for the entity store.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) that
// configures MySQL or SQLite connections based on the application's
// configuration. MySQL is the production driver; SQLite exists for small
// single-host installs and for the behavioral test suites.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
