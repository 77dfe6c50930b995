// Package database opens and migrates the SQLite store behind the
// device registry.
//
// The connection runs in WAL mode with a busy timeout and foreign keys
// on, pinned to a single pooled connection so the registry and the
// migration runner never contend for the write lock. The database file
// is chmodded to 0600 after creation.
//
// Migrations are embedded .up.sql files registered by the migrations
// package at init and applied in version order, one transaction each.
// There is no down path: a bad schema change is corrected by the next
// migration.
//
//	db, err := database.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
