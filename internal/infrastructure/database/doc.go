// Package database provides SQLite persistence for Cathodic Core.
//
// It wraps database/sql with:
//
//   - Connection setup (WAL mode, busy timeout, foreign keys)
//   - Embedded schema migrations applied at startup
//   - Health checks for the readiness probe
//
// SQLite is configured with a single-writer connection pool, matching its
// locking model. Persisted state is limited to device settings snapshots
// and the command audit trail; all protocol state (pending commands,
// liveness records) is in-memory by design.
//
// # Usage
//
//	db, err := database.Open(database.Config{Path: "./data/cathodic.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
