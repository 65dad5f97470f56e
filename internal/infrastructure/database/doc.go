// Package database provides the SQLite store behind the relay's session
// audit log.
//
// The database is optional: the relay runs without one and only opens it
// when database.enabled is set. Open configures WAL mode and a busy
// timeout, and Migrate applies versioned SQL files from any fs.FS, which
// the migrations package embeds into the binary.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are nullable or carry a default,
// and each .up.sql has a matching .down.sql.
package database
