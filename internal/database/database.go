package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Connect opens a SQLite database using the provided DSN.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return db, nil
}
