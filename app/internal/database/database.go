package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB is the global database instance
var DB *sql.DB

// ErrSchemaNotProvisioned marks a storage failure caused by an aggregate
// table that has not been created yet. Callers treat it as "no data",
// never as a hard error.
var ErrSchemaNotProvisioned = errors.New("schema not provisioned")

// Init initializes the database connection and creates schema
func Init(dbPath string) error {
	var err error
	DB, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	return EnsureSchema()
}

// Classify maps backend-specific storage errors onto the sentinel kinds
// this application understands. Business logic must never inspect driver
// error strings itself; every store access goes through this.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %v", ErrSchemaNotProvisioned, err)
	}
	return err
}
