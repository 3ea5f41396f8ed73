package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

// Open opens the database at dbPath with foreign keys enforced. For Memory the
// pool is pinned to one connection, since every connection to :memory: is a
// separate database.
func Open(dbPath string) (*sql.DB, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("db path is required")
	}

	pragmas := []string{"PRAGMA foreign_keys=ON;"}
	dsn := dbPath
	if dbPath != Memory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbPath + "?_loc=Local"
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL;",
			"PRAGMA busy_timeout=3000;",
			"PRAGMA synchronous=NORMAL;",
		)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dbPath == Memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}
	return db, nil
}
