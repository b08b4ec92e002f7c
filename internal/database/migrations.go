package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration is one step in the ordered schema chain. Down must undo Up.
type Migration struct {
	Name string
	Up   string
	Down string
}

// migrations is the linear migration chain. Applied steps are tracked in the
// schema_version table; each step runs in its own transaction.
var migrations = []Migration{
	{
		Name: "create posts table",
		Up: `
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL
);`,
		Down: `DROP TABLE posts;`,
	},
	{
		Name: "create users table",
		Up: `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`,
		Down: `DROP TABLE users;`,
	},
	{
		// SQLite cannot add a foreign key to an existing table, so the
		// posts table is rebuilt.
		Name: "add relation between users and posts",
		Up: `
CREATE TABLE posts_new (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
);
INSERT INTO posts_new (id, title, content, owner_id) SELECT id, title, content, 0 FROM posts;
DROP TABLE posts;
ALTER TABLE posts_new RENAME TO posts;`,
		Down: `
CREATE TABLE posts_old (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL
);
INSERT INTO posts_old (id, title, content) SELECT id, title, content FROM posts;
DROP TABLE posts;
ALTER TABLE posts_old RENAME TO posts;`,
	},
	{
		Name: "add published and created_at to posts",
		Up: `
ALTER TABLE posts ADD COLUMN published INTEGER NOT NULL DEFAULT 1;
ALTER TABLE posts ADD COLUMN created_at INTEGER NOT NULL DEFAULT 0;`,
		Down: `
ALTER TABLE posts DROP COLUMN created_at;
ALTER TABLE posts DROP COLUMN published;`,
	},
	{
		Name: "create votes table",
		Up: `
CREATE TABLE votes (
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, post_id)
);`,
		Down: `DROP TABLE votes;`,
	},
}

// Migrate applies all pending migrations in order.
func Migrate(db *sql.DB) error {
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	current, err := currentVersion(db)
	if err != nil {
		return err
	}
	for i := current; i < len(migrations); i++ {
		m := migrations[i]
		if err := applyStep(db, m.Up, func(tx *sql.Tx) error {
			_, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)", i+1, time.Now().Unix())
			return err
		}); err != nil {
			return fmt.Errorf("migration %q: %w", m.Name, err)
		}
	}
	return nil
}

// MigrateDown reverses the last n applied migrations, newest first.
func MigrateDown(db *sql.DB, n int) error {
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	current, err := currentVersion(db)
	if err != nil {
		return err
	}
	for i := 0; i < n && current > 0; i++ {
		m := migrations[current-1]
		version := current
		if err := applyStep(db, m.Down, func(tx *sql.Tx) error {
			_, err := tx.Exec("DELETE FROM schema_version WHERE version = ?", version)
			return err
		}); err != nil {
			return fmt.Errorf("revert migration %q: %w", m.Name, err)
		}
		current--
	}
	return nil
}

// Version reports the number of applied migrations.
func Version(db *sql.DB) (int, error) {
	if err := ensureVersionTable(db); err != nil {
		return 0, err
	}
	return currentVersion(db)
}

func ensureVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);`)
	return err
}

func currentVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}

func applyStep(db *sql.DB, stmt string, record func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(stmt); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
