package db

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func TestNewSQLiteDBInitializesSchema(t *testing.T) {
	tempDir := t.TempDir()

	database, err := NewSQLiteDB(tempDir)
	if err != nil {
		t.Fatalf("init sqlite failed: %v", err)
	}
	defer database.Close()

	for _, table := range []string{"projects", "notes", "tasks", "tags", "task_tags"} {
		var name string
		err := database.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}

	var versionText string
	if err := database.Conn().QueryRow(`SELECT value FROM schema_meta WHERE key = 'schema_version'`).Scan(&versionText); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if versionText != "2" {
		t.Fatalf("unexpected schema version: %s", versionText)
	}
}

func TestNewSQLiteDBReopensExistingDatabase(t *testing.T) {
	tempDir := t.TempDir()

	first, err := NewSQLiteDB(tempDir)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if _, err := first.Conn().Exec(`INSERT INTO projects (id, title, status, created_at, updated_at) VALUES ('proj-1', 'Home', 'active', 1, 1)`); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	second, err := NewSQLiteDB(tempDir)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	defer second.Close()

	var title string
	if err := second.Conn().QueryRow(`SELECT title FROM projects WHERE id = 'proj-1'`).Scan(&title); err != nil {
		t.Fatalf("read project back: %v", err)
	}
	if title != "Home" {
		t.Fatalf("unexpected title: %s", title)
	}
}

func TestNewSQLiteDBReturnsLockErrorWhenSchemaLocked(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "clarity.db")

	lockedConn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open lock connection: %v", err)
	}
	defer lockedConn.Close()

	if _, err := lockedConn.Exec(`CREATE TABLE IF NOT EXISTS lock_probe(id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("create lock table: %v", err)
	}

	if _, err := lockedConn.Exec(`BEGIN EXCLUSIVE`); err != nil {
		t.Fatalf("acquire exclusive lock: %v", err)
	}
	defer func() {
		_, _ = lockedConn.Exec(`ROLLBACK`)
	}()

	if _, err := lockedConn.Exec(`INSERT INTO lock_probe(value) VALUES('hold')`); err != nil {
		t.Fatalf("hold write lock: %v", err)
	}

	_, err = NewSQLiteDB(tempDir)
	if err == nil {
		t.Fatal("expected lock error, got nil")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "locked") {
		t.Fatalf("expected lock error, got: %v", err)
	}
}
