package index

import (
	"path/filepath"
	"testing"
)

func TestGetSessionByKeyNotFound(t *testing.T) {
	db := openTestDB(t)

	row, err := db.GetSessionByKey("claude:missing")
	if err != nil {
		t.Fatalf("GetSessionByKey: %v", err)
	}
	if row != nil {
		t.Errorf("got %+v, want nil", row)
	}
}

func TestIndexVersionMigrationClearsMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}

	_, err = db.Raw().Exec(
		"INSERT INTO sessions (session_key, agent, session_id, discovered) VALUES (?, ?, ?, ?)",
		"claude:s1", "claude", "s1", "2024-03-01T10:00:00Z",
	)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Same version: marker survives reopen.
	db.Close()
	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	marker, err := db.DiscoveredMarker("claude:s1")
	if err != nil {
		t.Fatalf("DiscoveredMarker: %v", err)
	}
	if marker != "2024-03-01T10:00:00Z" {
		t.Errorf("marker cleared on same-version reopen: %q", marker)
	}

	// Stale version: markers are wiped so everything re-indexes.
	if _, err := db.Raw().Exec("UPDATE meta SET value = '0' WHERE key = 'index_version'"); err != nil {
		t.Fatalf("downgrade version: %v", err)
	}
	db.Close()
	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	marker, err = db.DiscoveredMarker("claude:s1")
	if err != nil {
		t.Fatalf("DiscoveredMarker: %v", err)
	}
	if marker != "" {
		t.Errorf("marker = %q, want cleared", marker)
	}
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Raw().Exec(
		"INSERT INTO sessions (session_key, agent, session_id) VALUES (?, ?, ?)",
		"claude:s1", "claude", "s1",
	); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if _, err := db.Raw().Exec(
		"INSERT INTO messages (session_key, seq, role, content) VALUES (?, 0, 'user', 'hi')",
		"claude:s1",
	); err != nil {
		t.Fatalf("insert message: %v", err)
	}

	if err := db.DeleteSession("claude:s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if n, _ := db.SessionCount(); n != 0 {
		t.Errorf("sessions = %d, want 0", n)
	}
	if n, _ := db.MessageCount(); n != 0 {
		t.Errorf("messages = %d, want 0", n)
	}
}
