package prefs

import (
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestStringRoundTrip(t *testing.T) {
	s := testStore(t)

	if got := s.GetString(KeyNotificationPreviewMode, "message"); got != "message" {
		t.Errorf("default = %q, want message", got)
	}
	if err := s.SetString(KeyNotificationPreviewMode, "hidden"); err != nil {
		t.Fatal(err)
	}
	if got := s.GetString(KeyNotificationPreviewMode, "message"); got != "hidden" {
		t.Errorf("GetString = %q, want hidden", got)
	}
}

func TestBoolDefaultAndOverwrite(t *testing.T) {
	s := testStore(t)

	if !s.GetBool(KeyPrivacyAcceptImages, true) {
		t.Error("default true not returned")
	}
	if err := s.SetBool(KeyPrivacyAcceptImages, false); err != nil {
		t.Fatal(err)
	}
	if s.GetBool(KeyPrivacyAcceptImages, true) {
		t.Error("stored false not returned")
	}
	if err := s.SetBool(KeyPrivacyAcceptImages, true); err != nil {
		t.Fatal(err)
	}
	if !s.GetBool(KeyPrivacyAcceptImages, false) {
		t.Error("overwrite to true not returned")
	}
}

func TestIntAndInt64(t *testing.T) {
	s := testStore(t)

	if got := s.GetInt(KeyNetworkTCPTimeout, 5000); got != 5000 {
		t.Errorf("default = %d, want 5000", got)
	}
	if err := s.SetInt(KeyNetworkTCPTimeout, 7000); err != nil {
		t.Fatal(err)
	}
	if got := s.GetInt(KeyNetworkTCPTimeout, 5000); got != 7000 {
		t.Errorf("GetInt = %d, want 7000", got)
	}

	if err := s.SetInt64(KeyChatItemTTL, 86400); err != nil {
		t.Fatal(err)
	}
	if got := s.GetInt64(KeyChatItemTTL, 0); got != 86400 {
		t.Errorf("GetInt64 = %d, want 86400", got)
	}
}

func TestMalformedValueFallsBackToDefault(t *testing.T) {
	s := testStore(t)

	if err := s.SetString(KeyNetworkTCPTimeout, "not-a-number"); err != nil {
		t.Fatal(err)
	}
	if got := s.GetInt(KeyNetworkTCPTimeout, 5000); got != 5000 {
		t.Errorf("GetInt on malformed value = %d, want default 5000", got)
	}
}

func TestTimeSyncSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	s := NewStore(db)

	started := time.Now().UTC().Truncate(time.Millisecond)
	if err := s.SetTimeSync(KeyEncryptionStartedAt, started); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db2.Close() }()
	s2 := NewStore(db2)

	got := s2.GetTime(KeyEncryptionStartedAt)
	if !got.Equal(started) {
		t.Errorf("GetTime = %v, want %v", got, started)
	}
}

func TestDeleteMissingKey(t *testing.T) {
	s := testStore(t)
	if err := s.Delete("no-such-key"); err != nil {
		t.Errorf("Delete missing key error = %v", err)
	}
}
