package prefs

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Preference keys. The daemon owns the schema: everything is stored as text
// and surfaced through the typed accessors below.
const (
	KeyNotificationPreviewMode = "notification_preview_mode"
	KeyPrivacyAcceptImages     = "privacy_accept_images"
	KeyCallOnLockScreen        = "call_on_lock_screen"
	KeyNetworkTCPTimeout       = "network_tcp_timeout_ms"
	KeyNetworkConnectTimeout   = "network_connect_timeout_ms"
	KeyChatItemTTL             = "chat_item_ttl_seconds"
	KeyEncryptionStartedAt     = "encryption_started_at"
)

// Store exposes typed accessors over the persisted key/value table.
// Reads fall back to the supplied default when the key is absent.
type Store struct {
	db *DB
}

// NewStore creates a preference store over an opened database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read pref %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO prefs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write pref %s: %w", key, err)
	}
	return nil
}

// GetString returns the stored value for key, or def when absent.
func (s *Store) GetString(key, def string) string {
	v, ok, err := s.get(key)
	if err != nil || !ok {
		return def
	}
	return v
}

// SetString stores value under key.
func (s *Store) SetString(key, value string) error {
	return s.set(key, value)
}

// GetBool returns the stored boolean for key, or def when absent.
func (s *Store) GetBool(key string, def bool) bool {
	v, ok, err := s.get(key)
	if err != nil || !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SetBool stores a boolean under key.
func (s *Store) SetBool(key string, value bool) error {
	return s.set(key, strconv.FormatBool(value))
}

// GetInt returns the stored int for key, or def when absent.
func (s *Store) GetInt(key string, def int) int {
	v, ok, err := s.get(key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// SetInt stores an int under key.
func (s *Store) SetInt(key string, value int) error {
	return s.set(key, strconv.Itoa(value))
}

// GetInt64 returns the stored int64 for key, or def when absent.
func (s *Store) GetInt64(key string, def int64) int64 {
	v, ok, err := s.get(key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// SetInt64 stores an int64 under key.
func (s *Store) SetInt64(key string, value int64) error {
	return s.set(key, strconv.FormatInt(value, 10))
}

// GetTime returns the stored instant for key, or the zero time when absent.
func (s *Store) GetTime(key string) time.Time {
	v, ok, err := s.get(key)
	if err != nil || !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// SetTime stores an instant under key.
func (s *Store) SetTime(key string, value time.Time) error {
	return s.set(key, value.UTC().Format(time.RFC3339Nano))
}

// SetTimeSync stores an instant and forces the write to disk before
// returning. Used for the encryption-started flag, which must survive a
// crash between starting and finishing a storage re-encryption.
func (s *Store) SetTimeSync(key string, value time.Time) error {
	if err := s.SetTime(key, value); err != nil {
		return err
	}
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(FULL)`); err != nil {
		return fmt.Errorf("checkpoint pref %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM prefs WHERE key = ?`, key)
	return err
}
