package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/claude/liftlog/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	// MaxSessionAge is the staleness threshold: a persisted session not
	// touched for longer than this is archived instead of resumed.
	MaxSessionAge = 24 * time.Hour

	// HistoryLimit bounds the archive; older entries are dropped.
	HistoryLimit = 10
)

// Store is the durable single-slot storage for the active workout session
// plus the bounded history archive. All read/write failures are logged and
// reported as "no data" rather than propagated: a corrupted slot must never
// take the session engine down with it.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// Open opens (or creates) the session database at dir/liftlog.db and applies
// pending migrations.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "liftlog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, log: log, now: time.Now}, nil
}

func runMigrations(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+dbPath)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stamps LastUpdated and overwrites the single slot. Last writer wins;
// there is no merge.
func (s *Store) Save(session *models.ActiveWorkoutSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(session)
}

func (s *Store) saveLocked(session *models.ActiveWorkoutSession) {
	session.LastUpdated = s.now()

	data, err := json.Marshal(session)
	if err != nil {
		s.log.Error("marshaling session", "error", err)
		return
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO active_session (slot, data, last_updated) VALUES (0, ?, ?)`,
		string(data), session.LastUpdated,
	)
	if err != nil {
		s.log.Error("saving session", "error", err)
	}
}

// Get returns the persisted session, or nil when the slot is empty, the
// stored blob is unreadable, or the session has gone stale. A stale session
// is moved into the history archive before nil is returned. An active nested
// rest timer has its remaining seconds recomputed from wall time; a timer
// that has already run out is cleared rather than returned negative.
func (s *Store) Get() *models.ActiveWorkoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked()
}

func (s *Store) getLocked() *models.ActiveWorkoutSession {
	var data string
	err := s.db.QueryRow(`SELECT data FROM active_session WHERE slot = 0`).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Error("reading session slot", "error", err)
		}
		return nil
	}

	var session models.ActiveWorkoutSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		s.log.Error("decoding stored session", "error", err)
		return nil
	}

	now := s.now()
	if now.Sub(session.LastUpdated) > MaxSessionAge {
		s.log.Info("discarding stale session", "id", session.ID, "last_updated", session.LastUpdated)
		s.archiveLocked(&session, models.ArchivedStale)
		s.clearLocked()
		return nil
	}

	if rt := session.RestTimer; rt != nil && rt.IsActive {
		elapsed := int(now.Sub(rt.StartTime).Seconds())
		remaining := rt.TotalSeconds - elapsed
		if remaining <= 0 {
			session.RestTimer = nil
		} else {
			rt.RemainingSeconds = remaining
		}
	}

	return &session
}

// Clear empties the single slot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) clearLocked() {
	if _, err := s.db.Exec(`DELETE FROM active_session WHERE slot = 0`); err != nil {
		s.log.Error("clearing session slot", "error", err)
	}
}

// HasActive reports whether a non-stale session is persisted.
func (s *Store) HasActive() bool {
	return s.Get() != nil
}

// Archive prepends the session to the history log and truncates the log to
// HistoryLimit entries.
func (s *Store) Archive(session *models.ActiveWorkoutSession, reason models.ArchiveReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archiveLocked(session, reason)
}

func (s *Store) archiveLocked(session *models.ActiveWorkoutSession, reason models.ArchiveReason) {
	data, err := json.Marshal(session)
	if err != nil {
		s.log.Error("marshaling session for archive", "error", err)
		return
	}

	_, err = s.db.Exec(
		`INSERT INTO session_history (data, reason, archived_at) VALUES (?, ?, ?)`,
		string(data), string(reason), s.now(),
	)
	if err != nil {
		s.log.Error("archiving session", "error", err)
		return
	}

	_, err = s.db.Exec(
		`DELETE FROM session_history WHERE id NOT IN (
			SELECT id FROM session_history ORDER BY archived_at DESC, id DESC LIMIT ?
		)`, HistoryLimit,
	)
	if err != nil {
		s.log.Error("trimming session history", "error", err)
	}
}

// History returns archived sessions, most recent first. Read failures yield
// an empty list.
func (s *Store) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT data, reason, archived_at FROM session_history
		 ORDER BY archived_at DESC, id DESC LIMIT ?`, HistoryLimit,
	)
	if err != nil {
		s.log.Error("reading session history", "error", err)
		return []models.HistoryEntry{}
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var (
			data   string
			reason string
			at     time.Time
		)
		if err := rows.Scan(&data, &reason, &at); err != nil {
			s.log.Error("scanning history entry", "error", err)
			return []models.HistoryEntry{}
		}

		var session models.ActiveWorkoutSession
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			s.log.Error("decoding history entry", "error", err)
			continue
		}
		entries = append(entries, models.HistoryEntry{
			Session:    session,
			Reason:     models.ArchiveReason(reason),
			ArchivedAt: at,
		})
	}
	if err := rows.Err(); err != nil {
		s.log.Error("reading session history", "error", err)
		return []models.HistoryEntry{}
	}
	return entries
}

// UpdateTimer is a read-modify-write wrapper that persists the current
// duration and timer activity. Activating resets the resume origin;
// deactivating folds the duration into the accumulator.
func (s *Store) UpdateTimer(durationSeconds int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getLocked()
	if session == nil {
		return
	}

	session.Duration = durationSeconds
	session.TimerActive = active
	if active {
		session.LastResumeTime = s.now()
		session.AccumulatedSeconds = durationSeconds
	} else {
		session.AccumulatedSeconds = durationSeconds
		session.LastResumeTime = time.Time{}
	}
	s.saveLocked(session)
}

// UpdateRestTimer is a read-modify-write wrapper that replaces (or clears,
// when rt is nil) the nested rest timer.
func (s *Store) UpdateRestTimer(rt *models.RestTimer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getLocked()
	if session == nil {
		return
	}
	session.RestTimer = rt
	s.saveLocked(session)
}
