// Package bookmark maintains the user's bookmarked jobs and keeps them in
// durable storage with a redundant backup copy.
//
// The bookmark set is loaded once at startup, changed only through Toggle
// and Clear, and written to both the primary and backup keys after every
// change. Corrupted primary data is deleted and the load retried once.
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmate/listing-service/internal/kvstore"
	"jobmate/listing-service/internal/model"
	"jobmate/listing-service/internal/status"
)

// User-facing messages placed on the shared error slot.
const (
	LoadErrorMessage   = "Failed to load bookmarks"
	SaveErrorMessage   = "Failed to save bookmarks"
	ClearErrorMessage  = "Failed to clear bookmarks"
	RepairErrorMessage = "Failed to verify bookmarks"
)

// Default storage keys.
const (
	DefaultPrimaryKey = "bookmarks"
	DefaultBackupKey  = "bookmarks_backup"
)

// maxCorruptionRetries bounds the delete-and-reload cycle in Load.
const maxCorruptionRetries = 1

// ValidationError wraps a rejected input.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Options configures a Store. Zero values select the defaults.
type Options struct {
	PrimaryKey string
	BackupKey  string
	// ClearBackup makes Clear delete the backup key too. Off by default:
	// the backup then survives Clear and VerifyAndRepair can restore it.
	ClearBackup bool
	Haptics     Haptics
	Notifier    Notifier
	Now         func() time.Time
}

// Store owns the bookmark set.
type Store struct {
	kv          kvstore.Store
	status      *status.Surface
	primaryKey  string
	backupKey   string
	clearBackup bool
	haptics     Haptics
	notifier    Notifier
	now         func() time.Time

	// writeMu serializes every operation that touches storage so the
	// persisted bundle always reflects the latest in-memory set.
	writeMu sync.Mutex

	mu     sync.RWMutex
	jobs   []model.Job
	loaded bool
}

// New returns an empty, not-yet-loaded Store.
func New(kv kvstore.Store, st *status.Surface, opts Options) *Store {
	s := &Store{
		kv:          kv,
		status:      st,
		primaryKey:  opts.PrimaryKey,
		backupKey:   opts.BackupKey,
		clearBackup: opts.ClearBackup,
		haptics:     opts.Haptics,
		notifier:    opts.Notifier,
		now:         opts.Now,
		jobs:        []model.Job{},
	}
	if s.primaryKey == "" {
		s.primaryKey = DefaultPrimaryKey
	}
	if s.backupKey == "" {
		s.backupKey = DefaultBackupKey
	}
	if s.haptics == nil {
		s.haptics = NoopHaptics{}
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ─── Initial load ─────────────────────────────────────────────────────────────

// Load reads the primary bundle into memory. Corrupted data is deleted and
// the read retried once; if that fails too the set is left empty and the
// error slot set. A storage read failure is not retried. Load never consults
// the backup key.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.status.Begin(status.SourceBookmarks)
	defer s.status.End(status.SourceBookmarks)
	s.status.ClearError()

	var lastErr error
	for attempt := 0; attempt <= maxCorruptionRetries; attempt++ {
		jobs, err := s.read(ctx, s.primaryKey)
		if err == nil {
			s.replace(jobs)
			slog.Info("bookmarks loaded", "count", len(jobs), "attempt", attempt+1)
			return nil
		}
		lastErr = err
		if !errors.Is(err, ErrCorrupted) {
			break
		}

		slog.Warn("bookmark data corrupted", "key", s.primaryKey, "attempt", attempt+1, "err", err)
		if attempt == maxCorruptionRetries {
			break
		}
		if derr := s.kv.Delete(ctx, s.primaryKey); derr != nil {
			slog.Warn("delete corrupted bookmarks failed", "key", s.primaryKey, "err", derr)
		}
	}

	s.replace(nil)
	s.status.SetError(LoadErrorMessage)
	return fmt.Errorf("load bookmarks: %w", lastErr)
}

// read returns the decoded jobs stored under key; a missing key is an empty set.
func (s *Store) read(ctx context.Context, key string) ([]model.Job, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if raw == nil {
		return []model.Job{}, nil
	}
	return decodeBundle(raw)
}

// ─── Mutations ────────────────────────────────────────────────────────────────

// Toggle removes job if it is bookmarked and adds it otherwise, then
// persists the new set. It reports whether the job is bookmarked afterwards.
// A persistence failure sets the error slot but does not undo the change.
func (s *Store) Toggle(ctx context.Context, job model.Job) (bool, error) {
	id, ok := job.ID()
	if !ok {
		s.status.SetError(SaveErrorMessage)
		return false, &ValidationError{Msg: "job has no usable id"}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := make([]model.Job, 0, len(s.jobs)+1)
	added := true
	for _, j := range s.jobs {
		if jid, _ := j.ID(); jid == id {
			added = false
			continue
		}
		next = append(next, j)
	}
	if added {
		next = append(next, job.Clone())
	}
	s.jobs = next
	snapshot := append([]model.Job(nil), next...)
	s.mu.Unlock()

	s.feedback(ctx, HapticImpact)
	if added {
		s.notify(ctx, Notification{
			ID:        uuid.NewString(),
			Kind:      NotificationBookmarkAdded,
			JobID:     id,
			Title:     job.Text("title"),
			Message:   "Job added to bookmarks",
			CreatedAt: s.now().UTC(),
		})
	}

	if err := s.save(ctx, snapshot); err != nil {
		return added, err
	}
	s.status.ClearError()
	return added, nil
}

// Clear removes every bookmark once the user accepts ClearPrompt. Declining
// is a no-op. Only the primary key is deleted unless Options.ClearBackup is
// set. It reports whether the set was cleared.
func (s *Store) Clear(ctx context.Context, c Confirmer) (bool, error) {
	if c == nil {
		return false, &ValidationError{Msg: "clear requires a confirmer"}
	}
	ok, err := c.Confirm(ctx, ClearPrompt)
	if err != nil {
		return false, fmt.Errorf("confirm clear: %w", err)
	}
	if !ok {
		return false, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.kv.Delete(ctx, s.primaryKey); err != nil {
		s.status.SetError(ClearErrorMessage)
		return false, fmt.Errorf("delete %s: %w", s.primaryKey, err)
	}
	if s.clearBackup {
		if err := s.kv.Delete(ctx, s.backupKey); err != nil {
			s.status.SetError(ClearErrorMessage)
			return false, fmt.Errorf("delete %s: %w", s.backupKey, err)
		}
	} else {
		slog.Warn("bookmarks cleared but backup retained; VerifyAndRepair will restore it",
			"backupKey", s.backupKey)
	}

	s.replace(nil)
	s.feedback(ctx, HapticWarning)
	s.status.ClearError()
	return true, nil
}

// ─── Queries ──────────────────────────────────────────────────────────────────

// IsBookmarked reports whether id is in the set.
func (s *Store) IsBookmarked(id model.JobID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if jid, _ := j.ID(); jid == id {
			return true
		}
	}
	return false
}

// Bookmarks returns a copy of the current set.
func (s *Store) Bookmarks() []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Loaded reports whether the initial load has finished, successfully or not.
// Membership answers are authoritative only after that.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func (s *Store) replace(jobs []model.Job) {
	if jobs == nil {
		jobs = []model.Job{}
	}
	s.mu.Lock()
	s.jobs = jobs
	s.loaded = true
	s.mu.Unlock()
}

func (s *Store) feedback(ctx context.Context, style HapticStyle) {
	if err := s.haptics.Feedback(ctx, style); err != nil {
		slog.Debug("haptic feedback failed", "style", style, "err", err)
	}
}

func (s *Store) notify(ctx context.Context, n Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		slog.Warn("bookmark notification failed", "jobId", n.JobID, "err", err)
	}
}
