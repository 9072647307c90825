// Package jobstate is the single owned store object consumers talk to. It
// composes the listing, the bookmark set and the shared status surface, and
// is the only way either of them is mutated.
package jobstate

import (
	"context"
	"log/slog"
	"time"

	"jobmate/listing-service/internal/bookmark"
	"jobmate/listing-service/internal/kvstore"
	"jobmate/listing-service/internal/listing"
	"jobmate/listing-service/internal/model"
	"jobmate/listing-service/internal/status"
)

// State owns the listing, the bookmarks and their status surface.
type State struct {
	status    *status.Surface
	listing   *listing.Listing
	bookmarks *bookmark.Store
	ready     chan struct{}
}

// New builds a State reading pages from source and persisting bookmarks in kv.
func New(source listing.PageSource, kv kvstore.Store, opts bookmark.Options) *State {
	st := &status.Surface{}
	return &State{
		status:    st,
		listing:   listing.New(source, st),
		bookmarks: bookmark.New(kv, st, opts),
		ready:     make(chan struct{}),
	}
}

// Start runs the initial bookmark load and closes Ready when it finishes.
// A failed load leaves an empty set and the error slot set; the error is
// returned for logging only.
func (s *State) Start(ctx context.Context) error {
	defer close(s.ready)
	err := s.bookmarks.Load(ctx)
	if err != nil {
		slog.Warn("initial bookmark load failed", "err", err)
	}
	return err
}

// Ready is closed once the initial bookmark load has finished.
func (s *State) Ready() <-chan struct{} { return s.ready }

// Loaded reports whether membership answers are authoritative yet.
func (s *State) Loaded() bool { return s.bookmarks.Loaded() }

// ─── Queries ──────────────────────────────────────────────────────────────────

func (s *State) Bookmarks() []model.Job { return s.bookmarks.Bookmarks() }

func (s *State) Jobs() []model.Job { return s.listing.Jobs() }

func (s *State) Page() int { return s.listing.Page() }

func (s *State) Loading() bool { return s.status.Loading() }

func (s *State) Error() string { return s.status.Err() }

func (s *State) IsBookmarked(id model.JobID) bool { return s.bookmarks.IsBookmarked(id) }

// ─── Operations ───────────────────────────────────────────────────────────────

// FetchJobs loads page; page 1 replaces the listing and later pages append.
func (s *State) FetchJobs(ctx context.Context, page int) error {
	return s.listing.FetchPage(ctx, page)
}

// LoadMoreJobs fetches the page after the last successful one.
func (s *State) LoadMoreJobs(ctx context.Context) error {
	return s.listing.LoadMore(ctx)
}

// ToggleBookmark adds or removes job and reports whether it is now bookmarked.
func (s *State) ToggleBookmark(ctx context.Context, job model.Job) (bool, error) {
	return s.bookmarks.Toggle(ctx, job)
}

// ClearBookmarks removes every bookmark if c accepts the prompt.
func (s *State) ClearBookmarks(ctx context.Context, c bookmark.Confirmer) (bool, error) {
	return s.bookmarks.Clear(ctx, c)
}

// VerifyAndRepairBookmarks restores the primary bookmark key from its backup
// when the primary is missing.
func (s *State) VerifyAndRepairBookmarks(ctx context.Context) ([]model.Job, error) {
	return s.bookmarks.VerifyAndRepair(ctx)
}

// ─── Snapshot ─────────────────────────────────────────────────────────────────

// Snapshot is a point-in-time view for rendering.
type Snapshot struct {
	Jobs       []model.Job `json:"jobs"`
	Bookmarks  []model.Job `json:"bookmarks"`
	Page       int         `json:"page"`
	Loading    bool        `json:"loading"`
	Error      string      `json:"error,omitempty"`
	Loaded     bool        `json:"loaded"`
	CapturedAt time.Time   `json:"capturedAt"`
}

// Snapshot copies the current state. Slices are fresh; job records are shared
// and must not be modified.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Jobs:       s.listing.Jobs(),
		Bookmarks:  s.bookmarks.Bookmarks(),
		Page:       s.listing.Page(),
		Loading:    s.status.Loading(),
		Error:      s.status.Err(),
		Loaded:     s.bookmarks.Loaded(),
		CapturedAt: time.Now().UTC(),
	}
}
