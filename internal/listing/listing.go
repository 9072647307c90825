package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"jobmate/listing-service/internal/model"
	"jobmate/listing-service/internal/status"
)

// FetchErrorMessage is the user-facing text set on any failed fetch.
const FetchErrorMessage = "Failed to fetch jobs. Please try again."

var (
	// ErrFetchInProgress is returned by FetchPage while another fetch runs.
	ErrFetchInProgress = errors.New("a job fetch is already in progress")
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page must be a positive integer")
)

// Listing is the Listing State: the page-accumulated jobs and the last
// successfully fetched page (0 before the first success).
//
// At most one fetch is in flight at a time; a second FetchPage is rejected
// with ErrFetchInProgress rather than racing the first.
type Listing struct {
	source PageSource
	status *status.Surface

	mu       sync.RWMutex
	jobs     []model.Job
	page     int
	inFlight bool
}

// New returns an empty Listing reading from source and reporting on st.
func New(source PageSource, st *status.Surface) *Listing {
	return &Listing{source: source, status: st, jobs: []model.Job{}}
}

// FetchPage loads one page. Page 1 replaces the current jobs, later pages
// append. On failure the jobs and page are left untouched and the shared
// error slot is set.
func (l *Listing) FetchPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidPage, page)
	}

	l.mu.Lock()
	if l.inFlight {
		l.mu.Unlock()
		return ErrFetchInProgress
	}
	l.inFlight = true
	l.mu.Unlock()

	l.status.ClearError()
	l.status.Begin(status.SourceListing)
	defer func() {
		l.mu.Lock()
		l.inFlight = false
		l.mu.Unlock()
		l.status.End(status.SourceListing)
	}()

	jobs, err := l.source.FetchPage(ctx, page)
	if err != nil {
		slog.Warn("fetch jobs failed", "page", page, "err", err)
		l.status.SetError(FetchErrorMessage)
		return fmt.Errorf("fetch page %d: %w", page, err)
	}

	l.mu.Lock()
	if page == 1 {
		l.jobs = append(make([]model.Job, 0, len(jobs)), jobs...)
	} else {
		l.jobs = append(l.jobs, jobs...)
	}
	l.page = page
	total := len(l.jobs)
	l.mu.Unlock()

	slog.Info("jobs fetched", "page", page, "received", len(jobs), "total", total)
	return nil
}

// LoadMore fetches the page after the current one. It does nothing while a
// fetch is already in flight.
func (l *Listing) LoadMore(ctx context.Context) error {
	l.mu.RLock()
	busy, next := l.inFlight, l.page+1
	l.mu.RUnlock()
	if busy {
		return nil
	}

	err := l.FetchPage(ctx, next)
	if errors.Is(err, ErrFetchInProgress) {
		return nil
	}
	return err
}

// Jobs returns a copy of the current sequence.
func (l *Listing) Jobs() []model.Job {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Job, len(l.jobs))
	copy(out, l.jobs)
	return out
}

// Page returns the last successfully fetched page.
func (l *Listing) Page() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.page
}

// Fetching reports whether a fetch is in flight.
func (l *Listing) Fetching() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.inFlight
}
