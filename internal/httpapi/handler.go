// Package httpapi exposes the job state over HTTP.
//
// Routes:
//
//	GET    /health                 → liveness plus bookmark load state
//	GET    /jobs                   → current listing (?view=card for display cards)
//	POST   /jobs/refresh?page=n    → fetch page n (default 1)
//	POST   /jobs/more              → fetch the next page
//	GET    /bookmarks              → bookmarked jobs (?view=card)
//	GET    /bookmarks/{id}         → membership of one job id
//	POST   /bookmarks/toggle       → toggle the job record in the body
//	DELETE /bookmarks              → clear all, body {"confirm": true}
//	POST   /bookmarks/repair       → restore primary from backup if missing
//	GET    /state                  → full snapshot
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jobmate/listing-service/internal/bookmark"
	"jobmate/listing-service/internal/jobstate"
	"jobmate/listing-service/internal/listing"
	"jobmate/listing-service/internal/model"
)

const maxBodyBytes = 1 << 20

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	state   *jobstate.State
	service string
	version string
}

// NewHandler returns a configured Handler.
func NewHandler(state *jobstate.State, service, version string) *Handler {
	return &Handler{state: state, service: service, version: version}
}

// Router builds the chi router with every listing-service route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/state", h.snapshot)

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.listJobs)
		r.Post("/refresh", h.refreshJobs)
		r.Post("/more", h.loadMoreJobs)
	})

	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", h.listBookmarks)
		r.Delete("/", h.clearBookmarks)
		r.Post("/toggle", h.toggleBookmark)
		r.Post("/repair", h.repairBookmarks)
		r.Get("/{id}", h.isBookmarked)
	})
	return r
}

// ─── Response types ───────────────────────────────────────────────────────────

type listingResponse struct {
	Jobs    any    `json:"jobs"`
	Page    int    `json:"page"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// jobCard is the display-ready view of a job.
type jobCard struct {
	ID            model.JobID `json:"id"`
	Title         string      `json:"title"`
	Company       string      `json:"company,omitempty"`
	Compensation  string      `json:"compensation,omitempty"`
	Place         string      `json:"place,omitempty"`
	Experience    string      `json:"experience,omitempty"`
	JobType       string      `json:"jobType,omitempty"`
	Qualification string      `json:"qualification,omitempty"`
	ShiftTiming   string      `json:"shiftTiming,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	Bookmarked    bool        `json:"bookmarked"`
}

func (h *Handler) card(j model.Job) jobCard {
	id, _ := j.ID()
	return jobCard{
		ID:            id,
		Title:         j.Text("title"),
		Company:       j.Text("company_name"),
		Compensation:  j.Compensation(),
		Place:         j.Place(),
		Experience:    model.Display(j.Resolved("experience")),
		JobType:       model.Display(j.Resolved("job_type")),
		Qualification: model.Display(j.Resolved("qualification")),
		ShiftTiming:   j.ContentField("Shift timing"),
		Tags:          j.Tags(),
		Bookmarked:    h.state.IsBookmarked(id),
	}
}

func (h *Handler) present(r *http.Request, jobs []model.Job) any {
	if r.URL.Query().Get("view") != "card" {
		return jobs
	}
	cards := make([]jobCard, 0, len(jobs))
	for _, j := range jobs {
		cards = append(cards, h.card(j))
	}
	return cards
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]any{
		"status":          "ok",
		"service":         h.service,
		"version":         h.version,
		"bookmarksLoaded": h.state.Loaded(),
	})
}

func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, h.state.Snapshot())
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.listing(r))
}

func (h *Handler) listing(r *http.Request) listingResponse {
	return listingResponse{
		Jobs:    h.present(r, h.state.Jobs()),
		Page:    h.state.Page(),
		Loading: h.state.Loading(),
		Error:   h.state.Error(),
	}
}

func (h *Handler) refreshJobs(w http.ResponseWriter, r *http.Request) {
	page := 1
	if s := r.URL.Query().Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			jsonError(w, "page must be an integer", http.StatusBadRequest)
			return
		}
		page = n
	}

	if err := h.state.FetchJobs(r.Context(), page); err != nil {
		fetchError(w, err)
		return
	}
	jsonOK(w, h.listing(r))
}

func (h *Handler) loadMoreJobs(w http.ResponseWriter, r *http.Request) {
	if err := h.state.LoadMoreJobs(r.Context()); err != nil {
		fetchError(w, err)
		return
	}
	jsonOK(w, h.listing(r))
}

func (h *Handler) listBookmarks(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]any{
		"bookmarks": h.present(r, h.state.Bookmarks()),
		"loaded":    h.state.Loaded(),
	})
}

func (h *Handler) isBookmarked(w http.ResponseWriter, r *http.Request) {
	id, ok := model.ParseJobID(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "invalid job id", http.StatusBadRequest)
		return
	}
	jsonOK(w, map[string]any{
		"id":         id,
		"bookmarked": h.state.IsBookmarked(id),
		"loaded":     h.state.Loaded(),
	})
}

func (h *Handler) toggleBookmark(w http.ResponseWriter, r *http.Request) {
	var job model.Job
	if err := decodeBody(r, &job); err != nil || job == nil {
		jsonError(w, "body must be a job object", http.StatusBadRequest)
		return
	}

	added, err := h.state.ToggleBookmark(r.Context(), job)
	if err != nil {
		var ve *bookmark.ValidationError
		if errors.As(err, &ve) {
			jsonError(w, ve.Msg, http.StatusBadRequest)
			return
		}
		slog.Error("toggle bookmark failed", "err", err)
		jsonError(w, h.userError(bookmark.SaveErrorMessage), http.StatusInternalServerError)
		return
	}

	id, _ := job.ID()
	jsonOK(w, map[string]any{"id": id, "bookmarked": added})
}

func (h *Handler) clearBookmarks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeBody(r, &body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	cleared, err := h.state.ClearBookmarks(r.Context(), bookmark.Confirmed(body.Confirm))
	if err != nil {
		slog.Error("clear bookmarks failed", "err", err)
		jsonError(w, h.userError(bookmark.ClearErrorMessage), http.StatusInternalServerError)
		return
	}
	if !cleared {
		jsonOK(w, map[string]any{"cleared": false, "prompt": bookmark.ClearPrompt})
		return
	}
	jsonOK(w, map[string]any{"cleared": true})
}

func (h *Handler) repairBookmarks(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.state.VerifyAndRepairBookmarks(r.Context())
	if err != nil {
		slog.Error("verify bookmarks failed", "err", err)
		jsonError(w, h.userError(bookmark.RepairErrorMessage), http.StatusInternalServerError)
		return
	}
	jsonOK(w, map[string]any{"bookmarks": h.present(r, jobs)})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// userError returns the message on the shared error slot, or fallback if a
// concurrent success already cleared it.
func (h *Handler) userError(fallback string) string {
	if msg := h.state.Error(); msg != "" {
		return msg
	}
	return fallback
}

func fetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listing.ErrFetchInProgress):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, listing.ErrInvalidPage):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		jsonError(w, listing.FetchErrorMessage, http.StatusBadGateway)
	}
}

// decodeBody decodes a JSON body keeping numbers as json.Number so ids keep
// their exact form.
func decodeBody(r *http.Request, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "err", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}
