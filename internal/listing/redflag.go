package listing

import (
	"context"
	"log/slog"
	"strings"

	"jobmate/listing-service/internal/model"
)

// ContainsRedFlag returns true if any red flag term appears (case-insensitive)
// anywhere in the job's title, company name or description.
func ContainsRedFlag(j model.Job, redFlags []string) bool {
	if len(redFlags) == 0 {
		return false
	}
	combined := strings.ToLower(j.Text("title") + " " + j.Text("company_name") + " " + j.Text("description"))
	for _, flag := range redFlags {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}

// FilteredSource drops red-flagged jobs from every page of the wrapped source.
type FilteredSource struct {
	src      PageSource
	redFlags []string
}

// WithRedFlags wraps src. With no flags it returns src unchanged.
func WithRedFlags(src PageSource, redFlags []string) PageSource {
	if len(redFlags) == 0 {
		return src
	}
	return &FilteredSource{src: src, redFlags: redFlags}
}

func (f *FilteredSource) FetchPage(ctx context.Context, page int) ([]model.Job, error) {
	jobs, err := f.src.FetchPage(ctx, page)
	if err != nil {
		return nil, err
	}
	kept := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if ContainsRedFlag(j, f.redFlags) {
			continue
		}
		kept = append(kept, j)
	}
	if dropped := len(jobs) - len(kept); dropped > 0 {
		slog.Info("red-flagged jobs discarded", "page", page, "dropped", dropped)
	}
	return kept, nil
}
