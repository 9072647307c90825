package bookmark

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"jobmate/listing-service/internal/model"
)

// save writes the essential projection of jobs to the primary and backup
// keys. Both writes are always attempted; a failure of either sets the error
// slot. Invalid input aborts before storage is touched.
func (s *Store) save(ctx context.Context, jobs []model.Job) error {
	if err := validateJobs(jobs); err != nil {
		slog.Warn("refusing to save bookmarks", "err", err)
		s.status.SetError(SaveErrorMessage)
		return err
	}

	raw, err := encodeBundle(jobs, s.now())
	if err != nil {
		s.status.SetError(SaveErrorMessage)
		return fmt.Errorf("encode bundle: %w", err)
	}

	var g errgroup.Group
	for _, key := range []string{s.primaryKey, s.backupKey} {
		g.Go(func() error {
			if err := s.kv.Set(ctx, key, raw); err != nil {
				slog.Warn("bookmark write failed", "key", key, "err", err)
				return fmt.Errorf("write %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.status.SetError(SaveErrorMessage)
		return err
	}
	return nil
}

func validateJobs(jobs []model.Job) error {
	seen := make(map[model.JobID]bool, len(jobs))
	for i, j := range jobs {
		if j == nil {
			return &ValidationError{Msg: fmt.Sprintf("bookmark %d is not a job record", i)}
		}
		id, ok := j.ID()
		if !ok {
			return &ValidationError{Msg: fmt.Sprintf("bookmark %d has no id", i)}
		}
		if seen[id] {
			return &ValidationError{Msg: fmt.Sprintf("duplicate bookmark id %q", id)}
		}
		seen[id] = true
	}
	return nil
}

// VerifyAndRepair restores the primary key from the backup when the primary
// is missing and the backup holds data; the restored set also becomes the
// in-memory set. Otherwise it returns the primary's contents, or an empty
// set when neither key exists.
func (s *Store) VerifyAndRepair(ctx context.Context) ([]model.Job, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	primary, err := s.kv.Get(ctx, s.primaryKey)
	if err != nil {
		return s.repairFailed(fmt.Errorf("read %s: %w", s.primaryKey, err))
	}
	if primary != nil {
		jobs, err := decodeBundle(primary)
		if err != nil {
			return s.repairFailed(err)
		}
		s.status.ClearError()
		return jobs, nil
	}

	backup, err := s.kv.Get(ctx, s.backupKey)
	if err != nil {
		return s.repairFailed(fmt.Errorf("read %s: %w", s.backupKey, err))
	}
	if backup == nil {
		s.status.ClearError()
		return []model.Job{}, nil
	}

	jobs, err := decodeBundle(backup)
	if err != nil {
		return s.repairFailed(err)
	}
	if err := s.kv.Set(ctx, s.primaryKey, backup); err != nil {
		return s.repairFailed(fmt.Errorf("restore %s: %w", s.primaryKey, err))
	}

	s.replace(append([]model.Job(nil), jobs...))
	s.status.ClearError()
	slog.Info("bookmarks restored from backup", "count", len(jobs))
	return jobs, nil
}

func (s *Store) repairFailed(err error) ([]model.Job, error) {
	slog.Warn("verify bookmarks failed", "err", err)
	s.status.SetError(RepairErrorMessage)
	return []model.Job{}, fmt.Errorf("verify bookmarks: %w", err)
}
