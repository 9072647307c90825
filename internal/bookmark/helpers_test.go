package bookmark_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jobmate/listing-service/internal/bookmark"
	"jobmate/listing-service/internal/kvstore"
	"jobmate/listing-service/internal/model"
	"jobmate/listing-service/internal/status"
)

const (
	primaryKey = "bookmarks"
	backupKey  = "bookmarks_backup"
)

var errDisk = errors.New("disk full")

// faultyKV is a MemoryStore with per-key failure injection and call counts.
type faultyKV struct {
	*kvstore.MemoryStore

	mu     sync.Mutex
	getErr map[string]error
	setErr map[string]error
	delErr map[string]error
	gets   map[string]int
	sets   map[string]int
	dels   map[string]int
}

func newFaultyKV() *faultyKV {
	return &faultyKV{
		MemoryStore: kvstore.NewMemoryStore(),
		getErr:      map[string]error{},
		setErr:      map[string]error{},
		delErr:      map[string]error{},
		gets:        map[string]int{},
		sets:        map[string]int{},
		dels:        map[string]int{},
	}
}

func (f *faultyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	f.gets[key]++
	err := f.getErr[key]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *faultyKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.sets[key]++
	err := f.setErr[key]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *faultyKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.dels[key]++
	err := f.delErr[key]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Delete(ctx, key)
}

func (f *faultyKV) count(m map[string]int, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return m[key]
}

type mockHaptics struct{ mock.Mock }

func (m *mockHaptics) Feedback(ctx context.Context, style bookmark.HapticStyle) error {
	return m.Called(ctx, style).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, n bookmark.Notification) error {
	return m.Called(ctx, n).Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	kv       *faultyKV
	status   *status.Surface
	haptics  *mockHaptics
	notifier *mockNotifier
	store    *bookmark.Store
}

func newFixture(t *testing.T, opts bookmark.Options) *fixture {
	t.Helper()
	f := &fixture{
		kv:       newFaultyKV(),
		status:   &status.Surface{},
		haptics:  &mockHaptics{},
		notifier: &mockNotifier{},
	}
	f.haptics.On("Feedback", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()

	opts.PrimaryKey = primaryKey
	opts.BackupKey = backupKey
	if opts.Haptics == nil {
		opts.Haptics = f.haptics
	}
	if opts.Notifier == nil {
		opts.Notifier = f.notifier
	}
	opts.Now = func() time.Time { return fixedNow }
	f.store = bookmark.New(f.kv, f.status, opts)
	return f
}

func decodeJob(t *testing.T, raw string) model.Job {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var j model.Job
	require.NoError(t, dec.Decode(&j))
	return j
}

// storedBundle reads and decodes the bundle under key.
func (f *fixture) storedBundle(t *testing.T, key string) map[string]any {
	t.Helper()
	raw, err := f.kv.MemoryStore.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, raw, "no bundle stored under %q", key)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (f *fixture) put(t *testing.T, key, raw string) {
	t.Helper()
	require.NoError(t, f.kv.MemoryStore.Set(context.Background(), key, []byte(raw)))
}

func jobIDs(jobs []model.Job) []model.JobID {
	out := make([]model.JobID, 0, len(jobs))
	for _, j := range jobs {
		id, _ := j.ID()
		out = append(out, id)
	}
	return out
}
