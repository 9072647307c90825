package jobstate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/listing-service/internal/bookmark"
	"jobmate/listing-service/internal/jobstate"
	"jobmate/listing-service/internal/kvstore"
	"jobmate/listing-service/internal/listing"
	"jobmate/listing-service/internal/model"
)

// listingServer serves canned bodies per page and counts requests.
type listingServer struct {
	mu     sync.Mutex
	bodies map[string]string
	status int
	hits   int
}

func (s *listingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	body, ok := s.bodies[r.URL.Query().Get("page")]
	if !ok {
		body = `[]`
	}
	_, _ = w.Write([]byte(body))
}

func newState(t *testing.T, bodies map[string]string) (*jobstate.State, *listingServer, *kvstore.MemoryStore) {
	t.Helper()
	ls := &listingServer{bodies: bodies}
	srv := httptest.NewServer(ls)
	t.Cleanup(srv.Close)

	kv := kvstore.NewMemoryStore()
	st := jobstate.New(listing.NewHTTPSource(srv.URL, time.Second), kv, bookmark.Options{})
	return st, ls, kv
}

func ids(jobs []model.Job) []model.JobID {
	out := []model.JobID{}
	for _, j := range jobs {
		id, _ := j.ID()
		out = append(out, id)
	}
	return out
}

func TestFetchJobs_MixedEnvelopes(t *testing.T) {
	st, _, _ := newState(t, map[string]string{
		"1": `{"results":[{"id":1}]}`,
		"2": `{"data":[{"id":2}]}`,
	})
	ctx := context.Background()

	require.NoError(t, st.FetchJobs(ctx, 1))
	require.NoError(t, st.FetchJobs(ctx, 2))

	assert.Equal(t, []model.JobID{"1", "2"}, ids(st.Jobs()))
	assert.Equal(t, 2, st.Page())
	assert.False(t, st.Loading())
	assert.Equal(t, "", st.Error())
}

func TestLoadMoreJobs_StartsAtFirstPage(t *testing.T) {
	st, _, _ := newState(t, map[string]string{
		"1": `[{"id":"a"}]`,
		"2": `{"jobs":[{"id":"b"}]}`,
	})
	ctx := context.Background()

	require.NoError(t, st.LoadMoreJobs(ctx))
	require.NoError(t, st.LoadMoreJobs(ctx))
	assert.Equal(t, []model.JobID{"a", "b"}, ids(st.Jobs()))
	assert.Equal(t, 2, st.Page())
}

func TestFetchJobs_FailureKeepsListing(t *testing.T) {
	st, ls, _ := newState(t, map[string]string{"1": `[{"id":1}]`})
	ctx := context.Background()
	require.NoError(t, st.FetchJobs(ctx, 1))

	ls.mu.Lock()
	ls.status = http.StatusBadGateway
	ls.mu.Unlock()

	err := st.FetchJobs(ctx, 2)
	var se *listing.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)

	assert.Equal(t, []model.JobID{"1"}, ids(st.Jobs()))
	assert.Equal(t, 1, st.Page())
	assert.Equal(t, listing.FetchErrorMessage, st.Error())
}

func TestStart_LoadsBookmarksAndSignalsReady(t *testing.T) {
	st, _, kv := newState(t, nil)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, bookmark.DefaultPrimaryKey, []byte(`{"jobs":[{"id":5,"title":"Welder"}]}`)))

	select {
	case <-st.Ready():
		t.Fatal("ready before start")
	default:
	}
	assert.False(t, st.Loaded())

	require.NoError(t, st.Start(ctx))
	<-st.Ready()
	assert.True(t, st.Loaded())
	assert.True(t, st.IsBookmarked("5"))
}

func TestStart_CorruptedStorageStillReady(t *testing.T) {
	st, _, kv := newState(t, nil)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, bookmark.DefaultPrimaryKey, []byte(`not json`)))

	require.NoError(t, st.Start(ctx))
	<-st.Ready()
	assert.Empty(t, st.Bookmarks())

	v, err := kv.Get(ctx, bookmark.DefaultPrimaryKey)
	require.NoError(t, err)
	assert.Nil(t, v, "corrupted primary is deleted")
}

func TestToggleBookmark_FromFetchedListing(t *testing.T) {
	st, _, kv := newState(t, map[string]string{
		"1": `{"results":[{"id":5,"title":"Welder","experience":3,"primary_details":{"Experience":"2-4 yrs"},"is_applied":false}]}`,
	})
	ctx := context.Background()
	require.NoError(t, st.Start(ctx))
	require.NoError(t, st.FetchJobs(ctx, 1))

	job := st.Jobs()[0]
	added, err := st.ToggleBookmark(ctx, job)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, st.IsBookmarked("5"))

	raw, err := kv.Get(ctx, bookmark.DefaultPrimaryKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"experience":"2-4 yrs"`)
	assert.NotContains(t, string(raw), "is_applied")

	added, err = st.ToggleBookmark(ctx, job)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, st.Bookmarks())
}

func TestBookmarks_SurviveRestart(t *testing.T) {
	st, ls, kv := newState(t, map[string]string{
		"1": `{"results":[{"id":5.5,"title":"Cook"},{"id":7,"title":"Driver"}]}`,
	})
	ctx := context.Background()
	require.NoError(t, st.Start(ctx))
	require.NoError(t, st.FetchJobs(ctx, 1))
	require.Equal(t, []model.JobID{"7"}, ids(st.Jobs()), "fractional ids are not listed")

	_, err := st.ToggleBookmark(ctx, st.Jobs()[0])
	require.NoError(t, err)

	srv := httptest.NewServer(ls)
	t.Cleanup(srv.Close)
	restarted := jobstate.New(listing.NewHTTPSource(srv.URL, time.Second), kv, bookmark.Options{})
	require.NoError(t, restarted.Start(ctx))

	assert.Equal(t, []model.JobID{"7"}, ids(restarted.Bookmarks()))
	assert.Equal(t, "", restarted.Error())
}

func TestClearAndVerify(t *testing.T) {
	st, _, _ := newState(t, nil)
	ctx := context.Background()
	require.NoError(t, st.Start(ctx))
	_, err := st.ToggleBookmark(ctx, model.Job{"id": 1})
	require.NoError(t, err)

	cleared, err := st.ClearBookmarks(ctx, bookmark.Confirmed(false))
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Len(t, st.Bookmarks(), 1)

	cleared, err = st.ClearBookmarks(ctx, bookmark.Confirmed(true))
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Empty(t, st.Bookmarks())

	restored, err := st.VerifyAndRepairBookmarks(ctx)
	require.NoError(t, err)
	assert.Len(t, restored, 1)
	assert.True(t, st.IsBookmarked("1"))
}

func TestSnapshot(t *testing.T) {
	st, _, _ := newState(t, map[string]string{"1": `[{"id":1},{"id":2}]`})
	ctx := context.Background()
	require.NoError(t, st.Start(ctx))
	require.NoError(t, st.FetchJobs(ctx, 1))
	_, err := st.ToggleBookmark(ctx, st.Jobs()[1])
	require.NoError(t, err)

	snap := st.Snapshot()
	assert.Equal(t, []model.JobID{"1", "2"}, ids(snap.Jobs))
	assert.Equal(t, []model.JobID{"2"}, ids(snap.Bookmarks))
	assert.Equal(t, 1, snap.Page)
	assert.True(t, snap.Loaded)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)

	snap.Jobs[0] = nil
	assert.Len(t, st.Jobs(), 2)
	assert.NotNil(t, st.Jobs()[0])
}
