package listing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/listing-service/internal/listing"
	"jobmate/listing-service/internal/model"
)

func ids(t *testing.T, jobs []model.Job) []model.JobID {
	t.Helper()
	out := make([]model.JobID, 0, len(jobs))
	for _, j := range jobs {
		id, ok := j.ID()
		require.True(t, ok)
		out = append(out, id)
	}
	return out
}

func TestExtractJobs_KnownShapes(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		shape listing.Shape
		want  []model.JobID
	}{
		{"bare array", `[{"id":1},{"id":2}]`, listing.ShapeArray, []model.JobID{"1", "2"}},
		{"results", `{"results":[{"id":1}],"jobs":[{"id":9}]}`, listing.ShapeResults, []model.JobID{"1"}},
		{"jobs", `{"jobs":[{"id":"a"}],"data":[{"id":9}]}`, listing.ShapeJobs, []model.JobID{"a"}},
		{"data", `{"data":[{"id":2}]}`, listing.ShapeData, []model.JobID{"2"}},
		{"results not an array", `{"results":null,"data":[{"id":3}]}`, listing.ShapeData, []model.JobID{"3"}},
		{"empty results wins", `{"results":[],"data":[{"id":3}]}`, listing.ShapeResults, []model.JobID{}},
		{"unknown object", `{"items":[{"id":1}]}`, listing.ShapeNone, []model.JobID{}},
		{"scalar", `42`, listing.ShapeNone, []model.JobID{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ext, err := listing.ExtractJobs([]byte(c.body))
			require.NoError(t, err)
			assert.Equal(t, c.shape, ext.Shape)
			assert.NotNil(t, ext.Jobs)
			assert.Equal(t, c.want, ids(t, ext.Jobs))
		})
	}
}

func TestExtractJobs_DropsEntriesWithoutID(t *testing.T) {
	ext, err := listing.ExtractJobs([]byte(`{"results":[{"id":1},{"type":1040,"title":"ad"},"junk",{"id":""},{"id":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, []model.JobID{"1", "2"}, ids(t, ext.Jobs))
	assert.Equal(t, 3, ext.Dropped)
}

func TestExtractJobs_DropsFractionalIDs(t *testing.T) {
	ext, err := listing.ExtractJobs([]byte(`{"results":[{"id":5.5},{"id":6.0},{"id":"5.5"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []model.JobID{"6", "5.5"}, ids(t, ext.Jobs))
	assert.Equal(t, 1, ext.Dropped)
}

func TestExtractJobs_InvalidJSON(t *testing.T) {
	for _, body := range []string{``, `{"results":[`, `<html>`} {
		_, err := listing.ExtractJobs([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}

func TestExtractJobs_KeepsLargeIntegerIDs(t *testing.T) {
	ext, err := listing.ExtractJobs([]byte(`[{"id":9007199254740993}]`))
	require.NoError(t, err)
	assert.Equal(t, []model.JobID{"9007199254740993"}, ids(t, ext.Jobs))
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "array", listing.ShapeArray.String())
	assert.Equal(t, "results", listing.ShapeResults.String())
	assert.Equal(t, "jobs", listing.ShapeJobs.String())
	assert.Equal(t, "data", listing.ShapeData.String())
	assert.Equal(t, "none", listing.ShapeNone.String())
}
