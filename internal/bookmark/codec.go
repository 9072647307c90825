package bookmark

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"jobmate/listing-service/internal/model"
)

// ErrCorrupted marks persisted bookmark data that cannot be decoded.
var ErrCorrupted = errors.New("bookmark data is corrupted")

// bundleSchema is the minimum shape a stored bundle must have to be
// trusted: an object with a jobs array of records that carry an id.
const bundleSchema = `{
  "type": "object",
  "required": ["jobs"],
  "properties": {
    "timestamp": {"type": "string"},
    "jobs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": ["string", "integer"], "minLength": 1}
        }
      }
    }
  }
}`

var compiledBundleSchema = jsonschema.MustCompileString("bundle.json", bundleSchema)

func encodeBundle(jobs []model.Job, now time.Time) ([]byte, error) {
	return json.Marshal(model.NewBundle(jobs, now))
}

// decodeBundle parses and validates a stored bundle. Any failure wraps
// ErrCorrupted. Duplicate ids keep their first occurrence.
func decodeBundle(raw []byte) ([]model.Job, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after bundle", ErrCorrupted)
	}
	if err := compiledBundleSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	items, _ := doc.(map[string]any)["jobs"].([]any)
	jobs := make([]model.Job, 0, len(items))
	seen := make(map[model.JobID]bool, len(items))
	for _, item := range items {
		job := model.Job(item.(map[string]any))
		id, ok := job.ID()
		if !ok {
			return nil, fmt.Errorf("%w: job without usable id", ErrCorrupted)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		jobs = append(jobs, job)
	}
	return jobs, nil
}
