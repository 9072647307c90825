package listing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"jobmate/listing-service/internal/model"
)

// Shape tags which envelope a listing response used.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeArray
	ShapeResults
	ShapeJobs
	ShapeData
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeResults:
		return "results"
	case ShapeJobs:
		return "jobs"
	case ShapeData:
		return "data"
	}
	return "none"
}

// envelopeKeys are tried in priority order when the body is an object.
var envelopeKeys = []struct {
	key   string
	shape Shape
}{
	{"results", ShapeResults},
	{"jobs", ShapeJobs},
	{"data", ShapeData},
}

// Extraction is the typed result of ExtractJobs. Jobs is never nil.
type Extraction struct {
	Shape   Shape
	Jobs    []model.Job
	Dropped int
}

// ExtractJobs decodes a listing body and pulls out its job array: the body
// itself if it is an array, else the first array among results, jobs, data.
// Any other valid JSON yields ShapeNone with no jobs. Entries that are not
// objects or carry no id are dropped and counted.
func ExtractJobs(body []byte) (Extraction, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return Extraction{}, fmt.Errorf("json decode: %w", err)
	}

	switch t := root.(type) {
	case []any:
		return collect(ShapeArray, t), nil
	case map[string]any:
		for _, env := range envelopeKeys {
			if arr, ok := t[env.key].([]any); ok {
				return collect(env.shape, arr), nil
			}
		}
	}
	return Extraction{Shape: ShapeNone, Jobs: []model.Job{}}, nil
}

func collect(shape Shape, items []any) Extraction {
	ext := Extraction{Shape: shape, Jobs: make([]model.Job, 0, len(items))}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			ext.Dropped++
			continue
		}
		job := model.Job(obj)
		if _, ok := job.ID(); !ok {
			ext.Dropped++
			continue
		}
		ext.Jobs = append(ext.Jobs, job)
	}
	return ext
}
