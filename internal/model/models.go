// Package model defines the job record shapes shared by the listing and
// bookmark packages.
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// JobID is the canonical string form of a job identifier. Upstream payloads
// send ids as strings or integers; 7, 7.0 and "7" all map to JobID("7").
type JobID string

// ParseJobID converts a raw decoded id value to a JobID. It reports false for
// missing, empty, fractional or non-scalar values.
func ParseJobID(v any) (JobID, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		return JobID(s), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return JobID(strconv.FormatInt(n, 10)), true
		}
		f, err := t.Float64()
		if err != nil {
			return "", false
		}
		return floatID(f)
	case float64:
		return floatID(t)
	case float32:
		return floatID(float64(t))
	case int:
		return JobID(strconv.Itoa(t)), true
	case int64:
		return JobID(strconv.FormatInt(t, 10)), true
	case int32:
		return JobID(strconv.FormatInt(int64(t), 10)), true
	}
	return "", false
}

func floatID(f float64) (JobID, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return "", false
	}
	if math.Abs(f) < 1<<53 {
		return JobID(strconv.FormatInt(int64(f), 10)), true
	}
	return JobID(strconv.FormatFloat(f, 'f', -1, 64)), true
}

// Job is one listing record exactly as the server delivered it. Payloads are
// inconsistent across endpoints, so the record is kept as decoded JSON and
// read through the accessors in fields.go. Only "id" is guaranteed.
type Job map[string]any

// ID returns the job's canonical identifier.
func (j Job) ID() (JobID, bool) {
	if j == nil {
		return "", false
	}
	return ParseJobID(j["id"])
}

// Clone returns a shallow copy of the record.
func (j Job) Clone() Job {
	if j == nil {
		return nil
	}
	out := make(Job, len(j))
	for k, v := range j {
		out[k] = v
	}
	return out
}

// EssentialFields is the whitelist of keys kept when a job is bookmarked.
var EssentialFields = []string{
	"id", "title", "company_name", "salary", "salary_min", "salary_max",
	"experience", "locality", "city_location", "job_type", "qualification",
	"primary_details", "contentV3", "other_details", "whatsapp_no", "phone",
	"job_tags", "openings_count", "tags", "created_on", "updated_on",
	"expire_on", "views",
}

// EssentialJob is the offline projection of a Job. Being a struct, it cannot
// carry keys outside EssentialFields.
type EssentialJob struct {
	ID             any `json:"id"`
	Title          any `json:"title,omitempty"`
	CompanyName    any `json:"company_name,omitempty"`
	Salary         any `json:"salary,omitempty"`
	SalaryMin      any `json:"salary_min,omitempty"`
	SalaryMax      any `json:"salary_max,omitempty"`
	Experience     any `json:"experience,omitempty"`
	Locality       any `json:"locality,omitempty"`
	CityLocation   any `json:"city_location,omitempty"`
	JobType        any `json:"job_type,omitempty"`
	Qualification  any `json:"qualification,omitempty"`
	PrimaryDetails any `json:"primary_details,omitempty"`
	ContentV3      any `json:"contentV3,omitempty"`
	OtherDetails   any `json:"other_details,omitempty"`
	WhatsappNo     any `json:"whatsapp_no,omitempty"`
	Phone          any `json:"phone,omitempty"`
	JobTags        any `json:"job_tags,omitempty"`
	OpeningsCount  any `json:"openings_count,omitempty"`
	Tags           any `json:"tags,omitempty"`
	CreatedOn      any `json:"created_on,omitempty"`
	UpdatedOn      any `json:"updated_on,omitempty"`
	ExpireOn       any `json:"expire_on,omitempty"`
	Views          any `json:"views,omitempty"`
}

// Project reduces a job to its essential projection. Salary, experience,
// job_type and qualification are stored resolved.
func Project(j Job) EssentialJob {
	return EssentialJob{
		ID:             j["id"],
		Title:          j["title"],
		CompanyName:    j["company_name"],
		Salary:         j.ResolvedSalary(),
		SalaryMin:      j["salary_min"],
		SalaryMax:      j["salary_max"],
		Experience:     j.Resolved("experience"),
		Locality:       j["locality"],
		CityLocation:   j["city_location"],
		JobType:        j.Resolved("job_type"),
		Qualification:  j.Resolved("qualification"),
		PrimaryDetails: j["primary_details"],
		ContentV3:      j["contentV3"],
		OtherDetails:   j["other_details"],
		WhatsappNo:     j["whatsapp_no"],
		Phone:          j["phone"],
		JobTags:        j["job_tags"],
		OpeningsCount:  j["openings_count"],
		Tags:           j["tags"],
		CreatedOn:      j["created_on"],
		UpdatedOn:      j["updated_on"],
		ExpireOn:       j["expire_on"],
		Views:          j["views"],
	}
}

// TimestampLayout renders bundle timestamps as ISO-8601 with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Bundle is the persisted bookmark value: a capture time plus the essential
// projections of every bookmarked job.
type Bundle struct {
	Timestamp string         `json:"timestamp"`
	Jobs      []EssentialJob `json:"jobs"`
}

// NewBundle projects jobs and stamps the bundle with now (in UTC).
func NewBundle(jobs []Job, now time.Time) Bundle {
	projected := make([]EssentialJob, 0, len(jobs))
	for _, j := range jobs {
		projected = append(projected, Project(j))
	}
	return Bundle{
		Timestamp: now.UTC().Format(TimestampLayout),
		Jobs:      projected,
	}
}
