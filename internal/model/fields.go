package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// primaryDetailKeys maps top-level keys that may arrive as numeric codes to
// the primary_details key holding their display string.
var primaryDetailKeys = map[string]string{
	"experience":    "Experience",
	"job_type":      "Job_Type",
	"qualification": "Qualification",
}

// PrimaryDetails returns the primary_details object, or nil.
func (j Job) PrimaryDetails() map[string]any {
	pd, _ := j["primary_details"].(map[string]any)
	return pd
}

func (j Job) primaryDetail(key string) (any, bool) {
	pd := j.PrimaryDetails()
	if pd == nil {
		return nil, false
	}
	v, ok := pd[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Resolved returns the value of experience, job_type or qualification.
// A numeric top-level code is replaced by the primary_details string when
// one exists; anything else is returned as-is.
func (j Job) Resolved(key string) any {
	v := j[key]
	pdKey, ok := primaryDetailKeys[key]
	if !ok || !IsNumeric(v) {
		return v
	}
	if pv, ok := j.primaryDetail(pdKey); ok {
		return pv
	}
	return v
}

// ResolvedSalary prefers primary_details.Salary over the top-level salary.
func (j Job) ResolvedSalary() any {
	if pv, ok := j.primaryDetail("Salary"); ok {
		return pv
	}
	return j["salary"]
}

// Text renders a top-level field as a display string ("" when absent).
func (j Job) Text(key string) string {
	return Display(j[key])
}

// Compensation picks the first populated compensation field:
// primary_details.Salary, salary, salary_min–salary_max, Fees_Charged,
// fee_details.
func (j Job) Compensation() string {
	if s := Display(j.ResolvedSalary()); s != "" {
		return s
	}
	lo, hi := j.Text("salary_min"), j.Text("salary_max")
	switch {
	case lo != "" && hi != "":
		return lo + " - " + hi
	case lo != "":
		return lo
	case hi != "":
		return hi
	}
	if pv, ok := j.primaryDetail("Fees_Charged"); ok {
		if s := Display(pv); s != "" {
			return s
		}
	}
	return j.Text("fee_details")
}

// Place returns primary_details.Place, falling back to locality and then
// city_location.
func (j Job) Place() string {
	if pv, ok := j.primaryDetail("Place"); ok {
		if s := Display(pv); s != "" {
			return s
		}
	}
	if s := j.Text("locality"); s != "" {
		return s
	}
	return j.Text("city_location")
}

// ContentField looks up field_value for fieldKey in contentV3, e.g.
// "Shift timing". contentV3 is usually {"V3": [{field_key, field_value}]}
// but a bare array is accepted too.
func (j Job) ContentField(fieldKey string) string {
	data := j["contentV3"]
	if data == nil || fieldKey == "" {
		return ""
	}
	filter := fmt.Sprintf("[?field_key=='%s'].field_value | [0]", escapeLiteral(fieldKey))
	var expr string
	switch data.(type) {
	case map[string]any:
		expr = "V3" + filter
	case []any:
		expr = filter
	default:
		return ""
	}
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return ""
	}
	return Display(v)
}

func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// Tags merges plain tags with the value of each job_tags label.
func (j Job) Tags() []string {
	var out []string
	if tags, ok := j["tags"].([]any); ok {
		for _, t := range tags {
			if s := Display(t); s != "" {
				out = append(out, s)
			}
		}
	}
	if labels, ok := j["job_tags"].([]any); ok {
		for _, l := range labels {
			m, ok := l.(map[string]any)
			if !ok {
				continue
			}
			if s := Display(m["value"]); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// IsNumeric reports whether v was decoded from a JSON number.
func IsNumeric(v any) bool {
	switch v.(type) {
	case json.Number, float64, float32, int, int64, int32:
		return true
	}
	return false
}

// Display renders a scalar JSON value for humans. Objects and arrays render
// as "".
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
