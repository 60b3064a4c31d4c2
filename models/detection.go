package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Method is a clone-detection algorithm variant understood by the backend.
type Method string

const (
	MethodBlockScope Method = "blockscope"
	MethodSimian     Method = "simian"
)

// Methods lists the detection methods in the order they are offered to operators.
var Methods = []Method{MethodBlockScope, MethodSimian}

// Known reports whether m is one of the enumerated detection methods.
func (m Method) Known() bool {
	for _, k := range Methods {
		if m == k {
			return true
		}
	}
	return false
}

func (m Method) String() string { return string(m) }

// DetectionJobRequest is a single detection submission. Patch holds raw text;
// it is base64-encoded only when the request is put on the wire.
type DetectionJobRequest struct {
	BugID       string `json:"bug_id"`
	ProjectName string `json:"project_name"`
	Commit      string `json:"commit"`
	Patch       string `json:"patch"`
	Method      Method `json:"method"`
	// Date is YYYY-MM-DD, or empty for "no cutoff".
	Date string `json:"date"`
}

// Verdict is the two-valued vulnerability flag of a detection row.
// The backend renders it as the strings "True"/"False"; JSON booleans are
// accepted as well.
type Verdict bool

func (v *Verdict) UnmarshalJSON(b []byte) error {
	var asBool bool
	if err := json.Unmarshal(b, &asBool); err == nil {
		*v = Verdict(asBool)
		return nil
	}
	var asString string
	if err := json.Unmarshal(b, &asString); err != nil {
		return fmt.Errorf("vulnerable: expected bool or string, got %s", string(b))
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(asString))
	if err != nil {
		return fmt.Errorf("vulnerable: %w", err)
	}
	*v = Verdict(parsed)
	return nil
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(v))
}

// DetectionResultRow is one per-project detection outcome.
type DetectionResultRow struct {
	ProjectName string  `json:"project_name" yaml:"project_name"`
	Vulnerable  Verdict `json:"vulnerable"   yaml:"vulnerable"`
	// Confidence is 0.0-1.0 for ADD/DEL patches and 0.0-2.0 for CHG patches.
	Confidence float64 `json:"confidence" yaml:"confidence"`
	// Location is "<file>:<line>" or a symbol reference.
	Location string `json:"location" yaml:"location"`
}

// File returns the file part of Location.
func (r DetectionResultRow) File() string {
	file, _ := r.splitLocation()
	return file
}

// Line returns the line part of Location, or 0 when there is none.
func (r DetectionResultRow) Line() int {
	_, line := r.splitLocation()
	return line
}

func (r DetectionResultRow) splitLocation() (string, int) {
	idx := strings.LastIndex(r.Location, ":")
	if idx < 0 {
		return r.Location, 0
	}
	line, err := strconv.Atoi(r.Location[idx+1:])
	if err != nil {
		return r.Location, 0
	}
	return r.Location[:idx], line
}

// Key identifies a row independently of its confidence.
func (r DetectionResultRow) Key() string {
	return r.ProjectName + "|" + r.Location
}

// DetectionStatus is one snapshot of the backend's detection run. Logs is
// cumulative; every snapshot replaces the previous one wholesale.
type DetectionStatus struct {
	Logs    string               `json:"logs"              yaml:"logs"`
	Results []DetectionResultRow `json:"detection_results" yaml:"detection_results"`
}
