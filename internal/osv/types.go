package osv

// Vuln is a single OSV advisory record.
type Vuln struct {
	ID         string      `json:"id"      yaml:"id"`      // e.g. "GHSA-xxxx-yyyy-zzzz" or "CVE-2014-0160"
	Aliases    []string    `json:"aliases" yaml:"aliases"` // e.g. ["CVE-2021-23337"]
	Summary    string      `json:"summary" yaml:"summary"`
	Details    string      `json:"details" yaml:"details"`
	Severity   []Severity  `json:"severity"   yaml:"severity"`
	References []Reference `json:"references" yaml:"references"`
	Affected   []Affected  `json:"affected"   yaml:"affected"`
	Published  string      `json:"published"  yaml:"published"` // RFC3339
	Modified   string      `json:"modified"   yaml:"modified"`  // RFC3339
	Withdrawn  string      `json:"withdrawn,omitempty" yaml:"withdrawn,omitempty"`
}

// Severity holds a CVSS score entry.
type Severity struct {
	Type  string `json:"type"  yaml:"type"`  // "CVSS_V3" or "CVSS_V2"
	Score string `json:"score" yaml:"score"` // e.g. "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"
}

// Reference is an external link associated with a vulnerability.
type Reference struct {
	Type string `json:"type" yaml:"type"` // "WEB", "ADVISORY", "FIX", "REPORT"
	URL  string `json:"url"  yaml:"url"`
}

// PackageID identifies a package in an OSV ecosystem.
type PackageID struct {
	Name      string `json:"name"      yaml:"name"`
	Ecosystem string `json:"ecosystem" yaml:"ecosystem"`
}

// Affected describes which package versions are affected.
type Affected struct {
	Package  PackageID       `json:"package"  yaml:"package"`
	Ranges   []AffectedRange `json:"ranges"   yaml:"ranges"`
	Versions []string        `json:"versions" yaml:"versions"`
}

// AffectedRange is a version range. GIT ranges carry the repository and
// commit hashes as events.
type AffectedRange struct {
	Type   string       `json:"type"   yaml:"type"` // "SEMVER", "ECOSYSTEM", "GIT"
	Repo   string       `json:"repo,omitempty" yaml:"repo,omitempty"`
	Events []RangeEvent `json:"events" yaml:"events"`
}

// RangeEvent marks the start or end of an affected range.
type RangeEvent struct {
	Introduced string `json:"introduced,omitempty" yaml:"introduced,omitempty"`
	Fixed      string `json:"fixed,omitempty"      yaml:"fixed,omitempty"`
}

// FixCommit is a commit an advisory names as fixing the vulnerability.
type FixCommit struct {
	Repo   string `json:"repo"   yaml:"repo"`
	Commit string `json:"commit" yaml:"commit"`
	// Source is "range" for GIT range events and "reference" for FIX links.
	Source string `json:"source" yaml:"source"`
}
