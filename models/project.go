package models

// ProjectRecord is a source project registered with the backend.
type ProjectRecord struct {
	Index    int    `json:"index"    yaml:"index"`
	Name     string `json:"name"     yaml:"name"`
	Owner    string `json:"owner"    yaml:"owner"`
	Language string `json:"language" yaml:"language"`
	// Parent names the project this one was cloned from; empty for roots.
	Parent string `json:"parent"   yaml:"parent"`
}

// BugRecord is a tracked vulnerability. Patch and Code hold decoded text.
type BugRecord struct {
	Index      int      `json:"index"       yaml:"index"`
	ID         string   `json:"id"          yaml:"id"`
	FixCommits []string `json:"fix_commits" yaml:"fix_commits"`
	Patch      string   `json:"patch"       yaml:"patch"`
	Code       string   `json:"code"        yaml:"code"`
	Verified   bool     `json:"verified"    yaml:"verified"`
}

// NewProject is the registration payload for a source project.
type NewProject struct {
	URL      string `json:"url"`
	Language string `json:"language"`
	Parent   string `json:"parent"`
}

// BugUpdate changes the fix commit and patch of a bug. Method decides whether
// the backend stores the text as the patch (blockscope) or the code (simian).
type BugUpdate struct {
	ID        string
	Patch     string
	FixCommit string
	Method    Method
}
