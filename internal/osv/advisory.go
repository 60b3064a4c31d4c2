package osv

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// commitPath matches commit links on GitHub, GitLab and most cgit/gitweb
// style hosts: .../commit/<sha> or .../-/commit/<sha>.
var commitPath = regexp.MustCompile(`^(.*?)/(?:-/)?commits?/([0-9a-fA-F]{7,40})$`)

// FixCommits collects the fixing commits named by v, from GIT range events
// first and then from FIX references. Duplicates are dropped.
func FixCommits(v Vuln) []FixCommit {
	var out []FixCommit
	seen := make(map[string]bool)
	add := func(fc FixCommit) {
		key := strings.ToLower(fc.Commit)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, fc)
	}

	for _, a := range v.Affected {
		for _, r := range a.Ranges {
			if r.Type != "GIT" {
				continue
			}
			for _, ev := range r.Events {
				if ev.Fixed != "" {
					add(FixCommit{Repo: r.Repo, Commit: ev.Fixed, Source: "range"})
				}
			}
		}
	}
	for _, ref := range v.References {
		if ref.Type != "FIX" {
			continue
		}
		if repo, sha, ok := commitFromURL(ref.URL); ok {
			add(FixCommit{Repo: repo, Commit: sha, Source: "reference"})
		}
	}
	return out
}

func commitFromURL(raw string) (repo, sha string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	m := commitPath.FindStringSubmatch(strings.TrimSuffix(u.Path, "/"))
	if m == nil {
		// gitweb: ?p=project.git;a=commit;h=<sha>
		if h := queryValue(u.RawQuery, "h"); h != "" && strings.Contains(u.RawQuery, "a=commit") {
			return u.Scheme + "://" + u.Host + u.Path, h, true
		}
		return "", "", false
	}
	return u.Scheme + "://" + u.Host + m[1], m[2], true
}

// queryValue reads key from a query that may use ';' as separator.
func queryValue(q, key string) string {
	for _, part := range strings.FieldsFunc(q, func(r rune) bool { return r == ';' || r == '&' }) {
		k, v, found := strings.Cut(part, "=")
		if found && k == key {
			return v
		}
	}
	return ""
}

// CVE returns the CVE identifier of v, which is either its id or an alias.
func CVE(v Vuln) string {
	if strings.HasPrefix(v.ID, "CVE-") {
		return v.ID
	}
	i := slices.IndexFunc(v.Aliases, func(a string) bool { return strings.HasPrefix(a, "CVE-") })
	if i < 0 {
		return ""
	}
	return v.Aliases[i]
}

// CVSSVector returns the highest-version CVSS vector of v, or "".
func CVSSVector(v Vuln) string {
	best, bestType := "", ""
	for _, s := range v.Severity {
		if strings.HasPrefix(s.Type, "CVSS_") && s.Type > bestType {
			best, bestType = s.Score, s.Type
		}
	}
	return best
}
