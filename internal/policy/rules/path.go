package rules

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

type pathRule struct {
	raw string
	// abs is set for rules naming an absolute file or directory.
	abs string
	// matcher is set for relative name rules such as ".ssh/" or "*.pem".
	matcher gitignore.Matcher
	err     error
}

// PathRules matches resolved absolute paths against an ordered list of rules.
//
// A rule starting with "/" or "~" names a file or directory: it matches that
// path and everything below it. Any other rule is a gitignore-style name
// pattern matched against every component of the path, so ".ssh" matches
// /home/u/.ssh/id_rsa and "*.pem" matches /srv/tls/key.pem.
type PathRules struct {
	rules []pathRule
}

// NewPathRules compiles raw in order, expanding "~" to home.
func NewPathRules(raw []string, home string) *PathRules {
	pr := &PathRules{}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		expanded := expandHome(r, home)
		if filepath.IsAbs(expanded) {
			pr.rules = append(pr.rules, pathRule{raw: r, abs: filepath.Clean(expanded)})
			continue
		}
		if strings.HasPrefix(expanded, "~") {
			pr.rules = append(pr.rules, pathRule{raw: r, err: &RuleError{Rule: r, Cause: errors.New("home directory unknown")}})
			continue
		}

		name := strings.Trim(expanded, "/")
		if _, err := filepath.Match(name, ""); err != nil {
			pr.rules = append(pr.rules, pathRule{raw: r, err: &RuleError{Rule: r, Cause: err}})
			continue
		}
		// A pattern with an inner slash is anchored by gitignore; float it.
		if strings.Contains(name, "/") {
			name = "**/" + name
		}
		pattern := gitignore.ParsePattern(name, nil)
		pr.rules = append(pr.rules, pathRule{raw: r, matcher: gitignore.NewMatcher([]gitignore.Pattern{pattern})})
	}
	return pr
}

// Match reports the first rule matching the absolute path target. err is
// non-nil when any rule could not be evaluated.
func (pr *PathRules) Match(target string) (rule string, matched bool, err error) {
	target = filepath.Clean(target)
	segments := splitPath(target)

	var errs []error
	for _, r := range pr.rules {
		switch {
		case r.err != nil:
			errs = append(errs, r.err)
		case r.abs != "":
			if target == r.abs || strings.HasPrefix(target, strings.TrimSuffix(r.abs, "/")+"/") {
				return r.raw, true, nil
			}
		case r.matcher.Match(segments, false):
			return r.raw, true, nil
		}
	}
	return "", false, errors.Join(errs...)
}

// Len returns the number of rules, including invalid ones.
func (pr *PathRules) Len() int {
	return len(pr.rules)
}

// Err returns the compile errors of every invalid rule.
func (pr *PathRules) Err() error {
	var errs []error
	for _, r := range pr.rules {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return errors.Join(errs...)
}

// splitPath splits a path into segments for gitignore matching,
// dropping empty and "." segments.
func splitPath(path string) []string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}
