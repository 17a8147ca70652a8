package rules

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

type compiledPattern struct {
	raw string
	g   glob.Glob
	err error
}

// Patterns is an ordered list of shell-style globs matched against a whole
// string (a path, a command line or a URL). '*' also matches '/'.
type Patterns struct {
	rules []compiledPattern
}

// NewPatterns compiles raw in order. A leading "~" is expanded to home.
// Patterns that fail to compile are kept and surface their error from Match.
func NewPatterns(raw []string, home string) *Patterns {
	p := &Patterns{}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		expanded := expandHome(r, home)
		g, err := glob.Compile(expanded)
		if err != nil {
			p.rules = append(p.rules, compiledPattern{raw: r, err: &RuleError{Rule: r, Cause: err}})
			continue
		}
		p.rules = append(p.rules, compiledPattern{raw: r, g: g})
	}
	return p
}

// Match reports the first rule matching s. err is non-nil when any rule
// could not be evaluated, in which case a false result is not conclusive.
func (p *Patterns) Match(s string) (rule string, matched bool, err error) {
	var errs []error
	for _, r := range p.rules {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if r.g.Match(s) {
			return r.raw, true, nil
		}
	}
	return "", false, errors.Join(errs...)
}

// Len returns the number of rules, including invalid ones.
func (p *Patterns) Len() int {
	return len(p.rules)
}

// Err returns the compile errors of every invalid rule.
func (p *Patterns) Err() error {
	var errs []error
	for _, r := range p.rules {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return errors.Join(errs...)
}

func expandHome(p, home string) string {
	if home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(home, rest) + trailingSlash(rest)
	}
	return p
}

// trailingSlash preserves a directory marker that filepath.Join would drop.
func trailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return "/"
	}
	return ""
}
