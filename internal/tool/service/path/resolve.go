package path

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver turns user or model supplied paths into clean absolute paths.
// Relative paths are taken from the working directory and "~" expands to
// the home directory.
type Resolver struct {
	home string
	cwd  string
	// evalSymlinks follows links so rules see the real target.
	evalSymlinks func(string) (string, error)
}

// NewResolver creates a resolver. home may be empty when unknown; cwd must
// be absolute.
func NewResolver(home, cwd string) *Resolver {
	if cwd == "" {
		panic("cwd is required")
	}
	return &Resolver{
		home:         home,
		cwd:          filepath.Clean(cwd),
		evalSymlinks: filepath.EvalSymlinks,
	}
}

// NewOSResolver creates a resolver from the process home and working directory.
func NewOSResolver() (*Resolver, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, &ResolveError{Path: ".", Cause: err}
	}
	home, _ := os.UserHomeDir()
	return NewResolver(home, cwd), nil
}

// Home returns the home directory, or "" when unknown.
func (r *Resolver) Home() string {
	return r.home
}

// Cwd returns the working directory relative paths resolve against.
func (r *Resolver) Cwd() string {
	return r.cwd
}

// Abs resolves path to a clean absolute path. Symlinks are followed as far
// as the path exists, so a link into /etc resolves into /etc.
func (r *Resolver) Abs(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrEmptyPath
	}

	expanded, err := r.expandHome(path)
	if err != nil {
		return "", &ResolveError{Path: path, Cause: err}
	}

	var abs string
	if filepath.IsAbs(expanded) {
		abs = filepath.Clean(expanded)
	} else {
		abs = filepath.Clean(filepath.Join(r.cwd, expanded))
	}

	return r.followLinks(abs), nil
}

// Within reports whether path is root itself or lies below it.
// Both must be absolute and clean.
func Within(path, root string) bool {
	if root == "" {
		return false
	}
	if path == root || root == "/" {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/")
}

func (r *Resolver) expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	if r.home == "" {
		return "", ErrHomeNotSet
	}
	return filepath.Join(r.home, strings.TrimPrefix(path, "~")), nil
}

// followLinks resolves symlinks in the longest existing prefix of abs and
// re-attaches the missing tail.
func (r *Resolver) followLinks(abs string) string {
	var tail []string
	current := abs
	for {
		if resolved, err := r.evalSymlinks(current); err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
	}
}
