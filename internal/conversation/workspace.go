package conversation

import (
	"bufio"
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// MaxProjectFiles caps the file listing embedded in the system prompt.
const MaxProjectFiles = 500

const contextDir = ".Q"

// Workspace is the optional user and project context for the system prompt.
type Workspace struct {
	UserContext    string
	ProjectRoot    string
	ProjectContext string
	ProjectFiles   []string
}

// LoadWorkspace reads ~/.config/q/user.md, finds the project root above cwd
// (a directory holding .Q or .git, not above home) and lists its files,
// honoring the root .gitignore. Missing pieces are left empty.
func LoadWorkspace(home, cwd string, logger *slog.Logger) Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	var ws Workspace

	if home != "" {
		ws.UserContext = readOptional(filepath.Join(home, ".config", "q", "user.md"), logger)
	}

	ws.ProjectRoot = FindProjectRoot(home, cwd)
	if ws.ProjectRoot == "" {
		logger.Debug("no project root found", "cwd", cwd)
		return ws
	}
	ws.ProjectContext = readOptional(filepath.Join(ws.ProjectRoot, contextDir, "project.md"), logger)
	ws.ProjectFiles = listProjectFiles(ws.ProjectRoot, MaxProjectFiles, logger)
	return ws
}

// FindProjectRoot walks up from cwd looking for .Q or .git. The search stops
// at the parent of home and at the filesystem root.
func FindProjectRoot(home, cwd string) string {
	stop := ""
	if home != "" {
		stop = filepath.Dir(filepath.Clean(home))
	}
	dir := filepath.Clean(cwd)
	for dir != stop {
		for _, marker := range []string{contextDir, ".git"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
	return ""
}

func readOptional(path string, logger *slog.Logger) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("context file not loaded", "path", path, "error", err)
		return ""
	}
	return strings.TrimSpace(string(data))
}

// listProjectFiles returns absolute paths under root, skipping .git and
// anything the root .gitignore excludes. Files in .Q are always listed.
func listProjectFiles(root string, limit int, logger *slog.Logger) []string {
	matcher := gitignore.NewMatcher(readIgnorePatterns(root, logger))
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		segments := strings.Split(filepath.ToSlash(rel), "/")
		inContext := segments[0] == contextDir

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if !inContext && matcher.Match(segments, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !inContext && matcher.Match(segments, false) {
			return nil
		}
		files = append(files, path)
		if len(files) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		logger.Debug("project walk stopped", "root", root, "error", err)
	}
	return files
}

func readIgnorePatterns(root string, logger *slog.Logger) []gitignore.Pattern {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	logger.Debug("loaded gitignore patterns", "root", root, "count", len(patterns))
	return patterns
}
