// Package gitops records catalogue and configuration edits as git commits.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who commits.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

func (a Author) env() []string {
	return append(os.Environ(),
		"GIT_AUTHOR_NAME="+a.Name, "GIT_AUTHOR_EMAIL="+a.Email,
		"GIT_COMMITTER_NAME="+a.Name, "GIT_COMMITTER_EMAIL="+a.Email,
	)
}

func git(dir string, env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if _, err := git(dir, nil, "init", "--quiet"); err != nil {
		return err
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// CommitAll stages every file and commits. Returns the short commit hash.
func CommitAll(dir, message string, author Author) (string, error) {
	return commit(dir, message, author, nil)
}

// CommitPaths stages only paths and commits them, leaving anything else in
// the index untouched. Returns the short commit hash, or "" when the paths
// have no changes.
func CommitPaths(dir, message string, author Author, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	return commit(dir, message, author, paths)
}

// commit stages and commits pathspec, or the whole tree when pathspec is nil.
func commit(dir, message string, author Author, pathspec []string) (string, error) {
	env := author.env()
	scope := []string{"-A"}
	if pathspec != nil {
		scope = append([]string{"--"}, pathspec...)
	}
	if _, err := git(dir, env, append([]string{"add"}, scope...)...); err != nil {
		return "", err
	}
	diff := []string{"diff", "--cached", "--name-only"}
	if pathspec != nil {
		diff = append(diff, scope...)
	}
	staged, err := git(dir, env, diff...)
	if err != nil {
		return "", err
	}
	if staged == "" {
		return "", nil
	}
	args := []string{"commit", "--quiet", "-m", message, "--author", author.String()}
	if pathspec != nil {
		args = append(args, scope...)
	}
	if _, err := git(dir, env, args...); err != nil {
		return "", err
	}
	return git(dir, env, "rev-parse", "--short", "HEAD")
}
