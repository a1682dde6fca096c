// Package gitops keeps a ledger project directory under version control.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who a commit is made by.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if _, err := git(dir, "init", "--quiet"); err != nil {
		return err
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages paths (everything when none are given) and commits them.
// It returns the short hash, or "" when there was nothing to commit.
func Commit(dir, message string, author Author, paths ...string) (string, error) {
	add := []string{"add", "-A"}
	if len(paths) > 0 {
		add = append(add, "--")
		add = append(add, paths...)
	}
	if _, err := git(dir, add...); err != nil {
		return "", err
	}

	staged, err := git(dir, "diff", "--cached", "--name-only")
	if err != nil {
		return "", err
	}
	if staged == "" {
		return "", nil
	}

	// The committer is set too so commits work without a global git config.
	env := []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_COMMITTER_NAME=" + author.Name,
		"GIT_COMMITTER_EMAIL=" + author.Email,
	}
	if _, err := run(dir, env, "commit", "--quiet", "-m", message); err != nil {
		return "", err
	}
	return git(dir, "rev-parse", "--short", "HEAD")
}

func git(dir string, args ...string) (string, error) {
	return run(dir, nil, args...)
}

func run(dir string, env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}
