// Package gitops keeps a books directory under version control so every
// audited change becomes a commit.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who a commit is recorded for.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	if out, err := git(ctx, dir, Author{}, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// CommitAll stages every change in dir and commits it as author. It returns the
// short commit hash, or "" when there was nothing to commit.
func CommitAll(ctx context.Context, dir, message string, author Author) (string, error) {
	if out, err := git(ctx, dir, author, "add", "-A"); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	status, err := git(ctx, dir, author, "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("git status: %s: %w", status, err)
	}
	if strings.TrimSpace(status) == "" {
		return "", nil
	}

	if out, err := git(ctx, dir, author, "commit", "--quiet", "-m", message, "--author", author.String()); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev, err := git(ctx, dir, author, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %s: %w", rev, err)
	}
	return strings.TrimSpace(rev), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// git runs a git subcommand in dir. The committer identity is taken from
// author so commits work without a global git config.
func git(ctx context.Context, dir string, author Author, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	if author.Name != "" {
		cmd.Env = append(cmd.Env,
			"GIT_COMMITTER_NAME="+author.Name,
			"GIT_COMMITTER_EMAIL="+author.Email,
		)
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}
