package gorelease

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/bcomnes/gorelease/internal/errors"
)


// GitError is a failed git invocation.
type GitError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %s failed: %v, detail: %s", e.Op, e.Err, e.Stderr)
	}

	return fmt.Sprintf("git %s failed: %v", e.Op, e.Err)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// GitRunner implements Git by running the git executable in WorkDir.
type GitRunner struct {
	GitPath string
	WorkDir string
}

// NewGitRunner looks up git on the PATH and runs it in workDir.
func NewGitRunner(workDir string) (*GitRunner, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, errors.WithStackTrace(ErrGitNotFound)
	}

	return &GitRunner{GitPath: gitPath, WorkDir: workDir}, nil
}

func (g *GitRunner) prepareCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	gitPath := g.GitPath
	if gitPath == "" {
		gitPath = "git"
	}

	cmd := exec.CommandContext(ctx, gitPath, append([]string{name}, args...)...)
	cmd.Dir = g.WorkDir

	return cmd
}

// run executes a git subcommand and returns its trimmed stdout.
func (g *GitRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := g.prepareCommand(ctx, name, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.WithStackTrace(&GitError{
			Op:     name,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		})
	}

	return strings.TrimSpace(stdout.String()), nil
}

// ListTags returns the tags of the repository, keeping only those matching pattern when it
// is not nil.
func (g *GitRunner) ListTags(ctx context.Context, pattern *regexp.Regexp) ([]string, error) {
	out, err := g.run(ctx, "tag", "--list")
	if err != nil {
		return nil, err
	}

	var tags []string

	for line := range strings.SplitSeq(out, "\n") {
		tag := strings.TrimSpace(line)
		if tag == "" {
			continue
		}

		if pattern != nil && !pattern.MatchString(tag) {
			continue
		}

		tags = append(tags, tag)
	}

	return tags, nil
}

// TagExists reports whether refs/tags/<tag> exists.
func (g *GitRunner) TagExists(ctx context.Context, tag string) (bool, error) {
	out, err := g.run(ctx, "tag", "--list", tag)
	if err != nil {
		return false, err
	}

	return out == tag, nil
}

// ResolveTag returns the commit hash the tag points at.
func (g *GitRunner) ResolveTag(ctx context.Context, tag string) (string, error) {
	out, err := g.run(ctx, "rev-list", "-n", "1", "refs/tags/"+tag)
	if err != nil {
		var gitErr *GitError
		if errors.As(err, &gitErr) {
			return "", fmt.Errorf("%w: %s: %s", ErrTagNotFound, tag, gitErr.Stderr)
		}

		return "", err
	}

	if out == "" {
		return "", fmt.Errorf("%w: %s", ErrTagNotFound, tag)
	}

	return out, nil
}

// CommitCountSince counts the commits reachable from HEAD but not from commit.
func (g *GitRunner) CommitCountSince(ctx context.Context, commit string) (int, error) {
	out, err := g.run(ctx, "rev-list", "--count", commit+"..HEAD")
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(out)
	if err != nil {
		return 0, errors.Errorf("unexpected rev-list output %q: %v", out, err)
	}

	return count, nil
}

// CreateTag creates a lightweight tag on HEAD. Git refuses existing tags.
func (g *GitRunner) CreateTag(ctx context.Context, tag string) error {
	_, err := g.run(ctx, "tag", tag)

	return err
}

// Commit stages paths and commits them with message.
func (g *GitRunner) Commit(ctx context.Context, paths []string, message string) error {
	if len(paths) > 0 {
		if _, err := g.run(ctx, "add", append([]string{"--"}, paths...)...); err != nil {
			return err
		}
	}

	_, err := g.run(ctx, "commit", "-m", message)

	return err
}

// CurrentBranch returns the checked out branch, or "HEAD" when detached.
func (g *GitRunner) CurrentBranch(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// RootDir returns the top level directory of the working tree.
func (g *GitRunner) RootDir(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--show-toplevel")
}
