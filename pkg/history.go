package gorelease

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/sirupsen/logrus"

	"github.com/bcomnes/gorelease/internal/errors"
)

// Commit is a commit message split along the conventional commits format.
type Commit struct {
	Hash    string
	Subject string
	Body    string

	// Type and Scope are empty when the subject does not follow the convention.
	Type        string
	Scope       string
	Description string
	Breaking    bool
}

// ShortHash returns the first seven characters of the hash.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}

	return c.Hash
}

var conventionalSubjectRegex = regexp.MustCompile(`^(\w+)(?:\(([^)]*)\))?(!)?:\s*(.+)$`)

// ParseCommitMessage splits a raw commit message into a Commit.
func ParseCommitMessage(hash, message string) Commit {
	subject, body, _ := strings.Cut(strings.TrimSpace(message), "\n")

	c := Commit{
		Hash:        hash,
		Subject:     strings.TrimSpace(subject),
		Body:        strings.TrimSpace(body),
		Description: strings.TrimSpace(subject),
	}

	if m := conventionalSubjectRegex.FindStringSubmatch(c.Subject); m != nil {
		c.Type = strings.ToLower(m[1])
		c.Scope = m[2]
		c.Breaking = m[3] == "!"
		c.Description = m[4]
	}

	if strings.Contains(c.Body, "BREAKING CHANGE") || strings.Contains(c.Body, "BREAKING-CHANGE") {
		c.Breaking = true
	}

	return c
}

// History reads the commit log of the repository containing Dir.
type History struct {
	Dir string
}

func (h *History) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(h.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "opening repository at %s", h.Dir)
	}

	return repo, nil
}

// LatestTag returns the highest semver tag in the repository, or "" when there is none.
func (h *History) LatestTag(ctx context.Context) (string, error) {
	repo, err := h.open()
	if err != nil {
		return "", err
	}

	return latestTag(ctx, repo)
}

func latestTag(ctx context.Context, repo *git.Repository) (string, error) {
	refs, err := repo.Tags()
	if err != nil {
		return "", errors.WithStackTrace(err)
	}
	defer refs.Close()

	var tags []string

	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if name := ref.Name().Short(); IsValidLabel(name) {
			tags = append(tags, name)
		}

		return nil
	})
	if err != nil {
		return "", errors.WithStackTrace(err)
	}

	return LatestLabel(tags), nil
}

// CommitsSince returns the commits reachable from HEAD, newest first, stopping at the commit
// tag points at. An empty tag returns the whole history.
func (h *History) CommitsSince(ctx context.Context, tag string) ([]Commit, error) {
	repo, err := h.open()
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "resolving HEAD")
	}

	released := map[plumbing.Hash]bool{}

	if tag != "" {
		hash, err := repo.ResolveRevision(plumbing.Revision("refs/tags/" + tag))
		if err != nil {
			return nil, errors.WithStackTrace(&NoTagError{Tag: tag, Err: ErrTagNotFound})
		}

		if err := walkLog(ctx, repo, *hash, func(c *object.Commit) {
			released[c.Hash] = true
		}); err != nil {
			return nil, err
		}
	}

	var commits []Commit

	err = walkLog(ctx, repo, head.Hash(), func(c *object.Commit) {
		if !released[c.Hash] {
			commits = append(commits, ParseCommitMessage(c.Hash.String(), c.Message))
		}
	})
	if err != nil {
		return nil, err
	}

	return commits, nil
}

// walkLog calls fn for every commit reachable from the given one.
func walkLog(ctx context.Context, repo *git.Repository, from plumbing.Hash, fn func(*object.Commit)) error {
	iter, err := repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		fn(c)

		return nil
	})
	if err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}

// CommitsSinceLatestTag returns the commits since the highest semver tag.
func (h *History) CommitsSinceLatestTag(ctx context.Context) ([]Commit, error) {
	tag, err := h.LatestTag(ctx)
	if err != nil {
		return nil, err
	}

	return h.CommitsSince(ctx, tag)
}

// CommitSource lists the commits that make up the next release.
type CommitSource interface {
	CommitsSinceLatestTag(ctx context.Context) ([]Commit, error)
}

// ConventionalBumpFinder suggests a bump type from conventional commit messages.
type ConventionalBumpFinder struct {
	Commits CommitSource
	Logger  logrus.FieldLogger
}

// SuggestBumpType returns major for breaking changes, minor for features and patch otherwise.
func (f *ConventionalBumpFinder) SuggestBumpType(ctx context.Context) (BumpType, error) {
	commits, err := f.Commits.CommitsSinceLatestTag(ctx)
	if err != nil {
		return "", err
	}

	bump := BumpPatch

	for _, c := range commits {
		if c.Breaking {
			bump = BumpMajor

			break
		}

		if c.Type == "feat" {
			bump = BumpMinor
		}
	}

	loggerOrDiscard(f.Logger).WithField("commits", len(commits)).Debugf("Suggested bump type %s", bump)

	return bump, nil
}
