package gorelease

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bcomnes/gorelease/internal/errors"
)

// Classification is the release readiness of a repository.
type Classification int

const (
	NoTag Classification = iota + 1
	FirstTag
	InvalidTag
	Pristine
	Valid
)

func (c Classification) String() string {
	switch c {
	case NoTag:
		return "NoTag"
	case FirstTag:
		return "FirstTag"
	case InvalidTag:
		return "InvalidTag"
	case Pristine:
		return "Pristine"
	case Valid:
		return "Valid"
	}

	return fmt.Sprintf("Classification(%d)", int(c))
}

// RepositoryState is the outcome of one classification.
type RepositoryState struct {
	Classification Classification
	// Tag is the tag the classification was derived from, as it exists in the repository.
	// It is empty for NoTag and FirstTag, and holds the offending version for InvalidTag.
	Tag string
	// Commit is the commit Tag resolves to, set for Pristine and Valid.
	Commit  string
	Commits int
}

// Classifier derives the RepositoryState from tags, the session and the commit distance.
type Classifier struct {
	Git      Git
	Prompt   Prompt
	Prefixed bool
	Logger   logrus.FieldLogger
}

// currentTag is the version of record: the accepted manifest's version, or the session's.
func currentTag(session *SessionConfig) string {
	if session.ManifestVersioned() {
		return session.Manifest.Version
	}

	return session.CurrentSemVer
}

// findTag returns the repository tag that denotes the same release as label, "v" or not.
func (c *Classifier) findTag(ctx context.Context, label string) (string, bool, error) {
	exists, err := c.Git.TagExists(ctx, label)
	if err != nil {
		return "", false, err
	}

	if exists {
		return label, true, nil
	}

	tags, err := c.Git.ListTags(ctx, anyLabelRegex)
	if err != nil {
		return "", false, err
	}

	for _, tag := range tags {
		if CompareLabels(tag, label) == 0 {
			return tag, true, nil
		}
	}

	return "", false, nil
}

// Classify computes the classification for the current repository and session.
func (c *Classifier) Classify(ctx context.Context, session *SessionConfig) (RepositoryState, error) {
	log := loggerOrDiscard(c.Logger)

	tags, err := c.Git.ListTags(ctx, nil)
	if err != nil {
		return RepositoryState{}, err
	}

	if len(tags) == 0 {
		return RepositoryState{Classification: NoTag}, nil
	}

	raw := currentTag(session)
	if session.ManifestVersioned() && !IsValidLabel(raw) {
		log.Debugf("Manifest version %q is not a valid label", raw)

		return RepositoryState{Classification: InvalidTag, Tag: raw}, nil
	}

	label := raw
	if label == "" {
		label = baseLabel
	}

	label, err = NormalizeLabel(label, c.Prefixed)
	if err != nil {
		return RepositoryState{}, err
	}

	tag, found, err := c.findTag(ctx, label)
	if err != nil {
		return RepositoryState{}, err
	}

	if !found {
		message := fmt.Sprintf("Tag %s is not present in repository, continue?", label)

		ok, err := c.Prompt.Confirm(ctx, message)
		if err != nil {
			return RepositoryState{}, err
		}

		if !ok {
			return RepositoryState{}, &UserAbortedError{Prompt: message}
		}

		existing, err := c.Git.ListTags(ctx, TagPattern(c.Prefixed))
		if err != nil {
			return RepositoryState{}, err
		}

		var valid []string
		for _, t := range existing {
			if IsValidLabel(t) {
				valid = append(valid, t)
			}
		}

		if len(valid) == 0 {
			return RepositoryState{Classification: FirstTag}, nil
		}

		tag = LatestLabel(valid)
		log.Debugf("Using latest tag %s instead of %s", tag, label)
	}

	commit, err := c.Git.ResolveTag(ctx, tag)
	if err != nil {
		if errors.Is(err, ErrTagNotFound) {
			return RepositoryState{}, &NoTagError{Tag: tag, Err: err}
		}

		return RepositoryState{}, err
	}

	count, err := c.Git.CommitCountSince(ctx, commit)
	if err != nil {
		return RepositoryState{}, err
	}

	state := RepositoryState{Tag: tag, Commit: commit, Commits: count, Classification: Valid}
	if count == 0 {
		state.Classification = Pristine
	}

	return state, nil
}
