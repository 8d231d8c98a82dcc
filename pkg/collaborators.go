package gorelease

import (
	"context"
	"io"
	"regexp"
)

// Prompt asks the user questions. Every call blocks until the user answers.
type Prompt interface {
	Confirm(ctx context.Context, message string) (bool, error)
	Input(ctx context.Context, message, def string) (string, error)
	// List returns one of choices verbatim.
	List(ctx context.Context, message string, choices []string) (string, error)
}

// Git is the repository query and mutation surface the release engine needs.
type Git interface {
	// ListTags returns the repository tags, filtered by pattern when it is not nil.
	ListTags(ctx context.Context, pattern *regexp.Regexp) ([]string, error)
	TagExists(ctx context.Context, tag string) (bool, error)
	// ResolveTag returns the commit the tag points at. Missing tags wrap ErrTagNotFound.
	ResolveTag(ctx context.Context, tag string) (string, error)
	CommitCountSince(ctx context.Context, commit string) (int, error)
	// CreateTag fails if the tag already exists.
	CreateTag(ctx context.Context, tag string) error
	Commit(ctx context.Context, paths []string, message string) error
	CurrentBranch(ctx context.Context) (string, error)
	RootDir(ctx context.Context) (string, error)
}

// ManifestReader loads and updates project manifests.
type ManifestReader interface {
	// Read loads the manifest in dir. It wraps ErrManifestNotFound when dir has none and
	// returns *InvalidManifestVersionError when the version field is malformed.
	Read(dir string) (*Manifest, error)
	// WriteVersion rewrites the version field of m.
	WriteVersion(m *Manifest, version string) error
}

// BumpFinder suggests a bump type from the commits since the last release.
type BumpFinder interface {
	SuggestBumpType(ctx context.Context) (BumpType, error)
}

// ChangelogGenerator renders changelog entries for version in the given preset, streaming
// the text into w.
type ChangelogGenerator interface {
	Generate(ctx context.Context, preset, version string, w io.Writer) error
}

// SessionStore persists the SessionConfig between runs.
type SessionStore interface {
	Load() (*SessionConfig, error)
	Save(cfg *SessionConfig) error
}
