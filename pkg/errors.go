package gorelease

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by collaborators. Wrapped values are matched with errors.Is.
var (
	// ErrTagNotFound is returned by Git.ResolveTag when the tag cannot be resolved to a commit.
	ErrTagNotFound = errors.New("tag not found")
	// ErrManifestNotFound is returned by ManifestReader.Read when the directory holds no manifest.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrBackupNotFound is returned by Changelog.Restore when there is no backup to restore.
	ErrBackupNotFound = errors.New("the changelog backup file was not found")
	// ErrBackupExists is returned by Changelog.Backup when a previous run left its backup behind.
	ErrBackupExists = errors.New("a changelog backup from a previous run exists, restore or remove it")
	// ErrUnknownAnswer is returned when a prompt answers with a choice that was not offered.
	ErrUnknownAnswer = errors.New("unknown answer")
	// ErrGitNotFound is returned when no git executable is on the PATH.
	ErrGitNotFound = errors.New("git is not available on the system")
)

// UserAbortedError is returned when the user declines a confirmation or chooses Abort.
type UserAbortedError struct {
	Prompt string
}

func (e *UserAbortedError) Error() string {
	if e.Prompt == "" {
		return "user aborted the execution"
	}

	return fmt.Sprintf("user aborted the execution at %q", e.Prompt)
}

// ExhaustedDirectoryError is returned when the manifest search reached the repository root
// without an accepted manifest.
type ExhaustedDirectoryError struct {
	Dir      string
	RepoRoot string
}

func (e *ExhaustedDirectoryError) Error() string {
	return fmt.Sprintf("exhausted all directories within repository %s (stopped at %s)", e.RepoRoot, e.Dir)
}

// InvalidManifestVersionError is returned when a manifest exists but its version field is not
// a semantic version.
type InvalidManifestVersionError struct {
	Path    string
	Version string
	Err     error
}

func (e *InvalidManifestVersionError) Error() string {
	return fmt.Sprintf("manifest %s has an invalid version %q: %v", e.Path, e.Version, e.Err)
}

func (e *InvalidManifestVersionError) Unwrap() error {
	return e.Err
}

// InvalidTagError is returned when the tag of record is not a valid semantic version.
type InvalidTagError struct {
	Tag string
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("no valid semver tag found in repository (got %q), fix the tags manually", e.Tag)
}

// NoTagError is returned when a tag was listed but could not be resolved to a commit.
type NoTagError struct {
	Tag string
	Err error
}

func (e *NoTagError) Error() string {
	return fmt.Sprintf("tag %s could not be resolved to a commit: %v", e.Tag, e.Err)
}

func (e *NoTagError) Unwrap() error {
	return e.Err
}

// NoNewCommitError is returned when the latest tag already points at HEAD and the bump was
// not forced.
type NoNewCommitError struct {
	Tag string
}

func (e *NoNewCommitError) Error() string {
	return fmt.Sprintf("no new commits since last valid semver tag %s, aborting", e.Tag)
}

// InvalidLabelError is returned when a label does not follow semver.
type InvalidLabelError struct {
	Label string
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("the provided label %q does not follow semver", e.Label)
}

// InvalidBumpTypeError is returned for bump types other than the supported ones.
type InvalidBumpTypeError struct {
	BumpType string
}

func (e *InvalidBumpTypeError) Error() string {
	return fmt.Sprintf("unknown bump argument: %s", e.BumpType)
}
