package gorelease

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/bcomnes/gorelease/internal/errors"
)

// DefaultDevelopBranch is offered when asking for the develop branch name.
const DefaultDevelopBranch = "develop"

// Options configure a single release run.
type Options struct {
	// Release is the bump type. Empty asks the user.
	Release    string
	Identifier string
	Prefix     bool
	Force      bool
	Commit     bool

	Changelog bool
	Preset    string
	Append    bool
	Prepend   bool

	UpdateManifest bool
	// StrictManifest fails the run when the manifest search ends without a manifest.
	StrictManifest bool
	Reset          bool
	FindManifest   bool

	// BumpFiles get their main version rewritten along with the manifest.
	BumpFiles []string
	Dry       bool

	// WorkDir is where the manifest search starts and where the changelog lives.
	WorkDir string
}

// DefaultOptions returns the options used when no flag is given.
func DefaultOptions() Options {
	return Options{
		Release:        string(BumpMinor),
		Prefix:         true,
		Commit:         true,
		Changelog:      true,
		Preset:         DefaultPreset,
		UpdateManifest: true,
	}
}

// ReleaseMeta describes the outcome of a release run.
type ReleaseMeta struct {
	OldVersion     string
	NewVersion     string
	BumpType       BumpType
	Classification Classification
	// UpdatedFiles lists every file written, changelog included.
	UpdatedFiles []string
	Tagged       bool
	DryRun       bool
}

// Releaser decides whether a release is due, computes its label and applies it.
type Releaser struct {
	Git        Git
	Prompt     Prompt
	Manifests  ManifestReader
	BumpFinder BumpFinder
	Generator  ChangelogGenerator
	Sessions   SessionStore
	FS         afero.Fs
	Logger     logrus.FieldLogger
}

func (r *Releaser) fs() afero.Fs {
	if r.FS == nil {
		return afero.NewOsFs()
	}

	return r.FS
}

// Run performs one release attempt.
func (r *Releaser) Run(ctx context.Context, opts Options) (meta ReleaseMeta, err error) {
	log := loggerOrDiscard(r.Logger)
	meta.DryRun = opts.Dry

	repoRoot, err := r.Git.RootDir(ctx)
	if err != nil {
		return meta, err
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = repoRoot
	}

	session, err := r.Sessions.Load()
	if err != nil {
		return meta, err
	}

	if !opts.Dry {
		defer func() {
			if saveErr := r.Sessions.Save(session); saveErr != nil && err == nil {
				err = saveErr
			}
		}()
	}

	release, err := r.releaseType(ctx, opts)
	if err != nil {
		return meta, err
	}

	if err := r.configure(ctx, session, opts, workDir, repoRoot); err != nil {
		return meta, err
	}

	if err := r.syncSemVer(ctx, session); err != nil {
		return meta, err
	}

	classifier := &Classifier{Git: r.Git, Prompt: r.Prompt, Prefixed: opts.Prefix, Logger: log}

	state, err := classifier.Classify(ctx, session)
	if err != nil {
		return meta, err
	}

	meta.Classification = state.Classification
	log.WithField("tag", state.Tag).Debugf("The branch status is %s", state.Classification)

	from, err := r.startLabel(ctx, state, session, opts)
	if err != nil {
		return meta, err
	}

	meta.OldVersion = from

	bump, err := r.bumpType(ctx, release, session)
	if err != nil {
		return meta, err
	}

	meta.BumpType = bump

	next, err := IncrementLabel(from, bump, opts.Identifier)
	if err != nil {
		return meta, err
	}

	label, err := NormalizeLabel(next, opts.Prefix)
	if err != nil {
		return meta, err
	}

	meta.NewVersion = label
	log.Debugf("Made %s from %s with %s and identifier %q", label, from, bump, opts.Identifier)

	if opts.Dry {
		log.Infof("Dry run: would release %s", label)

		return meta, nil
	}

	if err := r.apply(ctx, session, opts, workDir, label, &meta); err != nil {
		return meta, err
	}

	return meta, nil
}

// releaseType validates the requested bump type, asking for one when none was given.
func (r *Releaser) releaseType(ctx context.Context, opts Options) (BumpType, error) {
	if opts.Release != "" {
		return ParseBumpType(opts.Release)
	}

	answer, err := r.Prompt.List(ctx, "What type of increment do you want?", ReleaseChoices)
	if err != nil {
		return "", err
	}

	loggerOrDiscard(r.Logger).Debugf("Setting release as %s", answer)

	return ParseBumpType(answer)
}

// configure prepares the session: reset, manifest refresh and search, develop branch setup.
func (r *Releaser) configure(ctx context.Context, session *SessionConfig, opts Options, workDir, repoRoot string) error {
	log := loggerOrDiscard(r.Logger)

	if opts.Reset {
		log.Debug("Resetting the session")
		*session = *NewSessionConfig()
	}

	if opts.FindManifest {
		session.DeleteManifest()
		session.ManifestExhausted = false
	}

	if err := r.refreshManifest(session); err != nil {
		return err
	}

	if !session.ManifestExhausted {
		resolver := &ManifestResolver{Reader: r.Manifests, Prompt: r.Prompt, Logger: log}

		if _, err := resolver.Resolve(ctx, session, workDir, repoRoot); err != nil {
			var exhausted *ExhaustedDirectoryError
			if opts.StrictManifest || !errors.As(err, &exhausted) {
				return err
			}

			log.Warnf("No manifest in use: %v", err)
		}
	}

	if session.Configured {
		log.Debug("Already configured, skipping default config")

		return nil
	}

	if err := r.askDevelopBranch(ctx, session); err != nil {
		return err
	}

	session.Configured = true
	log.Debug("Configuration completed")

	return nil
}

// refreshManifest re-reads an accepted manifest so edits made between runs are seen.
func (r *Releaser) refreshManifest(session *SessionConfig) error {
	if !session.UsesManifest() {
		return nil
	}

	m, err := r.Manifests.Read(session.Manifest.Dir)
	if errors.Is(err, ErrManifestNotFound) {
		loggerOrDiscard(r.Logger).Warnf("Manifest %s is gone, searching again", session.Manifest.Path)
		session.DeleteManifest()
		session.ManifestExhausted = false

		return nil
	}

	if err != nil {
		return err
	}

	session.SetManifest(m)

	return nil
}

func (r *Releaser) askDevelopBranch(ctx context.Context, session *SessionConfig) error {
	uses, err := r.Prompt.Confirm(ctx, "Is this repo using a develop branch?")
	if err != nil {
		return err
	}

	if !uses {
		session.DevelopBranch = ""

		return nil
	}

	name, err := r.Prompt.Input(ctx, "Whats the develop branch name? [develop]", DefaultDevelopBranch)
	if err != nil {
		return err
	}

	if name == "" {
		name = DefaultDevelopBranch
	}

	session.DevelopBranch = name

	return nil
}

// syncSemVer records the latest known version as the current semver of the session.
func (r *Releaser) syncSemVer(ctx context.Context, session *SessionConfig) error {
	var versions []string

	if session.ManifestVersioned() {
		versions = []string{session.Manifest.Version}
	} else {
		tags, err := r.Git.ListTags(ctx, anyLabelRegex)
		if err != nil {
			return err
		}

		for _, tag := range tags {
			if IsValidLabel(tag) {
				versions = append(versions, tag)
			}
		}
	}

	if len(versions) == 0 {
		session.CurrentSemVer = ""

		message := "No valid semver tags found, continue?"

		ok, err := r.Prompt.Confirm(ctx, message)
		if err != nil {
			return err
		}

		if !ok {
			return &UserAbortedError{Prompt: message}
		}

		session.CurrentSemVer = baseLabel

		return nil
	}

	session.CurrentSemVer = LatestLabel(versions)

	return nil
}

// startLabel picks the label the next version is computed from.
func (r *Releaser) startLabel(ctx context.Context, state RepositoryState, session *SessionConfig, opts Options) (string, error) {
	switch state.Classification {
	case Pristine:
		if !opts.Force {
			return "", &NoNewCommitError{Tag: state.Tag}
		}

		return state.Tag, nil
	case Valid:
		if session.ManifestVersioned() {
			return session.Manifest.Version, nil
		}

		return state.Tag, nil
	case FirstTag:
		return NormalizeLabel(baseLabel, opts.Prefix)
	case NoTag:
		if session.ManifestVersioned() {
			return session.Manifest.Version, nil
		}

		message := "No tags are found. Create first tag?"

		ok, err := r.Prompt.Confirm(ctx, message)
		if err != nil {
			return "", err
		}

		if !ok {
			return "", &UserAbortedError{Prompt: message}
		}

		return NormalizeLabel(baseLabel, opts.Prefix)
	case InvalidTag:
		return "", &InvalidTagError{Tag: state.Tag}
	}

	return "", errors.Errorf("unknown branch status %s", state.Classification)
}

// bumpType resolves automatic releases and coerces releases on the develop branch to
// pre-releases.
func (r *Releaser) bumpType(ctx context.Context, release BumpType, session *SessionConfig) (BumpType, error) {
	log := loggerOrDiscard(r.Logger)
	bump := release

	if release == BumpAutomatic {
		if r.BumpFinder == nil {
			return "", errors.New("automatic release requested without a bump finder")
		}

		suggested, err := r.BumpFinder.SuggestBumpType(ctx)
		if err != nil {
			return "", err
		}

		bump = suggested
	}

	if session.DevelopBranch != "" {
		branch, err := r.Git.CurrentBranch(ctx)
		if err != nil {
			return "", err
		}

		if branch == session.DevelopBranch {
			bump = bump.Prerelease()
		}
	}

	log.Debugf("Bump type set to %s, with release type %s", bump, release)

	return bump, nil
}

// apply writes label to the changelog, the session, the manifest and the bump files, then
// commits and tags.
func (r *Releaser) apply(ctx context.Context, session *SessionConfig, opts Options, workDir, label string, meta *ReleaseMeta) error {
	log := loggerOrDiscard(r.Logger)

	changelog := &Changelog{
		FS:        r.fs(),
		Dir:       workDir,
		Generator: r.Generator,
		Git:       r.Git,
		Logger:    log,
		Enabled:   opts.Changelog,
		Commit:    opts.Commit,
		Preset:    opts.Preset,
		Append:    opts.Append,
		Prepend:   opts.Prepend,
	}

	changelogPath, err := changelog.Update(ctx, label)
	if err != nil {
		return err
	}

	if changelogPath != "" {
		meta.UpdatedFiles = append(meta.UpdatedFiles, changelogPath)
	}

	session.CurrentSemVer = label

	var releaseFiles []string

	switch {
	case !opts.UpdateManifest:
		log.Debug("Skipping manifest version update, flag not set")
	case !session.UsesManifest():
		log.Debug("Skipping manifest version update, no valid manifest")
	default:
		if err := r.Manifests.WriteVersion(session.Manifest, label); err != nil {
			return err
		}

		releaseFiles = append(releaseFiles, session.Manifest.Path)
		log.Infof("Manifest updated with version '%s'", label)
	}

	bumper := &VersionFileBumper{FS: r.fs()}

	for _, file := range opts.BumpFiles {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		updated, err := bumper.BumpMain(path, label)
		if err != nil {
			return err
		}

		if !updated {
			return errors.Errorf("no version found in %s", file)
		}

		releaseFiles = append(releaseFiles, path)
		log.Debugf("Bumped version in %s", path)
	}

	meta.UpdatedFiles = append(meta.UpdatedFiles, releaseFiles...)

	if !opts.Commit {
		log.Infof("Bump to %s completed, not committing", label)

		return nil
	}

	if len(releaseFiles) > 0 {
		if err := r.Git.Commit(ctx, releaseFiles, fmt.Sprintf("chore(release): %s", label)); err != nil {
			return err
		}
	}

	log.Infof("Creating new tag as '%s'", label)

	if err := r.Git.CreateTag(ctx, label); err != nil {
		return err
	}

	meta.Tagged = true

	return nil
}
