package gorelease

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/bcomnes/gorelease/internal/errors"
)

// Changelog presets understood by ConventionalChangelog.
const (
	PresetAngular             = "angular"
	PresetConventionalCommits = "conventionalcommits"
	PresetPlain               = "plain"
)

// DefaultPreset is used when no preset is configured.
const DefaultPreset = PresetAngular

type section struct {
	title string
	types []string
}

var presetSections = map[string][]section{
	PresetAngular: {
		{"Features", []string{"feat"}},
		{"Bug Fixes", []string{"fix"}},
		{"Performance Improvements", []string{"perf"}},
		{"Reverts", []string{"revert"}},
	},
	PresetConventionalCommits: {
		{"Features", []string{"feat"}},
		{"Bug Fixes", []string{"fix"}},
		{"Performance Improvements", []string{"perf"}},
		{"Reverts", []string{"revert"}},
		{"Code Refactoring", []string{"refactor"}},
		{"Documentation", []string{"docs"}},
		{"Tests", []string{"test"}},
		{"Build System", []string{"build"}},
		{"Continuous Integration", []string{"ci"}},
		{"Miscellaneous Chores", []string{"chore"}},
	},
}

// ConventionalChangelog renders release notes from conventional commit messages.
type ConventionalChangelog struct {
	Commits CommitSource
	// Now dates the entries. time.Now when nil.
	Now func() time.Time
}

func (g *ConventionalChangelog) date() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	return now().Format(time.DateOnly)
}

// Generate writes the entry for version, built from the commits since the latest tag.
func (g *ConventionalChangelog) Generate(ctx context.Context, preset, version string, w io.Writer) error {
	if preset == "" {
		preset = DefaultPreset
	}

	sections, known := presetSections[preset]
	if !known && preset != PresetPlain {
		return errors.Errorf("unknown changelog preset %q", preset)
	}

	commits, err := g.Commits.CommitsSinceLatestTag(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "## %s (%s)\n\n", version, g.date())

	if preset == PresetPlain {
		for _, c := range commits {
			fmt.Fprintf(&buf, "* %s (%s)\n", c.Subject, c.ShortHash())
		}

		if len(commits) > 0 {
			buf.WriteString("\n")
		}
	} else {
		writeSections(&buf, sections, commits)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}

func writeSections(buf *bytes.Buffer, sections []section, commits []Commit) {
	var breaking []Commit

	for _, c := range commits {
		if c.Breaking {
			breaking = append(breaking, c)
		}
	}

	for _, s := range sections {
		var entries []Commit

		for _, c := range commits {
			for _, t := range s.types {
				if c.Type == t {
					entries = append(entries, c)
				}
			}
		}

		if len(entries) == 0 {
			continue
		}

		fmt.Fprintf(buf, "### %s\n\n", s.title)

		for _, c := range entries {
			writeEntry(buf, c)
		}

		buf.WriteString("\n")
	}

	if len(breaking) > 0 {
		buf.WriteString("### BREAKING CHANGES\n\n")

		for _, c := range breaking {
			writeEntry(buf, c)
		}

		buf.WriteString("\n")
	}
}

func writeEntry(buf *bytes.Buffer, c Commit) {
	if c.Scope != "" {
		fmt.Fprintf(buf, "* **%s:** %s (%s)\n", c.Scope, c.Description, c.ShortHash())

		return
	}

	fmt.Fprintf(buf, "* %s (%s)\n", c.Description, c.ShortHash())
}

// ChangelogNames are the file names recognised as the changelog, in lookup order.
var ChangelogNames = []string{"changelog.md", "Changelog.md", "CHANGELOG.md"}

// DefaultChangelogName is written when the directory has no changelog yet.
const DefaultChangelogName = "CHANGELOG.md"

// BackupPrefix is prepended to the changelog name while a transaction is in flight.
const BackupPrefix = ".gorelease-backup"

// Changelog updates the changelog in Dir as a backup, regenerate, commit, cleanup sequence.
type Changelog struct {
	FS        afero.Fs
	Dir       string
	Generator ChangelogGenerator
	Git       Git
	Logger    logrus.FieldLogger

	Enabled bool
	Commit  bool
	Preset  string
	// Append adds the entry at the end of the file and Prepend puts it on top. With neither,
	// the entry replaces the file content.
	Append  bool
	Prepend bool
}

// FileName returns the name of the existing changelog, or DefaultChangelogName.
func (c *Changelog) FileName() (string, bool, error) {
	for _, name := range ChangelogNames {
		_, err := c.FS.Stat(filepath.Join(c.Dir, name))
		if err == nil {
			return name, true, nil
		}

		if !os.IsNotExist(err) {
			return "", false, errors.WithStackTraceAndPrefix(err, "looking for %s", name)
		}
	}

	return DefaultChangelogName, false, nil
}

func (c *Changelog) path(name string) string {
	return filepath.Join(c.Dir, name)
}

func (c *Changelog) backupPath(name string) string {
	return filepath.Join(c.Dir, BackupPrefix+"."+name)
}

// Backup copies the existing changelog aside. It reports false when there was nothing to copy.
// A backup left by an earlier run is never overwritten.
func (c *Changelog) Backup() (bool, error) {
	name, exists, err := c.FileName()
	if err != nil {
		return false, err
	}

	backup := c.backupPath(name)

	stale, err := afero.Exists(c.FS, backup)
	if err != nil {
		return false, errors.WithStackTrace(err)
	}

	if stale {
		return false, fmt.Errorf("%w: %s", ErrBackupExists, backup)
	}

	if !exists {
		return false, nil
	}

	if err := copyFile(c.FS, c.path(name), backup); err != nil {
		return false, err
	}

	return true, nil
}

// Regenerate renders the entry for label into the changelog.
func (c *Changelog) Regenerate(ctx context.Context, label string) (string, error) {
	name, _, err := c.FileName()
	if err != nil {
		return "", err
	}

	path := c.path(name)

	var entry bytes.Buffer
	if err := c.Generator.Generate(ctx, c.Preset, label, &entry); err != nil {
		return "", err
	}

	content := entry.Bytes()

	if c.Append || c.Prepend {
		previous, err := afero.ReadFile(c.FS, path)
		if err != nil && !os.IsNotExist(err) {
			return "", errors.WithStackTraceAndPrefix(err, "reading %s", path)
		}

		if c.Append {
			content = append(previous, content...)
		} else {
			content = append(content, previous...)
		}
	}

	if err := afero.WriteFile(c.FS, path, content, 0o644); err != nil {
		return "", errors.WithStackTraceAndPrefix(err, "writing %s", path)
	}

	return path, nil
}

// Cleanup removes the backup. A missing backup is not an error. Callers only clean up a backup
// their own Backup call made.
func (c *Changelog) Cleanup() error {
	name, _, err := c.FileName()
	if err != nil {
		return err
	}

	if err := c.FS.Remove(c.backupPath(name)); err != nil && !os.IsNotExist(err) {
		return errors.WithStackTraceAndPrefix(err, "removing changelog backup")
	}

	return nil
}

// Restore puts the backup back in place of the changelog and removes it.
func (c *Changelog) Restore() error {
	name, _, err := c.FileName()
	if err != nil {
		return err
	}

	backup := c.backupPath(name)

	if _, err := c.FS.Stat(backup); err != nil {
		if os.IsNotExist(err) {
			return errors.WithStackTrace(ErrBackupNotFound)
		}

		return errors.WithStackTrace(err)
	}

	if err := copyFile(c.FS, backup, c.path(name)); err != nil {
		return err
	}

	if err := c.FS.Remove(backup); err != nil {
		return errors.WithStackTraceAndPrefix(err, "removing changelog backup")
	}

	return nil
}

// Update runs the whole transaction for label and returns the path of the changelog, or ""
// when changelog updates are off. On failure the backup is left in place for Restore.
func (c *Changelog) Update(ctx context.Context, label string) (string, error) {
	log := loggerOrDiscard(c.Logger)

	if !c.Enabled {
		log.Debug("Skipping changelog update, changelog mode is off")

		return "", nil
	}

	backedUp, err := c.Backup()
	if err != nil {
		return "", err
	}

	log.WithField("backup", backedUp).Debugf("Regenerating changelog with preset %s, append %t, prepend %t", c.Preset, c.Append, c.Prepend)

	path, err := c.Regenerate(ctx, label)
	if err != nil {
		return "", err
	}

	if c.Commit {
		message := "docs(changelog): bump to " + label
		if err := c.Git.Commit(ctx, []string{path}, message); err != nil {
			return "", err
		}

		log.Infof("Changelog committed with message: '%s'", message)
	} else {
		log.Infof("Bump to %s completed, no commits made", label)
	}

	if !backedUp {
		return path, nil
	}

	if err := c.Cleanup(); err != nil {
		return "", err
	}

	return path, nil
}

func copyFile(fs afero.Fs, src, dst string) error {
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "reading %s", src)
	}

	info, err := fs.Stat(src)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if err := afero.WriteFile(fs, dst, data, info.Mode().Perm()); err != nil {
		return errors.WithStackTraceAndPrefix(err, "writing %s", dst)
	}

	return nil
}

