package gorelease

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/bcomnes/gorelease/internal/errors"
)

// DefaultManifestName is the manifest file looked up in each directory.
const DefaultManifestName = "package.json"

// Manifest is a project metadata file whose version may be the version of record.
type Manifest struct {
	Dir     string `yaml:"dir"`
	Path    string `yaml:"path"`
	Version string `yaml:"version,omitempty"`

	Raw map[string]any `yaml:"-"`
}

// JSONManifestReader reads package.json style manifests.
type JSONManifestReader struct {
	FS     afero.Fs
	Name   string
	Bumper *VersionFileBumper
}

// NewJSONManifestReader returns a reader for package.json on the OS filesystem.
func NewJSONManifestReader() *JSONManifestReader {
	fs := afero.NewOsFs()

	return &JSONManifestReader{
		FS:     fs,
		Name:   DefaultManifestName,
		Bumper: &VersionFileBumper{FS: fs},
	}
}

func (r *JSONManifestReader) name() string {
	if r.Name == "" {
		return DefaultManifestName
	}

	return r.Name
}

// Read loads the manifest in dir.
func (r *JSONManifestReader) Read(dir string) (*Manifest, error) {
	path := filepath.Join(dir, r.name())

	data, err := afero.ReadFile(r.FS, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrManifestNotFound, dir)
		}

		return nil, errors.WithStackTraceAndPrefix(err, "reading manifest %s", path)
	}

	raw := map[string]any{}
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return nil, &InvalidManifestVersionError{Path: path, Err: err}
	}

	m := &Manifest{Dir: dir, Path: path, Raw: raw}

	switch v := raw["version"].(type) {
	case nil:
	case string:
		if _, err := version.NewSemver(v); err != nil {
			return nil, &InvalidManifestVersionError{Path: path, Version: v, Err: err}
		}
		m.Version = v
	default:
		return nil, &InvalidManifestVersionError{
			Path:    path,
			Version: fmt.Sprint(v),
			Err:     fmt.Errorf("version is a %T, not a string", v),
		}
	}

	return m, nil
}

// WriteVersion rewrites the version field in place, keeping the rest of the file as is. A
// manifest without a version field gets one as its first property.
func (r *JSONManifestReader) WriteVersion(m *Manifest, newVersion string) error {
	bumper := r.Bumper
	if bumper == nil {
		bumper = &VersionFileBumper{FS: r.FS}
	}

	newVersion = strings.TrimPrefix(newVersion, "v")

	data, err := afero.ReadFile(bumper.FS, m.Path)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "reading manifest %s", m.Path)
	}

	if jsoniter.Get(data, "version").ValueType() == jsoniter.InvalidValue {
		if err := r.insertVersion(bumper.FS, m.Path, data, newVersion); err != nil {
			return err
		}
	} else {
		updated, err := bumper.BumpMain(m.Path, newVersion)
		if err != nil {
			return err
		}

		if !updated {
			return errors.Errorf("no version field found in %s", m.Path)
		}
	}

	m.Version = newVersion
	if m.Raw != nil {
		m.Raw["version"] = newVersion
	}

	return nil
}

func (r *JSONManifestReader) insertVersion(fs afero.Fs, path string, data []byte, newVersion string) error {
	content, err := insertVersionField(data, newVersion)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "adding a version to %s", path)
	}

	info, err := fs.Stat(path)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if err := afero.WriteFile(fs, path, content, info.Mode().Perm()); err != nil {
		return errors.WithStackTraceAndPrefix(err, "writing manifest %s", path)
	}

	return nil
}

// insertVersionField adds "version" as the first property of the top-level object, following
// the indentation of the property after it.
func insertVersionField(data []byte, newVersion string) ([]byte, error) {
	open := bytes.IndexByte(data, '{')
	if open < 0 {
		return nil, errors.Errorf("no JSON object found")
	}

	field := fmt.Sprintf("%q: %q", "version", newVersion)
	rest := data[open+1:]

	var out bytes.Buffer

	out.Write(data[:open+1])

	trimmed := bytes.TrimLeft(rest, " \t\r\n")
	nl := bytes.IndexByte(rest, '\n')

	switch {
	case len(trimmed) > 0 && trimmed[0] == '}':
		out.WriteString("\n  " + field + "\n")
		out.Write(trimmed)
	case nl >= 0 && len(bytes.TrimSpace(rest[:nl])) == 0:
		eol := "\n"
		if nl > 0 && rest[nl-1] == '\r' {
			eol = "\r\n"
		}

		next := rest[nl+1:]
		indent := next[:len(next)-len(bytes.TrimLeft(next, " \t"))]

		out.Write(rest[:nl+1])
		out.Write(indent)
		out.WriteString(field + "," + eol)
		out.Write(next)
	default:
		out.WriteString(field + ", ")
		out.Write(bytes.TrimLeft(rest, " \t"))
	}

	return out.Bytes(), nil
}

// Answers offered when a manifest candidate is found.
const (
	AnswerYes   = "Yes"
	AnswerNo    = "No"
	AnswerAbort = "Abort"
)

// ManifestResolver looks for the project manifest from the working directory up to the
// repository root, asking the user to confirm each candidate.
type ManifestResolver struct {
	Reader ManifestReader
	Prompt Prompt
	Logger logrus.FieldLogger
}

// searchDirs lists the directories the search may visit: startDir and its parents up to and
// including repoRoot. A startDir outside repoRoot is the only entry.
func searchDirs(startDir, repoRoot string) []string {
	dir := filepath.Clean(startDir)
	root := filepath.Clean(repoRoot)

	dirs := []string{dir}
	for isStrictlyInside(dir, root) {
		dir = filepath.Dir(dir)
		dirs = append(dirs, dir)
	}

	return dirs
}

// isStrictlyInside reports whether dir is below root.
func isStrictlyInside(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == "" {
		return false
	}

	return strings.Split(rel, string(filepath.Separator))[0] != ".."
}

// Resolve returns the manifest the user accepted, or nil when the search ended without one.
// A search that was already exhausted returns the session's manifest without prompting.
func (r *ManifestResolver) Resolve(ctx context.Context, session *SessionConfig, startDir, repoRoot string) (*Manifest, error) {
	if session.ManifestExhausted {
		if session.UsesManifest() {
			return session.Manifest, nil
		}

		return nil, nil
	}

	exhaust := func(dir string) error {
		session.ManifestExhausted = true
		session.ManifestValid = false

		return &ExhaustedDirectoryError{Dir: dir, RepoRoot: repoRoot}
	}

	log := loggerOrDiscard(r.Logger)
	dirs := searchDirs(startDir, repoRoot)

	for i, dir := range dirs {
		log.Debugf("Looking for a manifest in %s", dir)

		m, err := r.Reader.Read(dir)
		if errors.Is(err, ErrManifestNotFound) {
			message := fmt.Sprintf("No manifest found in %s, keep looking?", dir)

			keepLooking, err := r.Prompt.Confirm(ctx, message)
			if err != nil {
				return nil, err
			}

			if !keepLooking {
				session.ManifestExhausted = true
				session.ManifestValid = false

				return nil, nil
			}

			if i == len(dirs)-1 {
				return nil, exhaust(dir)
			}

			continue
		}

		if err != nil {
			var invalid *InvalidManifestVersionError
			if errors.As(err, &invalid) {
				return nil, err
			}

			return nil, &InvalidManifestVersionError{Path: dir, Err: err}
		}

		session.SetManifest(m)

		answer, err := r.Prompt.List(ctx,
			fmt.Sprintf("Manifest found in %s, is this file correct?", m.Path),
			[]string{AnswerYes, AnswerNo, AnswerAbort})
		if err != nil {
			return nil, err
		}

		switch answer {
		case AnswerYes:
			session.ManifestValid = true
			session.ManifestExhausted = true
			log.Debugf("Using manifest %s with version %q", m.Path, m.Version)

			return m, nil
		case AnswerAbort:
			return nil, &UserAbortedError{Prompt: "manifest confirmation"}
		case AnswerNo:
			session.DeleteManifest()

			if !isStrictlyInside(m.Dir, repoRoot) {
				return nil, exhaust(m.Dir)
			}
		default:
			return nil, fmt.Errorf("%w %q", ErrUnknownAnswer, answer)
		}
	}

	return nil, exhaust(dirs[len(dirs)-1])
}
