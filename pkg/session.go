package gorelease

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/bcomnes/gorelease/internal/errors"
)

// SessionConfig is the state filled in during a release run and kept between runs.
type SessionConfig struct {
	// Configured is set once the setup prompts have run.
	Configured bool `yaml:"configured"`

	ManifestFound     bool      `yaml:"manifest_found"`
	ManifestValid     bool      `yaml:"manifest_valid"`
	ManifestExhausted bool      `yaml:"manifest_exhausted"`
	Manifest          *Manifest `yaml:"manifest,omitempty"`

	// CurrentSemVer is the version of record when no manifest is in use.
	CurrentSemVer string `yaml:"current_semver,omitempty"`
	DevelopBranch string `yaml:"develop_branch,omitempty"`
}

// NewSessionConfig returns an empty session.
func NewSessionConfig() *SessionConfig {
	return &SessionConfig{}
}

// SetManifest records a candidate manifest before the user confirms it.
func (c *SessionConfig) SetManifest(m *Manifest) {
	c.Manifest = m
	c.ManifestFound = m != nil
}

// DeleteManifest discards the candidate manifest.
func (c *SessionConfig) DeleteManifest() {
	c.Manifest = nil
	c.ManifestFound = false
	c.ManifestValid = false
}

// ManifestVersion returns the version of the accepted manifest, or "" when there is none.
func (c *SessionConfig) ManifestVersion() string {
	if !c.ManifestValid || c.Manifest == nil {
		return ""
	}

	return c.Manifest.Version
}

// UsesManifest reports whether a manifest was accepted for this repository.
func (c *SessionConfig) UsesManifest() bool {
	return c.ManifestValid && c.Manifest != nil
}

// ManifestVersioned reports whether the accepted manifest carries the version of record. An
// accepted manifest without a version field leaves that role to the tags.
func (c *SessionConfig) ManifestVersioned() bool {
	return c.UsesManifest() && c.Manifest.Version != ""
}

// DefaultSessionFile is where the session is stored, relative to the repository root.
const DefaultSessionFile = ".git/gorelease.yml"

// YAMLSessionStore keeps the session in a YAML file.
type YAMLSessionStore struct {
	FS   afero.Fs
	Path string
}

// NewYAMLSessionStore stores the session under repoRoot on the OS filesystem.
func NewYAMLSessionStore(repoRoot string) *YAMLSessionStore {
	return &YAMLSessionStore{
		FS:   afero.NewOsFs(),
		Path: filepath.Join(repoRoot, DefaultSessionFile),
	}
}

// Load reads the session. A missing file yields an empty session.
func (s *YAMLSessionStore) Load() (*SessionConfig, error) {
	data, err := afero.ReadFile(s.FS, s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSessionConfig(), nil
		}

		return nil, errors.WithStackTraceAndPrefix(err, "reading session %s", s.Path)
	}

	cfg := NewSessionConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "parsing session %s", s.Path)
	}

	return cfg, nil
}

// Save writes the session, creating the parent directory if needed.
func (s *YAMLSessionStore) Save(cfg *SessionConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if err := s.FS.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return errors.WithStackTraceAndPrefix(err, "creating directory for %s", s.Path)
	}

	if err := afero.WriteFile(s.FS, s.Path, data, 0o644); err != nil {
		return errors.WithStackTraceAndPrefix(err, "writing session %s", s.Path)
	}

	return nil
}
