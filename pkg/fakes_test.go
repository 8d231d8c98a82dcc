package gorelease

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
)

// fakeGit is an in-memory Git. Tags map to commits and commits to their distance from HEAD.
type fakeGit struct {
	root   string
	branch string
	tags   []string
	// tagCommits maps a tag to its commit. Tags missing here fail ResolveTag.
	tagCommits map[string]string
	distance   map[string]int

	created []string
	commits []fakeCommit

	commitErr error
}

type fakeCommit struct {
	paths   []string
	message string
}

func newFakeGit(root string) *fakeGit {
	return &fakeGit{
		root:       root,
		branch:     "main",
		tagCommits: map[string]string{},
		distance:   map[string]int{},
	}
}

// tag adds a tag whose commit is n commits behind HEAD.
func (g *fakeGit) tag(name string, n int) *fakeGit {
	hash := fmt.Sprintf("commit-%s", name)
	g.tags = append(g.tags, name)
	g.tagCommits[name] = hash
	g.distance[hash] = n

	return g
}

func (g *fakeGit) ListTags(_ context.Context, pattern *regexp.Regexp) ([]string, error) {
	var tags []string

	for _, t := range g.tags {
		if pattern == nil || pattern.MatchString(t) {
			tags = append(tags, t)
		}
	}

	return tags, nil
}

func (g *fakeGit) TagExists(_ context.Context, tag string) (bool, error) {
	return slices.Contains(g.tags, tag), nil
}

func (g *fakeGit) ResolveTag(_ context.Context, tag string) (string, error) {
	hash, ok := g.tagCommits[tag]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTagNotFound, tag)
	}

	return hash, nil
}

func (g *fakeGit) CommitCountSince(_ context.Context, commit string) (int, error) {
	return g.distance[commit], nil
}

func (g *fakeGit) CreateTag(_ context.Context, tag string) error {
	if slices.Contains(g.tags, tag) {
		return fmt.Errorf("tag %s already exists", tag)
	}

	g.created = append(g.created, tag)
	g.tag(tag, 0)

	return nil
}

func (g *fakeGit) Commit(_ context.Context, paths []string, message string) error {
	if g.commitErr != nil {
		return g.commitErr
	}

	g.commits = append(g.commits, fakeCommit{paths: paths, message: message})

	return nil
}

func (g *fakeGit) CurrentBranch(context.Context) (string, error) {
	return g.branch, nil
}

func (g *fakeGit) RootDir(context.Context) (string, error) {
	return g.root, nil
}

// scriptedPrompt answers by matching the question against the keys of its maps. Unmatched
// confirmations are accepted, unmatched lists pick the first choice. Every question is recorded.
type scriptedPrompt struct {
	confirms map[string]bool
	lists    map[string]string
	inputs   map[string]string

	asked []string
}

func (p *scriptedPrompt) lookup(message string, answers map[string]bool) (bool, bool) {
	for key, v := range answers {
		if strings.Contains(message, key) {
			return v, true
		}
	}

	return false, false
}

func (p *scriptedPrompt) Confirm(_ context.Context, message string) (bool, error) {
	p.asked = append(p.asked, message)

	if v, ok := p.lookup(message, p.confirms); ok {
		return v, nil
	}

	return true, nil
}

func (p *scriptedPrompt) Input(_ context.Context, message, def string) (string, error) {
	p.asked = append(p.asked, message)

	for key, v := range p.inputs {
		if strings.Contains(message, key) {
			return v, nil
		}
	}

	return def, nil
}

func (p *scriptedPrompt) List(_ context.Context, message string, choices []string) (string, error) {
	p.asked = append(p.asked, message)

	for key, v := range p.lists {
		if strings.Contains(message, key) {
			return v, nil
		}
	}

	return choices[0], nil
}

func (p *scriptedPrompt) count(fragment string) int {
	n := 0

	for _, q := range p.asked {
		if strings.Contains(q, fragment) {
			n++
		}
	}

	return n
}

type fixedBumpFinder struct {
	bump  BumpType
	calls int
}

func (f *fixedBumpFinder) SuggestBumpType(context.Context) (BumpType, error) {
	f.calls++

	return f.bump, nil
}

// stubGenerator writes a one-line entry, or fails with err.
type stubGenerator struct {
	err     error
	presets []string
}

func (g *stubGenerator) Generate(_ context.Context, preset, version string, w io.Writer) error {
	g.presets = append(g.presets, preset)

	if g.err != nil {
		return g.err
	}

	_, err := fmt.Fprintf(w, "## %s\n\n", version)

	return err
}

type staticCommits []Commit

func (c staticCommits) CommitsSinceLatestTag(context.Context) ([]Commit, error) {
	return c, nil
}

type memorySessionStore struct {
	cfg   *SessionConfig
	saves int
}

func (s *memorySessionStore) Load() (*SessionConfig, error) {
	if s.cfg == nil {
		return NewSessionConfig(), nil
	}

	c := *s.cfg

	return &c, nil
}

func (s *memorySessionStore) Save(cfg *SessionConfig) error {
	c := *cfg
	s.cfg = &c
	s.saves++

	return nil
}
