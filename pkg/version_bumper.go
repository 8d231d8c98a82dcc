package gorelease

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/bcomnes/gorelease/internal/errors"
)

// VersionPattern represents a pattern for finding versions in files.
// Group 1 is the text before the version, group 2 the version and group 3, when present,
// the text after it.
type VersionPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// CommonVersionPatterns contains common patterns for finding version strings in files.
var CommonVersionPatterns = []VersionPattern{
	{
		Pattern: regexp.MustCompile(`("version"\s*:\s*")v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)(")`),
		Name:    "JSON version field",
	},
	{
		Pattern: regexp.MustCompile(`(version\s*=\s*")v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)(")`),
		Name:    "TOML version field",
	},
	{
		Pattern: regexp.MustCompile(`(?i)(VERSION\s*[:=]\s*["']?)v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)(["']?)`),
		Name:    "VERSION assignment",
	},
	{
		Pattern: regexp.MustCompile(`(<version>)v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)(</version>)`),
		Name:    "XML version tag",
	},
	{
		Pattern: regexp.MustCompile(`(@version\s+)v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)()`),
		Name:    "doc comment version",
	},
}

// MainVersionPatterns match declarations that are usually the primary version of a project,
// anchored at the start of a line so nested dependency versions are skipped.
var MainVersionPatterns = []VersionPattern{
	{
		Pattern: regexp.MustCompile(`^(\s{0,2}"version"\s*:\s*")v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)(")`),
		Name:    "root JSON version field",
	},
	{
		Pattern: regexp.MustCompile(`^(\s*version\s*=\s*")v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)(")`),
		Name:    "root TOML version field",
	},
	{
		Pattern: regexp.MustCompile(`(?i)^(\s*VERSION\s*[:=]\s*["']?)v?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.-]+)?)(["']?)`),
		Name:    "root VERSION assignment",
	},
}

// VersionMatch represents a found version in a file.
type VersionMatch struct {
	Line       int // 1-based
	StartIndex int
	EndIndex   int
	FullMatch  string
	Version    string // without the "v" prefix
	Prefixed   bool
	Prefix     string
	Suffix     string
	Pattern    VersionPattern
}

func matchLine(vp VersionPattern, line string, lineNum int) (VersionMatch, bool) {
	idx := vp.Pattern.FindStringSubmatchIndex(line)
	if len(idx) < 6 {
		return VersionMatch{}, false
	}

	vm := VersionMatch{
		Line:       lineNum + 1,
		StartIndex: idx[0],
		EndIndex:   idx[1],
		FullMatch:  line[idx[0]:idx[1]],
		Prefix:     line[idx[2]:idx[3]],
		Version:    line[idx[4]:idx[5]],
		Pattern:    vp,
	}
	if len(idx) >= 8 && idx[6] >= 0 {
		vm.Suffix = line[idx[6]:idx[7]]
	}
	vm.Prefixed = strings.HasPrefix(line[idx[3]:idx[4]], "v")

	return vm, true
}

// VersionFileBumper finds and rewrites version declarations in text files.
type VersionFileBumper struct {
	FS afero.Fs
}

// NewVersionFileBumper returns a bumper working on the OS filesystem.
func NewVersionFileBumper() *VersionFileBumper {
	return &VersionFileBumper{FS: afero.NewOsFs()}
}

func (b *VersionFileBumper) readLines(path string) ([]string, error) {
	data, err := afero.ReadFile(b.FS, path)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "reading file %s", path)
	}

	return strings.Split(string(data), "\n"), nil
}

// Scan returns every version found in the file, one per line and pattern position.
func (b *VersionFileBumper) Scan(path string) ([]VersionMatch, error) {
	lines, err := b.readLines(path)
	if err != nil {
		return nil, err
	}

	type posKey struct{ line, start int }

	seen := make(map[posKey]bool)

	var matches []VersionMatch
	for lineNum, line := range lines {
		for _, vp := range CommonVersionPatterns {
			vm, ok := matchLine(vp, line, lineNum)
			if !ok || seen[posKey{vm.Line, vm.StartIndex}] {
				continue
			}
			seen[posKey{vm.Line, vm.StartIndex}] = true
			matches = append(matches, vm)
		}
	}

	return matches, nil
}

// FindMain returns the primary version declaration of the file, or nil when there is none.
// Root-level declarations win; otherwise the first version found is used.
func (b *VersionFileBumper) FindMain(path string) (*VersionMatch, error) {
	lines, err := b.readLines(path)
	if err != nil {
		return nil, err
	}

	for lineNum, line := range lines {
		for _, vp := range MainVersionPatterns {
			if vm, ok := matchLine(vp, line, lineNum); ok {
				return &vm, nil
			}
		}
	}

	matches, err := b.Scan(path)
	if err != nil || len(matches) == 0 {
		return nil, err
	}

	return &matches[0], nil
}

// Replace rewrites the given matches with newVersion, keeping a "v" where the file had one.
func (b *VersionFileBumper) Replace(path, newVersion string, matches []VersionMatch) error {
	lines, err := b.readLines(path)
	if err != nil {
		return err
	}

	newVersion = strings.TrimPrefix(newVersion, "v")

	// Right to left so earlier indexes on the same line stay valid.
	sorted := slices.Clone(matches)
	slices.SortFunc(sorted, func(a, c VersionMatch) int {
		if a.Line != c.Line {
			return a.Line - c.Line
		}

		return c.StartIndex - a.StartIndex
	})

	for _, m := range sorted {
		if m.Line < 1 || m.Line > len(lines) {
			return fmt.Errorf("line %d out of range in %s", m.Line, path)
		}

		line := lines[m.Line-1]
		if m.StartIndex < 0 || m.EndIndex > len(line) || m.StartIndex >= m.EndIndex {
			return fmt.Errorf("match %q out of range on line %d of %s", m.FullMatch, m.Line, path)
		}

		version := newVersion
		if m.Prefixed {
			version = "v" + newVersion
		}

		lines[m.Line-1] = line[:m.StartIndex] + m.Prefix + version + m.Suffix + line[m.EndIndex:]
	}

	if err := afero.WriteFile(b.FS, path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return errors.WithStackTraceAndPrefix(err, "writing file %s", path)
	}

	return nil
}

// BumpMain replaces the primary version of the file with newVersion. It reports false when
// the file has no version to replace.
func (b *VersionFileBumper) BumpMain(path, newVersion string) (bool, error) {
	main, err := b.FindMain(path)
	if err != nil {
		return false, err
	}

	if main == nil {
		return false, nil
	}

	if err := b.Replace(path, newVersion, []VersionMatch{*main}); err != nil {
		return false, err
	}

	return true, nil
}
