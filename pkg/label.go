package gorelease

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// BumpType is how a version label is incremented.
type BumpType string

const (
	BumpMajor      BumpType = "major"
	BumpMinor      BumpType = "minor"
	BumpPatch      BumpType = "patch"
	BumpPremajor   BumpType = "premajor"
	BumpPreminor   BumpType = "preminor"
	BumpPrepatch   BumpType = "prepatch"
	BumpPrerelease BumpType = "prerelease"

	// BumpAutomatic delegates the choice to a BumpFinder. It is never passed to IncrementLabel.
	BumpAutomatic BumpType = "automatic"
)

// ReleaseChoices are the bump types offered when the user did not pick one.
var ReleaseChoices = []string{
	string(BumpAutomatic),
	string(BumpMajor),
	string(BumpMinor),
	string(BumpPatch),
	string(BumpPremajor),
	string(BumpPreminor),
	string(BumpPrepatch),
}

// ParseBumpType validates a bump type given on the command line.
func ParseBumpType(s string) (BumpType, error) {
	switch b := BumpType(s); b {
	case BumpMajor, BumpMinor, BumpPatch, BumpPremajor, BumpPreminor, BumpPrepatch, BumpPrerelease, BumpAutomatic:
		return b, nil
	}

	return "", &InvalidBumpTypeError{BumpType: s}
}

// Prerelease returns the pre-release variant of major, minor and patch. Other bump types are
// returned unchanged.
func (b BumpType) Prerelease() BumpType {
	switch b {
	case BumpMajor, BumpMinor, BumpPatch:
		return "pre" + b
	}

	return b
}

// baseLabel is the label the first tag of a repository is bumped from.
const baseLabel = "0.0.0"

var (
	// validLabelRegex matches MAJOR.MINOR.PATCH[-PRERELEASE] with an optional leading "v", where
	// PRERELEASE is a number or identifier.number.
	validLabelRegex = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-((?:0|[1-9]\d*)|(?:[0-9A-Za-z-]*[A-Za-z-][0-9A-Za-z-]*\.(?:0|[1-9]\d*))))?$`)

	// Tag patterns used to collect candidate tags for the active prefix flag.
	prefixedLabelRegex   = regexp.MustCompile(`^v(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?$`)
	unprefixedLabelRegex = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?$`)
	anyLabelRegex        = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?$`)
)

// TagPattern returns the pattern matching semver tags written with or without the "v" prefix.
func TagPattern(prefixed bool) *regexp.Regexp {
	if prefixed {
		return prefixedLabelRegex
	}

	return unprefixedLabelRegex
}

// IsValidLabel reports whether label is a version label this tool can bump.
func IsValidLabel(label string) bool {
	return validLabelRegex.MatchString(label) && semver.IsValid(canonical(label))
}

// canonical returns the label in the "v"-prefixed form x/mod/semver expects.
func canonical(label string) string {
	if strings.HasPrefix(label, "v") {
		return label
	}

	return "v" + label
}

// NormalizeLabel adds or removes the leading "v" according to prefixed. The label is
// validated before it is touched.
func NormalizeLabel(label string, prefixed bool) (string, error) {
	if !IsValidLabel(label) {
		return "", &InvalidLabelError{Label: label}
	}

	if prefixed {
		return canonical(label), nil
	}

	return strings.TrimPrefix(label, "v"), nil
}

// CompareLabels compares two labels by semver precedence, ignoring the prefix.
// Invalid labels sort below valid ones.
func CompareLabels(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

// CompareDescending is the reverse of CompareLabels, for picking the latest tag.
func CompareDescending(a, b string) int {
	return -CompareLabels(a, b)
}

// SortDescending sorts labels from latest to oldest.
func SortDescending(labels []string) {
	slices.SortStableFunc(labels, CompareDescending)
}

// LatestLabel returns the highest label in labels, or "" if labels is empty.
func LatestLabel(labels []string) string {
	if len(labels) == 0 {
		return ""
	}

	sorted := slices.Clone(labels)
	SortDescending(sorted)

	return sorted[0]
}

type label struct {
	major, minor, patch int
	prerelease          []string
}

// parseLabel extracts the numerical components and pre-release parts of a valid label.
func parseLabel(s string) (label, error) {
	var l label

	m := validLabelRegex.FindStringSubmatch(s)
	if m == nil || !semver.IsValid(canonical(s)) {
		return l, &InvalidLabelError{Label: s}
	}

	var err error
	if l.major, err = strconv.Atoi(m[1]); err != nil {
		return l, &InvalidLabelError{Label: s}
	}
	if l.minor, err = strconv.Atoi(m[2]); err != nil {
		return l, &InvalidLabelError{Label: s}
	}
	if l.patch, err = strconv.Atoi(m[3]); err != nil {
		return l, &InvalidLabelError{Label: s}
	}
	if m[4] != "" {
		l.prerelease = strings.Split(m[4], ".")
	}

	return l, nil
}

// String formats the label without a prefix.
func (l label) String() string {
	base := fmt.Sprintf("%d.%d.%d", l.major, l.minor, l.patch)
	if len(l.prerelease) > 0 {
		return base + "-" + strings.Join(l.prerelease, ".")
	}

	return base
}

// bumpPre starts or advances the pre-release counter, switching to identifier when it differs.
func (l *label) bumpPre(identifier string) {
	if len(l.prerelease) == 0 {
		l.prerelease = []string{"0"}
	} else {
		bumped := false
		for i := len(l.prerelease) - 1; i >= 0; i-- {
			if n, err := strconv.Atoi(l.prerelease[i]); err == nil {
				l.prerelease[i] = strconv.Itoa(n + 1)
				bumped = true

				break
			}
		}
		if !bumped {
			l.prerelease = append(l.prerelease, "0")
		}
	}

	if identifier == "" {
		return
	}

	if l.prerelease[0] == identifier {
		if len(l.prerelease) < 2 {
			l.prerelease = []string{identifier, "0"}
		} else if _, err := strconv.Atoi(l.prerelease[1]); err != nil {
			l.prerelease = []string{identifier, "0"}
		}

		return
	}

	l.prerelease = []string{identifier, "0"}
}

// IncrementLabel bumps label by the given type. identifier, when set, names the pre-release
// (e.g. "beta" gives 1.3.0-beta.0). The result carries no prefix.
func IncrementLabel(current string, bump BumpType, identifier string) (string, error) {
	l, err := parseLabel(current)
	if err != nil {
		return "", err
	}

	switch bump {
	case BumpMajor:
		// 2.0.0-1 releases as 2.0.0.
		if l.minor != 0 || l.patch != 0 || len(l.prerelease) == 0 {
			l.major++
		}
		l.minor = 0
		l.patch = 0
		l.prerelease = nil
	case BumpMinor:
		if l.patch != 0 || len(l.prerelease) == 0 {
			l.minor++
		}
		l.patch = 0
		l.prerelease = nil
	case BumpPatch:
		if len(l.prerelease) == 0 {
			l.patch++
		}
		l.prerelease = nil
	case BumpPremajor:
		l.major++
		l.minor = 0
		l.patch = 0
		l.prerelease = nil
		l.bumpPre(identifier)
	case BumpPreminor:
		l.minor++
		l.patch = 0
		l.prerelease = nil
		l.bumpPre(identifier)
	case BumpPrepatch:
		l.patch++
		l.prerelease = nil
		l.bumpPre(identifier)
	case BumpPrerelease:
		if len(l.prerelease) == 0 {
			l.patch++
		}
		l.bumpPre(identifier)
	default:
		return "", &InvalidBumpTypeError{BumpType: string(bump)}
	}

	return l.String(), nil
}
