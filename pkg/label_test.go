package gorelease

import (
	"errors"
	"slices"
	"testing"
)

// TestNormalizeLabel validates that NormalizeLabel adds or strips the prefix.
func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		input    string
		prefixed bool
		expected string
	}{
		{"1.2.3", true, "v1.2.3"},
		{"v1.2.3", true, "v1.2.3"},
		{"v1.2.3", false, "1.2.3"},
		{"1.2.3", false, "1.2.3"},
		{"0.0.0", true, "v0.0.0"},
		{"1.2.3-beta.4", true, "v1.2.3-beta.4"},
		{"v1.2.3-7", false, "1.2.3-7"},
	}
	for _, tc := range tests {
		res, err := NormalizeLabel(tc.input, tc.prefixed)
		if err != nil {
			t.Errorf("NormalizeLabel(%q, %t) returned error: %v", tc.input, tc.prefixed, err)
			continue
		}
		if res != tc.expected {
			t.Errorf("NormalizeLabel(%q, %t) = %q, expected %q", tc.input, tc.prefixed, res, tc.expected)
		}
	}
}

// TestNormalizeLabelRoundTrip checks that prefixing then unprefixing is the same as unprefixing.
func TestNormalizeLabelRoundTrip(t *testing.T) {
	for _, input := range []string{"1.2.3", "v1.2.3", "v0.1.0-rc.1", "10.20.30-5"} {
		prefixed, err := NormalizeLabel(input, true)
		if err != nil {
			t.Fatalf("NormalizeLabel(%q, true) returned error: %v", input, err)
		}
		twice, err := NormalizeLabel(prefixed, false)
		if err != nil {
			t.Fatalf("NormalizeLabel(%q, false) returned error: %v", prefixed, err)
		}
		once, err := NormalizeLabel(input, false)
		if err != nil {
			t.Fatalf("NormalizeLabel(%q, false) returned error: %v", input, err)
		}
		if twice != once {
			t.Errorf("round trip of %q = %q, expected %q", input, twice, once)
		}
	}
}

// TestNormalizeLabelInvalid checks that invalid labels are rejected before any prefix change.
func TestNormalizeLabelInvalid(t *testing.T) {
	for _, input := range []string{"", "dev", "1.2", "v", "vv1.2.3", "01.2.3", "1.2.3-beta", "1.2.3-beta.01", "1.2.3+build"} {
		_, err := NormalizeLabel(input, true)
		var invalid *InvalidLabelError
		if !errors.As(err, &invalid) {
			t.Errorf("NormalizeLabel(%q) error = %v, expected *InvalidLabelError", input, err)
			continue
		}
		if invalid.Label != input {
			t.Errorf("InvalidLabelError.Label = %q, expected %q", invalid.Label, input)
		}
	}
}

// TestIncrementLabel tests IncrementLabel for every bump type.
func TestIncrementLabel(t *testing.T) {
	tests := []struct {
		version    string
		bump       BumpType
		identifier string
		expected   string
	}{
		{"1.2.3", BumpMajor, "", "2.0.0"},
		{"1.2.3", BumpMinor, "", "1.3.0"},
		{"1.2.3", BumpPatch, "", "1.2.4"},
		{"v1.2.3", BumpPatch, "", "1.2.4"},
		{"1.2.3", BumpPremajor, "", "2.0.0-0"},
		{"1.2.3", BumpPremajor, "beta", "2.0.0-beta.0"},
		{"1.2.3", BumpPreminor, "", "1.3.0-0"},
		{"1.2.3", BumpPreminor, "rc", "1.3.0-rc.0"},
		{"1.2.3", BumpPrepatch, "", "1.2.4-0"},
		{"1.2.3", BumpPrepatch, "alpha", "1.2.4-alpha.0"},
		{"1.2.3", BumpPrerelease, "", "1.2.4-0"},    // no prerelease exists so bump patch and attach prerelease "0"
		{"1.2.3-0", BumpPrerelease, "", "1.2.3-1"},  // bump numeric part of prerelease
		{"1.2.3", BumpPrerelease, "beta", "1.2.4-beta.0"},
		{"1.2.3-beta.0", BumpPrerelease, "beta", "1.2.3-beta.1"},
		{"1.2.3-beta.4", BumpPrerelease, "", "1.2.3-beta.5"},
		{"1.2.3-alpha.4", BumpPrerelease, "beta", "1.2.3-beta.0"},
		{"2.0.0-0", BumpMajor, "", "2.0.0"},
		{"1.3.0-rc.1", BumpMinor, "", "1.3.0"},
		{"1.2.4-0", BumpPatch, "", "1.2.4"},
		{"0.0.0", BumpMinor, "", "0.1.0"},
		{"v0.0.0", BumpMinor, "", "0.1.0"},
	}
	for _, tc := range tests {
		res, err := IncrementLabel(tc.version, tc.bump, tc.identifier)
		if err != nil {
			t.Errorf("IncrementLabel(%q, %q, %q) returned error: %v", tc.version, tc.bump, tc.identifier, err)
			continue
		}
		if res != tc.expected {
			t.Errorf("IncrementLabel(%q, %q, %q) = %q, expected %q", tc.version, tc.bump, tc.identifier, res, tc.expected)
		}
		if CompareLabels(res, tc.version) <= 0 {
			t.Errorf("IncrementLabel(%q, %q) = %q is not greater than the input", tc.version, tc.bump, res)
		}
	}
}

func TestIncrementLabelErrors(t *testing.T) {
	_, err := IncrementLabel("1.2", BumpPatch, "")
	var invalidLabel *InvalidLabelError
	if !errors.As(err, &invalidLabel) {
		t.Errorf("expected *InvalidLabelError, got %v", err)
	}

	for _, bump := range []BumpType{"invalid", BumpAutomatic, ""} {
		_, err = IncrementLabel("1.2.3", bump, "")
		var invalidBump *InvalidBumpTypeError
		if !errors.As(err, &invalidBump) {
			t.Errorf("IncrementLabel with %q: expected *InvalidBumpTypeError, got %v", bump, err)
		}
	}
}

func TestParseBumpType(t *testing.T) {
	for _, s := range append(ReleaseChoices, string(BumpPrerelease)) {
		b, err := ParseBumpType(s)
		if err != nil || string(b) != s {
			t.Errorf("ParseBumpType(%q) = %q, %v", s, b, err)
		}
	}

	if _, err := ParseBumpType("from-git"); err == nil {
		t.Error("ParseBumpType(\"from-git\") expected an error")
	}
}

func TestBumpTypePrerelease(t *testing.T) {
	tests := map[BumpType]BumpType{
		BumpMajor:      BumpPremajor,
		BumpMinor:      BumpPreminor,
		BumpPatch:      BumpPrepatch,
		BumpPremajor:   BumpPremajor,
		BumpPrerelease: BumpPrerelease,
	}
	for in, expected := range tests {
		if got := in.Prerelease(); got != expected {
			t.Errorf("%q.Prerelease() = %q, expected %q", in, got, expected)
		}
	}
}

func TestSortDescending(t *testing.T) {
	labels := []string{"v1.2.3", "0.9.0", "v1.10.0", "1.2.3-rc.1", "v2.0.0-0", "1.2.4"}
	SortDescending(labels)

	expected := []string{"v2.0.0-0", "v1.10.0", "1.2.4", "v1.2.3", "1.2.3-rc.1", "0.9.0"}
	if !slices.Equal(labels, expected) {
		t.Errorf("SortDescending = %v, expected %v", labels, expected)
	}
}

func TestLatestLabel(t *testing.T) {
	if got := LatestLabel(nil); got != "" {
		t.Errorf("LatestLabel(nil) = %q, expected empty", got)
	}

	labels := []string{"0.1.0", "v0.3.0", "0.2.0"}
	if got := LatestLabel(labels); got != "v0.3.0" {
		t.Errorf("LatestLabel = %q, expected v0.3.0", got)
	}
	if labels[0] != "0.1.0" {
		t.Error("LatestLabel must not reorder its input")
	}
}

func TestCompareLabelsIgnoresPrefix(t *testing.T) {
	if CompareLabels("0.1.0", "v0.1.0") != 0 {
		t.Error("0.1.0 and v0.1.0 should denote the same release")
	}
	if CompareDescending("1.0.0", "2.0.0") <= 0 {
		t.Error("CompareDescending should order 2.0.0 before 1.0.0")
	}
}

func TestTagPattern(t *testing.T) {
	if !TagPattern(true).MatchString("v1.2.3") || TagPattern(true).MatchString("1.2.3") {
		t.Error("prefixed pattern should only match v-tags")
	}
	if !TagPattern(false).MatchString("1.2.3-rc.1") || TagPattern(false).MatchString("v1.2.3") {
		t.Error("unprefixed pattern should only match bare tags")
	}
}
