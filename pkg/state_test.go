package gorelease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifestSession(version string) *SessionConfig {
	return &SessionConfig{
		ManifestFound:     true,
		ManifestValid:     true,
		ManifestExhausted: true,
		Manifest:          &Manifest{Dir: "/repo", Path: "/repo/package.json", Version: version},
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		git      *fakeGit
		session  *SessionConfig
		prefixed bool

		want      RepositoryState
		wantAsked int
	}{
		{
			name:     "no tags",
			git:      newFakeGit("/repo"),
			session:  &SessionConfig{CurrentSemVer: "v1.0.0"},
			prefixed: true,
			want:     RepositoryState{Classification: NoTag},
		},
		{
			name:     "manifest with an invalid version",
			git:      newFakeGit("/repo").tag("v1.0.0", 1),
			session:  manifestSession("1.2"),
			prefixed: true,
			want:     RepositoryState{Classification: InvalidTag, Tag: "1.2"},
		},
		{
			name:     "commits since the tag",
			git:      newFakeGit("/repo").tag("v1.0.0", 3),
			session:  &SessionConfig{CurrentSemVer: "v1.0.0"},
			prefixed: true,
			want:     RepositoryState{Classification: Valid, Tag: "v1.0.0", Commit: "commit-v1.0.0", Commits: 3},
		},
		{
			name:     "tag at HEAD",
			git:      newFakeGit("/repo").tag("v1.0.0", 0),
			session:  &SessionConfig{CurrentSemVer: "v1.0.0"},
			prefixed: true,
			want:     RepositoryState{Classification: Pristine, Tag: "v1.0.0", Commit: "commit-v1.0.0"},
		},
		{
			name:     "manifest version matches a tag",
			git:      newFakeGit("/repo").tag("v1.0.0", 2),
			session:  manifestSession("1.0.0"),
			prefixed: true,
			want:     RepositoryState{Classification: Valid, Tag: "v1.0.0", Commit: "commit-v1.0.0", Commits: 2},
		},
		{
			name:     "unprefixed tag found with the prefix on",
			git:      newFakeGit("/repo").tag("0.1.0", 0),
			session:  &SessionConfig{CurrentSemVer: "0.1.0"},
			prefixed: true,
			want:     RepositoryState{Classification: Pristine, Tag: "0.1.0", Commit: "commit-0.1.0"},
		},
		{
			name:      "missing tag falls back to the latest tag",
			git:       newFakeGit("/repo").tag("v1.0.0", 4).tag("v1.1.0", 2).tag("0.9.0", 9),
			session:   &SessionConfig{CurrentSemVer: "v2.0.0"},
			prefixed:  true,
			want:      RepositoryState{Classification: Valid, Tag: "v1.1.0", Commit: "commit-v1.1.0", Commits: 2},
			wantAsked: 1,
		},
		{
			name:      "missing tag without tags of the active prefix",
			git:       newFakeGit("/repo").tag("release-1", 1),
			session:   &SessionConfig{},
			prefixed:  true,
			want:      RepositoryState{Classification: FirstTag},
			wantAsked: 1,
		},
		{
			name:      "invalid tags are ignored",
			git:       newFakeGit("/repo").tag("1.0.0-beta", 1),
			session:   &SessionConfig{},
			prefixed:  false,
			want:      RepositoryState{Classification: FirstTag},
			wantAsked: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			prompt := &scriptedPrompt{}
			classifier := &Classifier{Git: tc.git, Prompt: prompt, Prefixed: tc.prefixed}

			state, err := classifier.Classify(t.Context(), tc.session)
			require.NoError(t, err)
			assert.Equal(t, tc.want, state)
			assert.Len(t, prompt.asked, tc.wantAsked)
		})
	}
}

func TestClassifyMissingTagDeclined(t *testing.T) {
	t.Parallel()

	prompt := &scriptedPrompt{confirms: map[string]bool{"not present": false}}
	classifier := &Classifier{Git: newFakeGit("/repo").tag("v1.0.0", 1), Prompt: prompt, Prefixed: true}

	_, err := classifier.Classify(t.Context(), &SessionConfig{CurrentSemVer: "2.0.0"})

	var aborted *UserAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, []string{"Tag v2.0.0 is not present in repository, continue?"}, prompt.asked)
}

func TestClassifyUnresolvableTag(t *testing.T) {
	t.Parallel()

	git := newFakeGit("/repo")
	git.tags = []string{"v1.0.0"}

	classifier := &Classifier{Git: git, Prompt: &scriptedPrompt{}, Prefixed: true}

	_, err := classifier.Classify(t.Context(), &SessionConfig{CurrentSemVer: "v1.0.0"})

	var noTag *NoTagError
	require.ErrorAs(t, err, &noTag)
	assert.Equal(t, "v1.0.0", noTag.Tag)
	require.ErrorIs(t, err, ErrTagNotFound)
}

func TestClassificationString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NoTag", NoTag.String())
	assert.Equal(t, "Pristine", Pristine.String())
	assert.Equal(t, "Classification(0)", Classification(0).String())
}
