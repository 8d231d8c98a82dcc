// Package gorelease provides a library for deciding and applying semantic version releases
// of a git repository.
//
// It provides functionalities for:
//   - Validating, prefixing and incrementing version labels (major, minor, patch, premajor,
//     preminor, prepatch and prerelease, with an optional pre-release identifier).
//   - Locating a package.json manifest between the working directory and the repository root,
//     confirming each candidate with the user.
//   - Classifying the repository as NoTag, FirstTag, InvalidTag, Pristine or Valid from its
//     tags, the manifest version and the commits since the last release.
//   - Updating the changelog as a backup, regenerate, commit and cleanup sequence that can be
//     restored on failure.
//   - Writing the new version to the manifest and other files, committing, and tagging.
//
// Every collaborator (git, prompts, manifest reader, changelog generator, session store) is an
// interface so the release engine can be driven by the CLI or programmatically.
//
// Usage Example:
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    gorelease "github.com/bcomnes/gorelease/pkg"
//	)
//
//	func main() {
//	    git, err := gorelease.NewGitRunner(".")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    root, err := git.RootDir(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    history := &gorelease.History{Dir: root}
//	    r := &gorelease.Releaser{
//	        Git:        git,
//	        Prompt:     gorelease.NewTerminalPrompt(os.Stdin, os.Stdout),
//	        Manifests:  gorelease.NewJSONManifestReader(),
//	        BumpFinder: &gorelease.ConventionalBumpFinder{Commits: history},
//	        Generator:  &gorelease.ConventionalChangelog{Commits: history},
//	        Sessions:   gorelease.NewYAMLSessionStore(root),
//	    }
//	    opts := gorelease.DefaultOptions()
//	    opts.Release = "patch"
//	    meta, err := r.Run(context.Background(), opts)
//	    if err != nil {
//	        log.Fatalf("release failed: %v", err)
//	    }
//	    log.Printf("Released %s", meta.NewVersion)
//	}
package gorelease
