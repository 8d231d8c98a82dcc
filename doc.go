// Package main implements the gorelease CLI tool.
//
// The gorelease tool is a command-line interface that automates semantic version releases of a
// git repository. It looks for a package.json between the working directory and the repository
// root, classifies the repository from its tags and the commits since the last release,
// computes the next version, updates the changelog, writes the version back to the manifest,
// commits and tags.
//
// Command Usage:
//
//	gorelease [flags] [release-type]
//
// Flags:
//
//	--release, -r:      Bump type (automatic, major, minor, patch, premajor, preminor, prepatch,
//	                    prerelease). Defaults to "minor". An empty value asks.
//	--identifier, -i:   Pre-release identifier (e.g. "beta").
//	--prefix:           Prefix tags with "v" (default true).
//	--force, -f:        Release even when no commit was made since the last tag.
//	--commit:           Commit the changelog and manifest and create the tag (default true).
//	--changelog:        Update the changelog (default true).
//	--preset:           Changelog preset: angular, conventionalcommits or plain.
//	--append:           Append the changelog entry at the end of the file.
//	--prepend:          Put the changelog entry on top of the file. Without --append or
//	                    --prepend the entry replaces the file content.
//	--update-manifest:  Write the new version to package.json (default true).
//	--strict-manifest:  Fail when no manifest was accepted.
//	--reset:            Forget the saved answers.
//	--find-manifest:    Search for the manifest again.
//	--bump-file:        Additional file whose main version is bumped. May be repeated.
//	--dry:              Print the next version without changing anything.
//	--yes, -y:          Accept every question with its default answer.
//	--log-level:        trace, debug, info, warn or error.
//	--debug:            Shorthand for --log-level debug.
//
// Every flag can also be set through a GORELEASE_ environment variable, e.g.
// GORELEASE_RELEASE=patch or GORELEASE_BUMP_FILE=version.go.
//
// Examples:
//
//	# Minor release (e.g. v1.2.3 → v1.3.0)
//	gorelease
//
//	# Patch release without a changelog
//	gorelease --changelog=false patch
//
//	# Start a release candidate (e.g. v1.2.3 → v1.3.0-rc.0)
//	gorelease -r preminor -i rc
//
//	# Let the commits since the last tag decide
//	gorelease -r automatic
//
//	# Keep the CLI's own version.go in step with the tag
//	gorelease --bump-file version.go patch
//
// Answers to the setup questions are kept in .git/gorelease.yml.
//
// For the library API, see the documentation of the "pkg" package.
package main
