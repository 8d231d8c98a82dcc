// Package main implements the gorelease CLI: it decides whether the repository needs a new
// release, computes the next semantic version, updates the changelog and manifest, and tags.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/bcomnes/gorelease/internal/errors"
	gorelease "github.com/bcomnes/gorelease/pkg"
)

const envPrefix = "GORELEASE_"

func envVars(name string) []string {
	return []string{envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "release",
			Aliases: []string{"r"},
			Usage:   "Bump type: automatic, major, minor, patch, premajor, preminor, prepatch or prerelease. Empty asks",
			Value:   string(gorelease.BumpMinor),
			EnvVars: envVars("release"),
		},
		&cli.StringFlag{
			Name:    "identifier",
			Aliases: []string{"i"},
			Usage:   "Pre-release identifier, e.g. beta gives 1.3.0-beta.0",
			EnvVars: envVars("identifier"),
		},
		&cli.BoolFlag{
			Name:    "prefix",
			Usage:   "Prefix tags with v",
			Value:   true,
			EnvVars: envVars("prefix"),
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Release even when there are no new commits since the last tag",
			EnvVars: envVars("force"),
		},
		&cli.BoolFlag{
			Name:    "commit",
			Usage:   "Commit the changelog and manifest and create the tag",
			Value:   true,
			EnvVars: envVars("commit"),
		},
		&cli.BoolFlag{
			Name:    "changelog",
			Usage:   "Update the changelog",
			Value:   true,
			EnvVars: envVars("changelog"),
		},
		&cli.StringFlag{
			Name:    "preset",
			Usage:   "Changelog preset: angular, conventionalcommits or plain",
			Value:   gorelease.DefaultPreset,
			EnvVars: envVars("preset"),
		},
		&cli.BoolFlag{
			Name:    "append",
			Usage:   "Append the new changelog entry at the end of the file instead of replacing its content",
			EnvVars: envVars("append"),
		},
		&cli.BoolFlag{
			Name:    "prepend",
			Usage:   "Put the new changelog entry on top of the existing content instead of replacing it",
			EnvVars: envVars("prepend"),
		},
		&cli.BoolFlag{
			Name:    "update-manifest",
			Usage:   "Write the new version to the accepted package.json",
			Value:   true,
			EnvVars: envVars("update-manifest"),
		},
		&cli.BoolFlag{
			Name:    "strict-manifest",
			Usage:   "Fail when the manifest search ends without a manifest",
			EnvVars: envVars("strict-manifest"),
		},
		&cli.BoolFlag{
			Name:    "reset",
			Usage:   "Forget the saved session and ask the setup questions again",
			EnvVars: envVars("reset"),
		},
		&cli.BoolFlag{
			Name:    "find-manifest",
			Usage:   "Search for the manifest again",
			EnvVars: envVars("find-manifest"),
		},
		&cli.StringSliceFlag{
			Name:    "bump-file",
			Usage:   "Additional file whose main version is bumped and committed. May be repeated",
			EnvVars: envVars("bump-file"),
		},
		&cli.BoolFlag{
			Name:    "dry",
			Usage:   "Compute the next version without modifying any file or the repository",
			EnvVars: envVars("dry"),
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Answer every question with its default",
			EnvVars: envVars("yes"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: trace, debug, info, warn or error",
			Value:   logrus.InfoLevel.String(),
			EnvVars: envVars("log-level"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Shorthand for --log-level debug",
			EnvVars: envVars("debug"),
		},
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:  "gorelease",
		Usage: "Decide, compute and apply the next semantic version of a git repository",
		Description: `gorelease inspects the git tags and an optional package.json, decides whether a
new release is warranted and computes the next version label. It then updates the
changelog, writes the version back to the manifest, commits and tags.

Examples:
  gorelease                      # minor release, prefixed tag (v1.3.0)
  gorelease -r patch             # patch release
  gorelease -r prerelease -i rc  # 1.3.0-rc.0, then 1.3.0-rc.1
  gorelease -r automatic         # bump type from conventional commits
  gorelease --dry -r major       # print the next version only
  gorelease --bump-file version.go patch`,
		Version:         Version,
		Flags:           flags(),
		Reader:          stdin,
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		Action: func(c *cli.Context) error {
			return runRelease(c, stdin, stdout, stderr)
		},
	}
}

func newLogger(c *cli.Context, stderr io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(stderr)

	colors := false
	if f, ok := stderr.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd())
	}

	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    !colors,
		DisableTimestamp: true,
	})

	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	if c.Bool("debug") {
		level = logrus.DebugLevel
	}

	logger.SetLevel(level)

	return logger, nil
}

func newPrompt(c *cli.Context, stdin io.Reader, stdout io.Writer, logger logrus.FieldLogger) gorelease.Prompt {
	if c.Bool("yes") {
		return gorelease.AutoPrompt{}
	}

	if f, ok := stdin.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
		logger.Debug("Standard input is not a terminal, reading answers from it")
	}

	return gorelease.NewTerminalPrompt(stdin, stdout)
}

func options(c *cli.Context, workDir string) gorelease.Options {
	release := c.String("release")
	if c.NArg() > 0 {
		release = c.Args().First()
	}

	return gorelease.Options{
		Release:        release,
		Identifier:     c.String("identifier"),
		Prefix:         c.Bool("prefix"),
		Force:          c.Bool("force"),
		Commit:         c.Bool("commit"),
		Changelog:      c.Bool("changelog"),
		Preset:         c.String("preset"),
		Append:         c.Bool("append"),
		Prepend:        c.Bool("prepend"),
		UpdateManifest: c.Bool("update-manifest"),
		StrictManifest: c.Bool("strict-manifest"),
		Reset:          c.Bool("reset"),
		FindManifest:   c.Bool("find-manifest"),
		BumpFiles:      c.StringSlice("bump-file"),
		Dry:            c.Bool("dry"),
		WorkDir:        workDir,
	}
}

func runRelease(c *cli.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	logger, err := newLogger(c, stderr)
	if err != nil {
		return err
	}

	if c.NArg() > 1 {
		return errors.Errorf("expected at most one release type argument, got %d", c.NArg())
	}

	if c.Bool("append") && c.Bool("prepend") {
		return errors.Errorf("--append and --prepend cannot be used together")
	}

	workDir, err := os.Getwd()
	if err != nil {
		return errors.WithStackTrace(err)
	}

	// git reports the root with symlinks resolved.
	if resolved, err := filepath.EvalSymlinks(workDir); err == nil {
		workDir = resolved
	}

	git, err := gorelease.NewGitRunner(workDir)
	if err != nil {
		return err
	}

	root, err := git.RootDir(c.Context)
	if err != nil {
		return err
	}

	history := &gorelease.History{Dir: root}

	prompt := newPrompt(c, stdin, stdout, logger)
	if closer, ok := prompt.(io.Closer); ok {
		defer closer.Close()
	}

	releaser := &gorelease.Releaser{
		Git:        git,
		Prompt:     prompt,
		Manifests:  gorelease.NewJSONManifestReader(),
		BumpFinder: &gorelease.ConventionalBumpFinder{Commits: history, Logger: logger},
		Generator:  &gorelease.ConventionalChangelog{Commits: history},
		Sessions:   gorelease.NewYAMLSessionStore(root),
		Logger:     logger,
	}

	opts := options(c, workDir)

	meta, err := releaser.Run(c.Context, opts)
	if err != nil {
		return reportError(logger, err)
	}

	printSummary(stdout, meta)

	return nil
}

// reportError logs err at the level matching its kind and returns the exit error for the app.
func reportError(logger *logrus.Logger, err error) error {
	var aborted *gorelease.UserAbortedError
	if errors.As(err, &aborted) {
		logger.Info(err.Error())

		return nil
	}

	if errors.Is(err, context.Canceled) {
		logger.Info("Release canceled")

		return nil
	}

	var noCommit *gorelease.NoNewCommitError
	if errors.As(err, &noCommit) {
		logger.Warnf("%v (use --force to release anyway)", err)

		return cli.Exit("", 1)
	}

	logger.Error(err.Error())
	logger.Debug(errors.ErrorWithStackTrace(err))

	return cli.Exit("", 1)
}

func printSummary(w io.Writer, meta gorelease.ReleaseMeta) {
	if meta.DryRun {
		fmt.Fprintln(w, "Dry run complete, no files were modified.")
	} else {
		fmt.Fprintln(w, "Release successful!")
	}

	fmt.Fprintf(w, "Old Version: %s\n", meta.OldVersion)
	fmt.Fprintf(w, "New Version: %s\n", meta.NewVersion)
	fmt.Fprintf(w, "Bump Type:   %s\n", meta.BumpType)
	fmt.Fprintf(w, "Status:      %s\n", meta.Classification)

	if meta.Tagged {
		fmt.Fprintf(w, "Tagged:      %s\n", meta.NewVersion)
	}

	if len(meta.UpdatedFiles) > 0 {
		fmt.Fprintln(w, "Files updated:")

		for _, f := range meta.UpdatedFiles {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newApp(stdin, stdout, stderr)
	app.ExitErrHandler = func(*cli.Context, error) {}

	if err := app.RunContext(ctx, args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(stderr, "Error:", msg)
			}

			return exitErr.ExitCode()
		}

		fmt.Fprintln(stderr, "Error:", err)

		return 1
	}

	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
