package gorelease

import (
	"fmt"

	"github.com/spf13/afero"
)

// ExampleVersionFileBumper_BumpMain updates the main version of files like package.json or
// extension.toml, leaving the rest of the file as it was.
func ExampleVersionFileBumper_BumpMain() {
	fs := afero.NewMemMapFs()

	_ = afero.WriteFile(fs, "/project/package.json", []byte(`{
  "name": "example-app",
  "version": "1.0.0",
  "description": "Example application"
}`), 0644)

	_ = afero.WriteFile(fs, "/project/extension.toml", []byte(`[package]
name = "my-extension"
version = "v1.0.0"
authors = ["Example Author"]`), 0644)

	bumper := &VersionFileBumper{FS: fs}

	for _, path := range []string{"/project/package.json", "/project/extension.toml"} {
		updated, err := bumper.BumpMain(path, "v1.1.0")
		if err != nil {
			fmt.Println("failed to bump version:", err)
			return
		}
		if !updated {
			fmt.Println("no version found in", path)
			return
		}

		content, _ := afero.ReadFile(fs, path)
		fmt.Printf("Updated %s:\n%s\n", path, content)
	}

	// Output:
	// Updated /project/package.json:
	// {
	//   "name": "example-app",
	//   "version": "1.1.0",
	//   "description": "Example application"
	// }
	// Updated /project/extension.toml:
	// [package]
	// name = "my-extension"
	// version = "v1.1.0"
	// authors = ["Example Author"]
}

// ExampleVersionFileBumper_Scan lists version references without modifying the file, as a
// dry run does.
func ExampleVersionFileBumper_Scan() {
	fs := afero.NewMemMapFs()

	_ = afero.WriteFile(fs, "/project/README.md", []byte(`# My Project

Version: v2.0.0

Install it with npm install my-project@2.0.0

<version>1.0.0</version>`), 0644)

	matches, err := (&VersionFileBumper{FS: fs}).Scan("/project/README.md")
	if err != nil {
		fmt.Println("failed to scan file:", err)
		return
	}

	fmt.Printf("Found %d version references:\n", len(matches))
	for i, match := range matches {
		fmt.Printf("%d. Line %d: version %s (pattern: %s, prefixed: %t)\n",
			i+1, match.Line, match.Version, match.Pattern.Name, match.Prefixed)
	}

	// Output:
	// Found 2 version references:
	// 1. Line 3: version 2.0.0 (pattern: VERSION assignment, prefixed: true)
	// 2. Line 7: version 1.0.0 (pattern: XML version tag, prefixed: false)
}
