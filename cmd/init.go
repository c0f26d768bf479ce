// mkall init [dir]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/qobs-build/mkall/internal/gen"
	"github.com/qobs-build/mkall/internal/matrix"
	"github.com/qobs-build/mkall/internal/msg"
	"github.com/spf13/cobra"
)

// defaultMatrixFile spells out the built-in matrix.
const defaultMatrixFile = `# Build matrix for mkall. Every target is one compiler x standard x profile.
[matrix]
compilers = ["gcc", "clang"]
standards = ["c11", "c99", "c23"]
profiles = ["debug", "release"]
multithreaded = ["c11"] # standards that build with threads
build_root = "build"
target_name = "build-{{profile}}-{{lang_std}}-{{cc}}"
build_dir = "{{build_root}}/{{profile}}-{{lang_std}}-{{cc}}"

# Variables declared at the top of the Makefile, overridable with make VAR=...
[[param]]
name = "TEST_FILTERS"
default = ""

[[param]]
name = "JOBS"
default = "1"

# Variables passed to the nested make only when "when" holds.
# Available: profile, lang_std, cc, mt, build_root, target_os, target_arch.
[[flag]]
name = "ENABLE_RELEASE"
value = "1"
when = 'profile == "release"'

[[flag]]
name = "DISABLE_MT"
value = "1"
when = "!mt"
`

// writefile creates the file unless it already exists, and reports whether
// it did.
func writefile(content string, elem ...string) (bool, error) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("create file %s: %w", path, err)
	}
	return true, nil
}

// initIn writes the default matrix file into dir.
func initIn(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", dir, err)
	}

	path := filepath.Join(dir, matrix.DefaultFilename)
	created, err := writefile(defaultMatrixFile, path)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if !created {
		msg.Warn("%s already exists, leaving it alone", filepath.ToSlash(path))
		return
	}
	fmt.Fprintf(msg.Output, "%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))

	programName := getProgramName()
	fmt.Fprintf(msg.Output, "You can now do %s to generate the Makefile.\n",
		color.HiCyanString(programName+" -c "+filepath.ToSlash(path)+" -o "+gen.DefaultOutput))
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write the default " + matrix.DefaultFilename + " to edit",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		initIn(dir)
	},
}

func init() {
	// mkall init subcommand
	rootCmd.AddCommand(initCmd)
}
