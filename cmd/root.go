// mkall, mkall -o FILE, mkall --check FILE
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/qobs-build/mkall/internal/gen"
	"github.com/qobs-build/mkall/internal/matrix"
	"github.com/qobs-build/mkall/internal/msg"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagOnly   string
	flagDetect bool
	flagOutput string
	flagCheck  string
	flagColor  EnumValue = NewEnumValue("auto", map[string]string{
		"auto":   "Color diagnostics when stderr is a terminal (default)",
		"always": "Always color diagnostics",
		"never":  "Never color diagnostics",
	})
)

// options selects the matrix and the configurations to render.
type options struct {
	config string // matrix file, built-in matrix when empty
	only   string // doublestar pattern over target names
	detect bool
}

func currentOptions() options {
	return options{config: flagConfig, only: flagOnly, detect: flagDetect}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "mkall"
	}
	return filepath.Base(os.Args[0])
}

// loadTargets resolves the matrix selected by opts into its targets.
func loadTargets(opts options) (matrix.Matrix, []matrix.Target, error) {
	m := matrix.Default()
	if opts.config != "" {
		parsed, err := matrix.ParseFile(opts.config)
		if err != nil {
			return m, nil, err
		}
		m = *parsed
	}

	if opts.detect {
		var err error
		if m, err = m.DetectCompilers(); err != nil {
			return m, nil, err
		}
	}

	targets, err := m.Resolve()
	if err != nil {
		return m, nil, err
	}

	if opts.only != "" {
		if targets, err = matrix.Filter(targets, opts.only); err != nil {
			return m, nil, err
		}
	}
	return m, targets, nil
}

// render produces the complete Makefile text for opts and the number of
// configuration targets in it.
func render(program string, opts options) (string, int, error) {
	m, targets, err := loadTargets(opts)
	if err != nil {
		return "", 0, err
	}

	g := gen.NewMakefileGen(program, m)
	for _, t := range targets {
		g.AddTarget(t)
	}
	return g.Generate(), len(targets), nil
}

func doGenerate(cmd *cobra.Command, args []string) {
	if flagOutput != "" && flagCheck != "" {
		msg.Fatal("--output and --check are mutually exclusive")
	}

	out, n, err := render(getProgramName(), currentOptions())
	if err != nil {
		msg.Fatal("%v", err)
	}

	switch {
	case flagCheck != "":
		diff, err := gen.Check(flagCheck, out)
		if errors.Is(err, gen.ErrStale) {
			msg.Error("%s differs from the generated Makefile:", flagCheck)
			fmt.Fprint(msg.Output, diff)
			msg.Fatal("%v", err)
		} else if err != nil {
			msg.Fatal("%v", err)
		}
		msg.Info("%s is up to date", flagCheck)
	case flagOutput != "":
		if err := os.WriteFile(flagOutput, []byte(out), 0o644); err != nil {
			msg.Fatal("write %s: %v", flagOutput, err)
		}
		msg.Info("wrote %d targets to %s", n, flagOutput)
	default:
		fmt.Print(out)
	}
}

func applyColor(cmd *cobra.Command, args []string) {
	switch flagColor.Value() {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	}
}

var rootCmd = &cobra.Command{
	Use:              "mkall",
	Short:            "Generate a Makefile covering every build configuration",
	Long:             `Generate a Makefile with one target per compiler, language standard and profile, plus "all" and "clean".`,
	Args:             cobra.NoArgs,
	PersistentPreRun: applyColor,
	Run:              doGenerate,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Read the matrix from the given TOML file instead of the built-in one")
	pf.StringVar(&flagOnly, "only", "", "Only keep targets whose name matches the given glob")
	pf.BoolVar(&flagDetect, "detect", false, "Drop compilers that are not installed")
	pf.Var(&flagColor, "color", "Colorize diagnostics, one of "+flagColor.HelpString())
	rootCmd.RegisterFlagCompletionFunc("color", flagColor.CompletionFunc())

	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write the Makefile to the given file instead of stdout")
	rootCmd.Flags().StringVar(&flagCheck, "check", "", "Fail with a diff if the given file differs from the generated Makefile")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
