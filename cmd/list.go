// mkall list
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/qobs-build/mkall/internal/matrix"
	"github.com/qobs-build/mkall/internal/msg"
	"github.com/spf13/cobra"
)

var flagVerbose bool

// listTargets prints one target name per line. Verbose output adds the
// variables each target passes to the nested make, indented below it.
func listTargets(w io.Writer, targets []matrix.Target, verbose bool) {
	for _, t := range targets {
		fmt.Fprintln(w, t.Name)
		if !verbose {
			continue
		}
		iw := &msg.IndentWriter{Indent: "    ", W: w}
		fmt.Fprintf(iw, "BUILD_DIR=%s\n", t.Dir)
		for _, v := range t.Vars {
			fmt.Fprintf(iw, "%s=%s\n", v.Name, v.Value)
		}
		fmt.Fprintf(iw, "LANG_STD=%s CC=%s\n", t.LangStd, t.CC)
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the targets the Makefile would contain",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, targets, err := loadTargets(currentOptions())
		if err != nil {
			msg.Fatal("%v", err)
		}
		listTargets(os.Stdout, targets, flagVerbose)
	},
}

func init() {
	// mkall list subcommand
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show the variables of every target")
}
