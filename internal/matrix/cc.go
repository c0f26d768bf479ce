package matrix

import (
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
)

// LookPathFunc resolves an executable name, as exec.LookPath does.
type LookPathFunc func(file string) (string, error)

// DetectCompilers returns a copy of m whose compiler axis only holds
// compilers available on this system. If CC is set and names a compiler on
// the axis, that compiler alone is kept.
func (m Matrix) DetectCompilers() (Matrix, error) {
	return m.detectCompilers(os.Getenv("CC"), exec.LookPath)
}

func (m Matrix) detectCompilers(cc string, lookPath LookPathFunc) (Matrix, error) {
	var found []string
	if cc != "" && slices.Contains(m.Axes.Compilers, cc) {
		found = []string{cc}
	} else {
		for _, compiler := range m.Axes.Compilers {
			if _, err := lookPath(compiler); err == nil {
				found = append(found, compiler)
			}
		}
	}

	if len(found) == 0 {
		return m, fmt.Errorf("%w: none of %s found", ErrNoConfigurations, strings.Join(m.Axes.Compilers, ", "))
	}

	m.Axes.Compilers = found
	return m, nil
}
