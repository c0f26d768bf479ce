package gen

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var ErrStale = errors.New("generated file is out of date")

// Check compares the generated text with the file at path. When they differ
// it returns ErrStale and a line diff from the file to the generated text.
func Check(path, generated string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if string(data) == generated {
		return "", nil
	}
	return LineDiff(string(data), generated), fmt.Errorf("%s: %w", path, ErrStale)
}

// LineDiff renders a line-oriented diff of a to b. Removed lines start with
// "-", added lines with "+" and unchanged lines with a space.
func LineDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			prefix = " "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			write(&sb, prefix, line)
			if !strings.HasSuffix(line, "\n") {
				writeln(&sb)
			}
		}
	}
	return sb.String()
}
