package matrix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFilename is the matrix file `mkall init` writes.
const DefaultFilename = "Matrix.toml"

// unsafeChars may not appear in axis values or variable names: they either
// split words or mean something to make.
const unsafeChars = "#:=$\\"

// Parse reads a TOML matrix. Keys that are missing keep their built-in value.
func Parse(rdr io.Reader) (*Matrix, error) {
	var m Matrix
	dec := toml.NewDecoder(rdr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, errors.New(serr.String())
		}
		return nil, err
	}

	m.fillDefaults(Default())
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseFile parses and validates a matrix file from a filepath
func ParseFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// fillDefaults copies every unset field from def. A nil list is unset; an
// explicitly empty one (flag = []) is kept.
func (m *Matrix) fillDefaults(def Matrix) {
	a := &m.Axes
	if a.Compilers == nil {
		a.Compilers = def.Axes.Compilers
	}
	if a.Standards == nil {
		a.Standards = def.Axes.Standards
	}
	if a.Profiles == nil {
		a.Profiles = def.Axes.Profiles
	}
	if a.Multithreaded == nil {
		a.Multithreaded = def.Axes.Multithreaded
	}
	if a.BuildRoot == "" {
		a.BuildRoot = def.Axes.BuildRoot
	}
	if a.TargetName == "" {
		a.TargetName = def.Axes.TargetName
	}
	if a.BuildDir == "" {
		a.BuildDir = def.Axes.BuildDir
	}
	if m.Params == nil {
		m.Params = def.Params
	}
	if m.Flags == nil {
		m.Flags = def.Flags
	}
}

// Validate checks that every axis is non-empty, free of duplicates and free
// of characters that would break the generated Makefile, that no variable is
// passed to make twice, and that every configuration renders to a distinct,
// Makefile-safe target name and build directory.
func (m Matrix) Validate() error {
	axes := []struct {
		name   string
		values []string
	}{
		{"compilers", m.Axes.Compilers},
		{"standards", m.Axes.Standards},
		{"profiles", m.Axes.Profiles},
	}
	for _, axis := range axes {
		if err := checkAxis(axis.name, axis.values); err != nil {
			return err
		}
	}
	if err := checkValue("build_root", m.Axes.BuildRoot); err != nil {
		return err
	}

	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Name
		if strings.ContainsAny(p.Default, "\n\r") {
			return fmt.Errorf("param %s: %w: default spans lines", p.Name, ErrUnsafeValue)
		}
	}
	if len(params) > 0 {
		if err := checkAxis("param", params); err != nil {
			return err
		}
	}

	taken := make(map[string]bool, len(recipeVars)+len(params)+len(m.Flags))
	for _, name := range recipeVars {
		taken[name] = true
	}
	for _, name := range params {
		taken[name] = true
	}
	for _, f := range m.Flags {
		if err := checkValue("flag", f.Name); err != nil {
			return err
		}
		if taken[f.Name] {
			return fmt.Errorf("flag: %w: %s is already passed to make", ErrDuplicateValue, f.Name)
		}
		taken[f.Name] = true
		if err := checkValue("flag "+f.Name, f.Value); err != nil {
			return err
		}
	}

	_, err := m.Resolve()
	return err
}

func checkAxis(name string, values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("%s: %w", name, ErrEmptyAxis)
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if err := checkValue(name, v); err != nil {
			return err
		}
		if seen[v] {
			return fmt.Errorf("%s: %w: %q", name, ErrDuplicateValue, v)
		}
		seen[v] = true
	}
	return nil
}

func checkValue(name, v string) error {
	if v == "" {
		return fmt.Errorf("%s: %w: empty value", name, ErrUnsafeValue)
	}
	if strings.ContainsAny(v, unsafeChars) || strings.IndexFunc(v, isSpace) >= 0 {
		return fmt.Errorf("%s: %w: %q", name, ErrUnsafeValue, v)
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
