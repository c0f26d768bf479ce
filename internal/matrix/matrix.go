package matrix

import (
	"errors"
	"fmt"
	"runtime"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	ErrEmptyAxis        = errors.New("axis has no values")
	ErrDuplicateValue   = errors.New("duplicate axis value")
	ErrUnsafeValue      = errors.New("value would break Makefile syntax")
	ErrDuplicateTarget  = errors.New("two configurations render to the same target name")
	ErrNoConfigurations = errors.New("no configurations left")
)

// reservedTargets are the fixed rules every generated Makefile has.
var reservedTargets = map[string]bool{"all": true, "clean": true}

// recipeVars are passed to the nested make by every target.
var recipeVars = []string{"BUILD_DIR", "LANG_STD", "CC"}

// JobsParam is the param that sets the parallelism of the nested make
// instead of being forwarded as a variable.
const JobsParam = "JOBS"

// Configuration is one point of the matrix. It doubles as the expression
// environment for flag predicates and name templates.
type Configuration struct {
	Profile    string `expr:"profile"`
	LangStd    string `expr:"lang_std"`
	CC         string `expr:"cc"`
	MT         bool   `expr:"mt"`
	BuildRoot  string `expr:"build_root"`
	TargetOS   string `expr:"target_os"`
	TargetArch string `expr:"target_arch"`
}

// Var is a make variable assignment passed on the command line of the
// nested make.
type Var struct {
	Name  string
	Value string
}

// Target is a configuration rendered into the names the Makefile uses.
type Target struct {
	Configuration
	Name string
	Dir  string
	Vars []Var // flags whose predicate held, in declaration order
}

// Param defines a [[param]] entry: a variable declared at the top of the
// Makefile that the caller can override.
type Param struct {
	Name    string `toml:"name"`
	Default string `toml:"default"`
}

// Flag defines a [[flag]] entry: a variable emitted only for the
// configurations where When evaluates to true.
type Flag struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
	When  string `toml:"when"`
}

// AxesSection defines the [matrix] section
type AxesSection struct {
	Compilers     []string `toml:"compilers"`
	Standards     []string `toml:"standards"`
	Profiles      []string `toml:"profiles"`
	Multithreaded []string `toml:"multithreaded"`
	BuildRoot     string   `toml:"build_root"`
	TargetName    string   `toml:"target_name"`
	BuildDir      string   `toml:"build_dir"`
}

type Matrix struct {
	Axes   AxesSection `toml:"matrix"`
	Params []Param     `toml:"param"`
	Flags  []Flag      `toml:"flag"`
}

// Default returns the built-in matrix: gcc and clang, C11/C99/C23, debug and
// release, with C11 as the only standard that builds multi-threaded.
func Default() Matrix {
	return Matrix{
		Axes: AxesSection{
			Compilers:     []string{"gcc", "clang"},
			Standards:     []string{"c11", "c99", "c23"},
			Profiles:      []string{"debug", "release"},
			Multithreaded: []string{"c11"},
			BuildRoot:     "build",
			TargetName:    "build-{{profile}}-{{lang_std}}-{{cc}}",
			BuildDir:      "{{build_root}}/{{profile}}-{{lang_std}}-{{cc}}",
		},
		Params: []Param{
			{Name: "TEST_FILTERS", Default: ""},
			{Name: JobsParam, Default: "1"},
		},
		Flags: []Flag{
			{Name: "ENABLE_RELEASE", Value: "1", When: `profile == "release"`},
			{Name: "DISABLE_MT", Value: "1", When: "!mt"},
		},
	}
}

// Size is the number of configurations Expand returns.
func (m Matrix) Size() int {
	return len(m.Axes.Compilers) * len(m.Axes.Standards) * len(m.Axes.Profiles)
}

// Expand returns the Cartesian product of the axes: compiler outer,
// standard middle, profile inner.
func (m Matrix) Expand() []Configuration {
	configs := make([]Configuration, 0, m.Size())
	for _, cc := range m.Axes.Compilers {
		for _, std := range m.Axes.Standards {
			for _, profile := range m.Axes.Profiles {
				configs = append(configs, Configuration{
					Profile:    profile,
					LangStd:    std,
					CC:         cc,
					MT:         slices.Contains(m.Axes.Multithreaded, std),
					BuildRoot:  m.Axes.BuildRoot,
					TargetOS:   runtime.GOOS,
					TargetArch: runtime.GOARCH,
				})
			}
		}
	}
	return configs
}

// Resolve expands the matrix and renders every configuration into a target.
// The result keeps enumeration order.
func (m Matrix) Resolve() ([]Target, error) {
	nameTmpl, err := compileTemplate(m.Axes.TargetName)
	if err != nil {
		return nil, fmt.Errorf("target_name: %w", err)
	}
	dirTmpl, err := compileTemplate(m.Axes.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("build_dir: %w", err)
	}
	preds := make([]*predicate, len(m.Flags))
	for i, f := range m.Flags {
		if preds[i], err = compilePredicate(f.When); err != nil {
			return nil, fmt.Errorf("flag %s: %w", f.Name, err)
		}
	}

	configs := m.Expand()
	targets := make([]Target, 0, len(configs))
	seen := make(map[string]bool, len(configs))
	for _, c := range configs {
		name, err := nameTmpl.render(c)
		if err != nil {
			return nil, fmt.Errorf("target_name: %w", err)
		}
		if err := checkValue("target_name", name); err != nil {
			return nil, err
		}
		if seen[name] || reservedTargets[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTarget, name)
		}
		seen[name] = true

		dir, err := dirTmpl.render(c)
		if err != nil {
			return nil, fmt.Errorf("build_dir for %s: %w", name, err)
		}
		if err := checkValue("build_dir for "+name, dir); err != nil {
			return nil, err
		}

		var vars []Var
		for i, f := range m.Flags {
			ok, err := preds[i].eval(c)
			if err != nil {
				return nil, fmt.Errorf("flag %s for %s: %w", f.Name, name, err)
			}
			if ok {
				vars = append(vars, Var{Name: f.Name, Value: f.Value})
			}
		}

		targets = append(targets, Target{Configuration: c, Name: name, Dir: dir, Vars: vars})
	}
	return targets, nil
}

// Filter keeps the targets whose name matches the doublestar pattern.
func Filter(targets []Target, pattern string) ([]Target, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}
	var kept []Target
	for _, t := range targets {
		if doublestar.MatchUnvalidated(pattern, t.Name) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %q", ErrNoConfigurations, pattern)
	}
	return kept, nil
}
