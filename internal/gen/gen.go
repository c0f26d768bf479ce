package gen

import (
	"strings"

	"github.com/qobs-build/mkall/internal/matrix"
)

// DefaultOutput is the conventional name of the generated Makefile.
const DefaultOutput = "Makefile.all"

// MakefileGen renders a top-level Makefile with one phony target per
// configuration, each forwarding to a nested make.
type MakefileGen struct {
	program   string
	buildRoot string
	params    []matrix.Param
	targets   []matrix.Target
}

// NewMakefileGen creates a generator for m. program is named in the header.
func NewMakefileGen(program string, m matrix.Matrix) *MakefileGen {
	return &MakefileGen{
		program:   program,
		buildRoot: m.Axes.BuildRoot,
		params:    m.Params,
	}
}

// AddTarget appends a configuration. Targets are emitted in the order they
// were added.
func (g *MakefileGen) AddTarget(t matrix.Target) {
	g.targets = append(g.targets, t)
}

func (g *MakefileGen) hasJobs() bool {
	for _, p := range g.params {
		if p.Name == matrix.JobsParam {
			return true
		}
	}
	return false
}

func (g *MakefileGen) Generate() string {
	var sb strings.Builder

	writeln(&sb, "# Generated using ", g.program, " - do not edit manually")
	writeln(&sb, "#")
	writeln(&sb, "# Build the project for all platforms")
	writeln(&sb, "#")
	writeln(&sb, ".SUFFIXES:")
	writeln(&sb)
	for _, p := range g.params {
		if p.Default == "" {
			writeln(&sb, p.Name, " =")
		} else {
			writeln(&sb, p.Name, " = ", p.Default)
		}
	}
	writeln(&sb)

	writeln(&sb, ".PHONY: all")
	write(&sb, "all:")
	for _, t := range g.targets {
		write(&sb, " ", t.Name)
	}
	writeln(&sb)
	writeln(&sb)

	for _, t := range g.targets {
		g.writeTarget(&sb, t)
		writeln(&sb)
	}

	writeln(&sb, ".PHONY: clean")
	writeln(&sb, "clean:")
	writeln(&sb, "\trm -rf ", g.buildRoot)

	return sb.String()
}

func (g *MakefileGen) writeTarget(sb *strings.Builder, t matrix.Target) {
	writeln(sb, ".PHONY: ", t.Name)
	writeln(sb, t.Name, ":")

	if g.hasJobs() {
		writeln(sb, "\t$(MAKE) -j $(", matrix.JobsParam, ") \\")
	} else {
		writeln(sb, "\t$(MAKE) \\")
	}
	for _, p := range g.params {
		if p.Name == matrix.JobsParam {
			continue
		}
		writeln(sb, "\t\t", p.Name, "=$(", p.Name, ") \\")
	}
	writeln(sb, "\t\tBUILD_DIR=", t.Dir, " \\")
	for _, v := range t.Vars {
		writeln(sb, "\t\t", v.Name, "=", v.Value, " \\")
	}
	writeln(sb, "\t\tLANG_STD=", t.LangStd, " CC=", t.CC)
}
