package matrix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// template is a string with {{...}} expressions, compiled once and rendered
// per configuration. Literal parts and programs alternate, starting with a
// literal.
type template struct {
	literals []string
	programs []*vm.Program
}

func compileTemplate(s string) (*template, error) {
	t := new(template)
	lastIndex := 0

	for _, matchIndexes := range exprRegex.FindAllStringSubmatchIndex(s, -1) {
		fullMatchStart, fullMatchEnd := matchIndexes[0], matchIndexes[1]
		expression := strings.TrimSpace(s[matchIndexes[2]:matchIndexes[3]])

		program, err := expr.Compile(expression, expr.Env(Configuration{}))
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		t.literals = append(t.literals, s[lastIndex:fullMatchStart])
		t.programs = append(t.programs, program)
		lastIndex = fullMatchEnd
	}

	t.literals = append(t.literals, s[lastIndex:])
	return t, nil
}

func (t *template) render(c Configuration) (string, error) {
	var sb strings.Builder
	for i, program := range t.programs {
		sb.WriteString(t.literals[i])
		result, err := expr.Run(program, c)
		if err != nil {
			return "", fmt.Errorf("failed to run expression: %w", err)
		}
		fmt.Fprintf(&sb, "%v", result)
	}
	sb.WriteString(t.literals[len(t.literals)-1])
	return sb.String(), nil
}

type predicate struct {
	program *vm.Program
}

// compilePredicate compiles a flag condition. An empty condition always holds.
func compilePredicate(s string) (*predicate, error) {
	if strings.TrimSpace(s) == "" {
		return &predicate{}, nil
	}
	program, err := expr.Compile(s, expr.Env(Configuration{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile condition %q: %w", s, err)
	}
	return &predicate{program: program}, nil
}

func (p *predicate) eval(c Configuration) (bool, error) {
	if p.program == nil {
		return true, nil
	}
	result, err := expr.Run(p.program, c)
	if err != nil {
		return false, fmt.Errorf("failed to run condition: %w", err)
	}
	matched, _ := result.(bool)
	return matched, nil
}
