package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/tempo/internal/driver"
)

// AssertionError is a failed assertion with enough context to debug it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Dump     string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Dump != "" {
		fmt.Fprintf(&buf, "\nProgram:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Dump, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// AssertionContext carries what assertions need beyond the result.
type AssertionContext struct {
	Ctx      context.Context
	Scenario *Scenario
	Unit     driver.Unit
}

func assertPrintContains(result *Result, a Assertion) error {
	if strings.Contains(result.Dump, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPrintContains,
		Expected: fmt.Sprintf("program containing %q", a.Text),
		Actual:   "not found",
		Dump:     result.Dump,
	}
}

func assertPrintExcludes(result *Result, a Assertion) error {
	if !strings.Contains(result.Dump, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPrintExcludes,
		Expected: fmt.Sprintf("program without %q", a.Text),
		Actual:   "found",
		Dump:     result.Dump,
	}
}

func assertStatementCount(result *Result, a Assertion) error {
	if result.Statements == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertStatementCount,
		Expected: fmt.Sprintf("%d statement(s)", a.Count),
		Actual:   fmt.Sprintf("%d statement(s)", result.Statements),
		Dump:     result.Dump,
	}
}

// assertDeterministic recompiles the unit on a fresh pipeline and compares
// fingerprints.
func assertDeterministic(result *Result, actx *AssertionContext) error {
	pipeline := driver.New(driver.Options{Optimize: actx.Scenario.OptimizeEnabled()})
	again, err := pipeline.Compile(actx.Ctx, actx.Unit)
	if err != nil {
		return fmt.Errorf("deterministic: recompile failed: %w", err)
	}
	if again.IRHash == result.IRHash {
		return nil
	}
	return &AssertionError{
		Type:     AssertDeterministic,
		Expected: "IR hash " + result.IRHash,
		Actual:   "IR hash " + again.IRHash,
		Dump:     result.Dump,
	}
}

// EvaluateAssertions runs every assertion and returns one message per
// failure. Assertions over the program fail when compilation failed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch {
		case !result.Compiled():
			err = fmt.Errorf("assertion[%d]: %s requires a successful compilation", i, a.Type)
		case a.Type == AssertPrintContains:
			err = assertPrintContains(result, a)
		case a.Type == AssertPrintExcludes:
			err = assertPrintExcludes(result, a)
		case a.Type == AssertStatementCount:
			err = assertStatementCount(result, a)
		case a.Type == AssertDeterministic:
			if actx == nil || actx.Scenario == nil {
				err = fmt.Errorf("assertion[%d]: deterministic requires a scenario context", i)
			} else {
				err = assertDeterministic(result, actx)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
