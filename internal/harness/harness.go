package harness

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/tempo/internal/diag"
	"github.com/roach88/tempo/internal/driver"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/optimizer"
)

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Errors holds one message per failed check.
	Errors []string `json:"errors,omitempty"`

	// Dump is ir.Print of the compiled program; empty when compilation failed.
	Dump   string          `json:"dump,omitempty"`
	IRHash string          `json:"ir_hash,omitempty"`
	Stats  optimizer.Stats `json:"stats"`

	// Statements is the number of top-level statements compiled.
	Statements int `json:"statements"`

	// CompileError is the compile error text when compilation failed.
	CompileError string `json:"compile_error,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failed check.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Compiled reports whether the scenario's program compiled.
func (r *Result) Compiled() bool {
	return r.CompileError == ""
}

// Run compiles the scenario's program and evaluates its expectations.
// The returned error covers only failures to run the scenario at all.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	unit, err := scenarioUnit(scenario)
	if err != nil {
		return nil, err
	}

	pipeline := driver.New(driver.Options{Optimize: scenario.OptimizeEnabled()})
	compiled, compileErr := pipeline.Compile(ctx, unit)
	if compileErr != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", unit.Name, compileErr)
	}

	result := NewResult()
	if compileErr != nil {
		result.CompileError = compileErr.Error()
	} else {
		result.Dump = ir.Print(compiled.Program)
		result.IRHash = compiled.IRHash
		result.Stats = compiled.Stats
		result.Statements = len(compiled.Program.Statements)
	}

	checkExpect(result, scenario.Expect, compileErr)

	actx := &AssertionContext{Ctx: ctx, Scenario: scenario, Unit: unit}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func scenarioUnit(s *Scenario) (driver.Unit, error) {
	src := s.Source
	if s.File != "" {
		data, err := os.ReadFile(s.File)
		if err != nil {
			return driver.Unit{}, fmt.Errorf("failed to read source file: %w", err)
		}
		src = string(data)
	}
	return driver.Unit{Name: s.UnitName(), Source: src}, nil
}

func checkExpect(result *Result, expect *Expect, compileErr error) {
	var want *ExpectError
	if expect != nil {
		want = expect.Error
	}

	switch {
	case want == nil && compileErr != nil:
		result.AddError(fmt.Sprintf("unexpected compile error: %v", compileErr))
		return
	case want != nil && compileErr == nil:
		result.AddError(fmt.Sprintf("expected %s, but compilation succeeded", want.Kind))
		return
	case want != nil:
		matchError(result, want, compileErr)
		return
	}

	if expect != nil && expect.Stats != nil && *expect.Stats != result.Stats {
		result.AddError(fmt.Sprintf("stats: expected %+v, got %+v", *expect.Stats, result.Stats))
	}
}

func matchError(result *Result, want *ExpectError, err error) {
	got, ok := diag.As(err)
	if !ok {
		result.AddError(fmt.Sprintf("expected %s, got non-diagnostic error: %v", want.Kind, err))
		return
	}
	if string(got.Kind) != want.Kind {
		result.AddError(fmt.Sprintf("error kind: expected %s, got %s", want.Kind, got.Kind))
	}
	if want.Code != "" && got.Code != want.Code {
		result.AddError(fmt.Sprintf("error code: expected %s, got %s", want.Code, got.Code))
	}
	if want.Message != "" && got.Message != want.Message {
		result.AddError(fmt.Sprintf("error message: expected %q, got %q", want.Message, got.Message))
	}
	if want.Position != "" && got.Pos.String() != want.Position {
		result.AddError(fmt.Sprintf("error position: expected %s, got %s", want.Position, got.Pos))
	}
}
