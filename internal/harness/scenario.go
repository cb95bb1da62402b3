package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tempo/internal/optimizer"
)

// Scenario is one conformance case.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Source is the program text. Exactly one of Source and File is set.
	Source string `yaml:"source,omitempty"`

	// File is a program path, relative to the scenario file until loaded.
	File string `yaml:"file,omitempty"`

	// Optimize enables the optimizer. Nil means true.
	Optimize *bool `yaml:"optimize,omitempty"`

	Expect     *Expect     `yaml:"expect,omitempty"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect describes the expected compile outcome.
type Expect struct {
	// Error, when set, requires compilation to fail with a matching error.
	Error *ExpectError `yaml:"error,omitempty"`

	// Stats, when set, must equal the optimizer statistics exactly.
	Stats *optimizer.Stats `yaml:"stats,omitempty"`
}

// ExpectError matches a compile error. Empty fields are not checked.
type ExpectError struct {
	Kind     string `yaml:"kind"`
	Code     string `yaml:"code,omitempty"`
	Message  string `yaml:"message,omitempty"`
	Position string `yaml:"position,omitempty"`
}

// Assertion checks the compiled program.
type Assertion struct {
	Type  string `yaml:"type"`
	Text  string `yaml:"text,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertPrintContains  = "print_contains"
	AssertPrintExcludes  = "print_excludes"
	AssertStatementCount = "statement_count"
	AssertDeterministic  = "deterministic"
)

// OptimizeEnabled reports whether the scenario runs the optimizer.
func (s *Scenario) OptimizeEnabled() bool {
	return s.Optimize == nil || *s.Optimize
}

// UnitName is the compilation unit name used in error messages.
func (s *Scenario) UnitName() string {
	if s.File != "" {
		return filepath.Base(s.File)
	}
	return s.Name + ".tempo"
}

// LoadScenario reads and parses a scenario YAML file. A relative File is
// resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.File != "" && !filepath.IsAbs(scenario.File) {
		scenario.File = filepath.Join(filepath.Dir(path), scenario.File)
	}
	if scenario.File != "" {
		if _, err := os.Stat(scenario.File); err != nil {
			return nil, fmt.Errorf("invalid scenario: source file not found: %s", scenario.File)
		}
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML, rejecting unknown fields.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Source == "" && s.File == "":
		return fmt.Errorf("one of source or file is required")
	case s.Source != "" && s.File != "":
		return fmt.Errorf("source and file are mutually exclusive")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	if s.Expect != nil && s.Expect.Error != nil {
		if s.Expect.Error.Kind == "" {
			return fmt.Errorf("expect.error: kind is required")
		}
		if s.Expect.Stats != nil {
			return fmt.Errorf("expect: error and stats are mutually exclusive")
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertPrintContains, AssertPrintExcludes:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertStatementCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for statement_count", index)
		}
	case AssertDeterministic:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
