package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a scenario outcome for golden comparison.
func Snapshot(scenario *Scenario, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenario.Name)
	fmt.Fprintf(&buf, "optimize: %t\n", scenario.OptimizeEnabled())
	if !result.Compiled() {
		fmt.Fprintf(&buf, "error: %s\n", result.CompileError)
		return buf.Bytes()
	}
	fmt.Fprintf(&buf, "stats: folded=%d simplified=%d eliminated=%d\n",
		result.Stats.Folded, result.Stats.Simplified, result.Stats.Eliminated)
	buf.WriteString("---\n")
	buf.WriteString(result.Dump)
	return buf.Bytes()
}

// RunWithGolden runs a scenario and compares its snapshot with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
	return result, nil
}

// GoldenPath returns the golden file for a scenario file:
// <dir>/golden/<base>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// CompareGolden reports whether the golden file at path holds data.
func CompareGolden(path string, data []byte) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(golden, data), nil
}

// WriteGolden writes data to path, creating the directory.
func WriteGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
