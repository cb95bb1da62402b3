// Package harness runs tempo conformance scenarios.
//
// A scenario names a source program, compiles it through the driver pipeline
// and checks the outcome: either an expected compile error or a set of
// assertions over the printed IR and optimizer statistics.
//
// # Scenario Format
//
// Scenarios are YAML files decoded with unknown fields rejected:
//
//	name: fold_constants
//	description: "Constant arithmetic folds to a literal"
//	optimize: true          # default true
//	source: |
//	  let a = 1 + 2;
//	# or: file: programs/fold.tempo  (relative to the scenario)
//	expect:
//	  stats: { folded: 1, simplified: 0, eliminated: 0 }
//	  # or an error:
//	  # error: { kind: TypeError, code: E301, message: "...", position: "1:9" }
//	assertions:
//	  - type: print_contains
//	    text: "let a#1: number = 3"
//	  - type: statement_count
//	    count: 1
//
// # Assertion Types
//
//   - print_contains: the printed IR contains text
//   - print_excludes: the printed IR does not contain text
//   - statement_count: the program has exactly count top-level statements
//   - deterministic: a second, independent compile yields the same IR hash
//
// # Golden Files
//
// Snapshot renders a scenario outcome as text. RunWithGolden compares it with
// testdata/golden/<name>.golden through goldie; the tempo test command uses
// GoldenPath, CompareGolden and WriteGolden for the same files outside of
// go test.
package harness
