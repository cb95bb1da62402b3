package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, s.Name)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestSnapshot(t *testing.T) {
	s := inline("fold", "let a = 1 + 2;")
	result, err := Run(s)
	require.NoError(t, err)

	want := "scenario: fold\n" +
		"optimize: true\n" +
		"stats: folded=1 simplified=0 eliminated=0\n" +
		"---\n" +
		"let a#1: number = 3\n"
	assert.Equal(t, want, string(Snapshot(s, result)))
}

func TestSnapshot_CompileError(t *testing.T) {
	s := inline("oops", "break;")
	result, err := Run(s)
	require.NoError(t, err)

	want := "scenario: oops\n" +
		"optimize: true\n" +
		"error: oops.tempo:1:1: ControlFlowError: Break can only appear in a loop\n"
	assert.Equal(t, want, string(Snapshot(s, result)))
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "fold.golden"),
		GoldenPath(filepath.Join("scenarios", "fold.yaml")))
}

func TestWriteAndCompareGolden(t *testing.T) {
	path := GoldenPath(filepath.Join(t.TempDir(), "s.yaml"))

	_, err := CompareGolden(path, []byte("x"))
	require.Error(t, err)

	require.NoError(t, WriteGolden(path, []byte("snapshot\n")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "snapshot\n", string(data))

	match, err := CompareGolden(path, []byte("snapshot\n"))
	require.NoError(t, err)
	assert.True(t, match)

	match, err = CompareGolden(path, []byte("different\n"))
	require.NoError(t, err)
	assert.False(t, match)
}
