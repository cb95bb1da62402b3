// Package config loads the optional tempo.cue project file.
//
// The file is unified with an embedded CUE schema, so unknown fields, bad
// enum values and out-of-range job counts are rejected with a position in
// the user's file. A missing file yields Default().
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// DefaultFile is the config file looked up at the project root.
const DefaultFile = "tempo.cue"

//go:embed schema.cue
var schemaSource string

// Config is the decoded project configuration.
type Config struct {
	Optimize bool     `json:"optimize"`
	Format   string   `json:"format"`
	Cache    string   `json:"cache"`
	Jobs     int      `json:"jobs"`
	Sources  []string `json:"sources"`
}

// Error is a configuration failure, positioned in the config file when CUE
// reports a location.
type Error struct {
	File    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Default returns the configuration implied by the schema defaults alone.
func Default() Config {
	cfg, err := parse("", nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates path. A path that does not exist yields Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return parse(path, data)
}

// Parse validates data as the contents of a config file named path.
func Parse(path string, data []byte) (Config, error) {
	return parse(path, data)
}

func parse(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, formatCUEError(path, err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def
	if len(data) > 0 {
		user := ctx.CompileBytes(data, cue.Filename(path))
		if err := user.Err(); err != nil {
			return Config{}, formatCUEError(path, err)
		}
		v = def.Unify(user)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(path, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(path, err)
	}
	return cfg, nil
}

// formatCUEError keeps the first CUE error, preferring a position inside the
// user's file over one inside the embedded schema.
func formatCUEError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{File: path, Message: err.Error()}
	}

	first := errs[0]
	out := &Error{File: path, Message: first.Error()}
	positions := cueerrors.Positions(first)
	for _, pos := range positions {
		if pos.Filename() == path {
			out.Pos = pos
			return out
		}
	}
	return out
}
