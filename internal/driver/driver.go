// Package driver runs compilation units through the full pipeline:
// parse, bind, validate, optimize and fingerprint.
//
// Each unit is compiled by its own analyzer with no shared mutable state, so
// CompileAll can fan units out across goroutines. A Cache, when configured,
// short-circuits units whose source has been compiled before.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/tempo/internal/compiler"
	"github.com/roach88/tempo/internal/diag"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/optimizer"
	"github.com/roach88/tempo/internal/store"
	"github.com/roach88/tempo/internal/syntax"
)

// DefaultJobs bounds CompileAll when Options.Jobs is unset.
const DefaultJobs = 4

// Unit is one compilation unit: a named source text.
type Unit struct {
	Name   string
	Source string
}

// Result is the outcome of compiling one unit.
type Result struct {
	Unit       string
	SourceHash string

	// Program is the bound (and, when enabled, optimized) IR. It is nil for
	// cache hits, which carry only the encoded form.
	Program *ir.Program
	IR      []byte
	IRHash  string

	Optimized bool
	Stats     optimizer.Stats
	Cached    bool

	// Err is the unit's compile error. CompileAll records it here instead
	// of aborting sibling units.
	Err error
}

// Cache stores compiled IR keyed by unit name, source hash and optimization.
// *store.Store implements it.
type Cache interface {
	Lookup(ctx context.Context, unit, sourceHash string, optimized bool) (store.Compilation, bool, error)
	Record(ctx context.Context, c store.Compilation) (store.Compilation, error)
}

// Options configures a Pipeline.
type Options struct {
	Optimize bool
	Jobs     int
	Logger   *slog.Logger
	Cache    Cache
}

// Pipeline compiles units. It is safe for concurrent use.
type Pipeline struct {
	optimize bool
	jobs     int
	logger   *slog.Logger
	cache    Cache
}

// New creates a pipeline. A nil logger discards log output.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = DefaultJobs
	}
	return &Pipeline{optimize: opts.Optimize, jobs: jobs, logger: logger, cache: opts.Cache}
}

// Bind parses and binds a unit without validation or optimization.
func Bind(u Unit) (*ir.Program, error) {
	root, err := syntax.Parse(u.Source)
	if err != nil {
		return nil, attribute(err, u.Name)
	}
	p, err := compiler.Analyze(root)
	if err != nil {
		return nil, attribute(err, u.Name)
	}
	return p, nil
}

// Compile runs one unit through the pipeline. Compile errors are returned as
// *diag.Error attributed to the unit; cache failures are logged and do not
// fail the compilation.
func (p *Pipeline) Compile(ctx context.Context, u Unit) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := p.logger.With("unit", u.Name)
	res := &Result{Unit: u.Name, SourceHash: ir.SourceHash(u.Source), Optimized: p.optimize}

	if hit, ok := p.lookup(ctx, log, res); ok {
		return hit, nil
	}

	log.Debug("binding")
	prog, err := Bind(u)
	if err != nil {
		log.Debug("bind failed", "error", err)
		p.record(ctx, log, res, err)
		return nil, err
	}
	log.Debug("bound", "statements", len(prog.Statements))

	if errs := compiler.Validate(prog); len(errs) > 0 {
		log.Error("invalid IR", "errors", len(errs))
		return nil, fmt.Errorf("compile %s: %w", u.Name, errors.Join(errs...))
	}

	if p.optimize {
		prog, res.Stats = optimizer.Optimize(prog)
		log.Debug("optimized",
			"folded", res.Stats.Folded,
			"simplified", res.Stats.Simplified,
			"eliminated", res.Stats.Eliminated,
			"statements", len(prog.Statements),
		)
	}

	data, err := ir.Canonical(prog)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", u.Name, err)
	}
	res.Program = prog
	res.IR = data
	res.IRHash, err = ir.Fingerprint(prog)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", u.Name, err)
	}

	p.record(ctx, log, res, nil)
	return res, nil
}

// CompileAll compiles units concurrently, at most Jobs at a time. Results are
// in input order; a unit's compile error is stored in its Result.Err. The
// returned error is non-nil only when ctx is cancelled.
func (p *Pipeline) CompileAll(ctx context.Context, units []Unit) ([]*Result, error) {
	results := make([]*Result, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.jobs)

	for i, u := range units {
		g.Go(func() error {
			res, err := p.Compile(gctx, u)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				res = &Result{Unit: u.Name, SourceHash: ir.SourceHash(u.Source), Optimized: p.optimize, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) lookup(ctx context.Context, log *slog.Logger, res *Result) (*Result, bool) {
	if p.cache == nil {
		return nil, false
	}
	c, ok, err := p.cache.Lookup(ctx, res.Unit, res.SourceHash, p.optimize)
	if err != nil {
		log.Warn("cache lookup failed", "error", err)
		return nil, false
	}
	if !ok {
		log.Debug("cache miss")
		return nil, false
	}
	log.Debug("cache hit", "id", c.ID, "ir_hash", c.IRHash)
	hit := *res
	hit.IR = c.IR
	hit.IRHash = c.IRHash
	hit.Cached = true
	return &hit, true
}

func (p *Pipeline) record(ctx context.Context, log *slog.Logger, res *Result, compileErr error) {
	if p.cache == nil {
		return
	}
	c := store.Compilation{
		Unit:       res.Unit,
		SourceHash: res.SourceHash,
		IRHash:     res.IRHash,
		IRVersion:  ir.Version,
		Optimized:  res.Optimized,
		IR:         res.IR,
	}
	if de, ok := diag.As(compileErr); ok {
		c.ErrorKind = string(de.Kind)
		c.ErrorCode = de.Code
		c.ErrorMessage = de.Error()
	}
	saved, err := p.cache.Record(ctx, c)
	if err != nil {
		log.Warn("cache record failed", "error", err)
		return
	}
	log.Debug("recorded", "id", saved.ID, "seq", saved.Seq)
}

// attribute tags compile errors with the unit name.
func attribute(err error, unit string) error {
	if unit == "" {
		return err
	}
	var de *diag.Error
	if errors.As(err, &de) && de.File == "" {
		return de.WithFile(unit)
	}
	return err
}
