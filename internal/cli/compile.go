package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/driver"
	"github.com/roach88/tempo/internal/optimizer"
	"github.com/roach88/tempo/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output     string // output directory for <name>.ir.json
	NoOptimize bool
	Cache      string // SQLite compilation cache
	Jobs       int
}

// UnitSummary reports one compiled unit.
type UnitSummary struct {
	Unit      string          `json:"unit"`
	IRHash    string          `json:"ir_hash,omitempty"`
	Optimized bool            `json:"optimized"`
	Cached    bool            `json:"cached"`
	Stats     optimizer.Stats `json:"stats"`
	Output    string          `json:"output,omitempty"`
	Error     *CLIError       `json:"error,omitempty"`
}

// CompileSummary reports a compile run.
type CompileSummary struct {
	Units    []UnitSummary `json:"units"`
	Compiled int           `json:"compiled"`
	Failed   int           `json:"failed"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [files...]",
		Short: "Compile sources to canonical IR",
		Long: `Compile tempo sources to canonical JSON IR.

Units are compiled concurrently. With --output each unit is written to
<dir>/<name>.ir.json. With --cache, unchanged sources are served from the
compilation log and every compile is recorded.

Examples:
  tempo compile song.tempo
  tempo compile src -o build --cache .tempo/cache.db
  tempo compile --no-optimize --format json song.tempo`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory for .ir.json files")
	cmd.Flags().BoolVar(&opts.NoOptimize, "no-optimize", false, "skip the optimizer")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "path to SQLite compilation cache")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 0, "units compiled in parallel")

	return cmd
}

// pipelineOptions merges flags over the project configuration.
func (o *CompileOptions) pipelineOptions(cmd *cobra.Command) (driver.Options, string) {
	cfg := o.Config
	optimize := cfg.Optimize
	if o.NoOptimize {
		optimize = false
	}
	jobs := cfg.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs = o.Jobs
	}
	cache := cfg.Cache
	if cmd.Flags().Changed("cache") {
		cache = o.Cache
	}
	return driver.Options{Optimize: optimize, Jobs: jobs, Logger: o.logger()}, cache
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	units, err := loadUnits(args, opts.RootOptions)
	if err != nil {
		return err
	}

	popts, cachePath := opts.pipelineOptions(cmd)
	if cachePath != "" {
		st, err := store.Open(cachePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open cache", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				popts.Logger.Error("error closing cache", "error", closeErr)
			}
		}()
		popts.Cache = st
	}
	formatter.VerboseLog("Compiling %d unit(s) with %d job(s)", len(units), popts.Jobs)

	if opts.Output != "" {
		if err := os.MkdirAll(opts.Output, 0755); err != nil {
			return WrapExitError(ExitCommandError, "creating output directory", err)
		}
	}

	results, err := driver.New(popts).CompileAll(cmd.Context(), units)
	if err != nil {
		return WrapExitError(ExitCommandError, "compilation interrupted", err)
	}

	summary := CompileSummary{Units: make([]UnitSummary, 0, len(results))}
	for _, res := range results {
		us := UnitSummary{
			Unit:      res.Unit,
			IRHash:    res.IRHash,
			Optimized: res.Optimized,
			Cached:    res.Cached,
			Stats:     res.Stats,
		}
		if res.Err != nil {
			us.Error = diagnostic(res.Err)
			summary.Failed++
			summary.Units = append(summary.Units, us)
			continue
		}
		if opts.Output != "" {
			us.Output = irPath(opts.Output, res.Unit)
			if err := os.WriteFile(us.Output, res.IR, 0644); err != nil {
				_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing %s: %v", us.Output, err), nil)
				return WrapExitError(ExitCommandError, "writing output", err)
			}
		}
		summary.Compiled++
		summary.Units = append(summary.Units, us)
	}

	if err := outputCompileSummary(formatter, summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed", summary.Failed))
	}
	return nil
}

// irPath maps a unit to <dir>/<name>.ir.json.
func irPath(dir, unit string) string {
	base := filepath.Base(unit)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".ir.json")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func outputCompileSummary(formatter *OutputFormatter, summary CompileSummary) error {
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: summary}
		if summary.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%d unit(s) failed", summary.Failed)}
		}
		return formatter.JSON(resp)
	}

	w := formatter.Writer
	for _, us := range summary.Units {
		if us.Error != nil {
			fmt.Fprintf(w, "%s %s\n", markFail, us.Error.Message)
			continue
		}
		line := fmt.Sprintf("%s %s  ir=%s", markOK, us.Unit, shortHash(us.IRHash))
		if us.Optimized && us.Stats.Changed() {
			line += fmt.Sprintf("  folded=%d simplified=%d eliminated=%d",
				us.Stats.Folded, us.Stats.Simplified, us.Stats.Eliminated)
		}
		if us.Cached {
			line += "  (cached)"
		}
		if us.Output != "" {
			line += "  -> " + us.Output
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\nCompiled %d unit(s), %d failed\n", summary.Compiled, summary.Failed)
	return nil
}
