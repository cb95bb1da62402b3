package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/driver"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/optimizer"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	NoOptimize bool
}

// DumpResult is the JSON payload of the dump command.
type DumpResult struct {
	Unit   string          `json:"unit"`
	IRHash string          `json:"ir_hash"`
	Stats  optimizer.Stats `json:"stats"`
	IR     string          `json:"ir"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the IR of a source file",
		Long: `Compile one source and print its IR as indented S-expressions.

Example:
  tempo dump song.tempo
  tempo dump --no-optimize song.tempo`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoOptimize, "no-optimize", false, "skip the optimizer")
	return cmd
}

func runDump(opts *DumpOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	units, err := readUnits([]string{path})
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading source", err)
	}

	pipeline := driver.New(driver.Options{
		Optimize: opts.Config.Optimize && !opts.NoOptimize,
		Logger:   opts.logger(),
	})
	res, err := pipeline.Compile(cmd.Context(), units[0])
	if err != nil {
		d := diagnostic(err)
		_ = formatter.Error(d.Code, d.Message, d.Details)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}

	text := ir.Print(res.Program)
	if formatter.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: DumpResult{
			Unit:   res.Unit,
			IRHash: res.IRHash,
			Stats:  res.Stats,
			IR:     text,
		}})
	}
	fmt.Fprint(formatter.Writer, text)
	return nil
}
