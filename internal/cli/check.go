package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/driver"
)

// CheckResult is the outcome of binding one unit.
type CheckResult struct {
	Unit  string    `json:"unit"`
	OK    bool      `json:"ok"`
	Error *CLIError `json:"error,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Bind and type-check sources without optimizing",
		Long: `Parse and bind each source, reporting the first error per unit.

With no arguments the sources configured in tempo.cue are checked.

Exit codes:
  0 - All units bound
  1 - One or more units failed
  2 - Command error (missing files, invalid config)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := opts.logger()

	units, err := loadUnits(args, opts)
	if err != nil {
		return err
	}

	results := make([]CheckResult, 0, len(units))
	failed := 0
	for _, u := range units {
		log.Debug("checking", "unit", u.Name)
		res := CheckResult{Unit: u.Name, OK: true}
		if _, err := driver.Bind(u); err != nil {
			res.OK = false
			res.Error = diagnostic(err)
			failed++
		}
		results = append(results, res)
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: results}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%d unit(s) failed", failed)}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		for _, res := range results {
			if res.OK {
				fmt.Fprintf(w, "%s %s: ok\n", markOK, res.Unit)
			} else {
				fmt.Fprintf(w, "%s %s\n", markFail, res.Error.Message)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed", failed))
	}
	return nil
}
