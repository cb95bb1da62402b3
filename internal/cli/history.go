package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Cache string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded compilations",
		Long: `List compilations recorded in the cache database, newest first.

Example:
  tempo history --cache .tempo/cache.db --limit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cache, "cache", "", "path to SQLite compilation cache")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum rows to show (0 for all)")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	path := opts.Config.Cache
	if cmd.Flags().Changed("cache") {
		path = opts.Cache
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no cache database: use --cache or set cache in tempo.cue")
	}
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("cache database not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "cache database not found", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open cache", err)
	}
	defer st.Close()

	rows, err := st.List(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	if formatter.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: rows})
	}

	if len(rows) == 0 {
		fmt.Fprintln(formatter.Writer, "No compilations recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tUNIT\tOPT\tRESULT\tIR")
	for _, c := range rows {
		result := "ok"
		if c.Failed() {
			result = c.ErrorKind + " " + c.ErrorCode
		}
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%s\n", c.Seq, c.Unit, c.Optimized, result, shortHash(c.IRHash))
	}
	return tw.Flush()
}
