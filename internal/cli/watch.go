package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/driver"
)

// watchDebounce is how long a file must be quiet before it is recompiled.
const watchDebounce = 50 * time.Millisecond

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	NoOptimize bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Recompile sources as they change",
		Long: `Compile every .tempo file under dir, then recompile each file when it is
created or written, until interrupted.

With --format json each result is printed as one JSON object per line.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoOptimize, "no-optimize", false, "skip the optimizer")
	return cmd
}

func runWatch(opts *WatchOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := opts.logger()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("not a directory: %s", dir))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, dir); err != nil {
		return WrapExitError(ExitCommandError, "failed to watch directory", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	pipeline := driver.New(driver.Options{
		Optimize: opts.Config.Optimize && !opts.NoOptimize,
		Logger:   log,
	})
	report := func(paths []string) {
		for _, path := range paths {
			us := compileFile(ctx, pipeline, path)
			if ctx.Err() != nil {
				return
			}
			printWatchResult(formatter, us)
		}
	}

	initial, err := walkSources(dir, "*"+SourceExt)
	if err != nil {
		return WrapExitError(ExitCommandError, "scanning sources", err)
	}
	report(initial)
	log.Info("watching", "dir", dir, "units", len(initial))

	if err := watchLoop(ctx, watcher, log, report); err != nil {
		return WrapExitError(ExitFailure, "watch failed", err)
	}
	log.Info("watch stopped")
	return nil
}

func addWatchDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

// watchLoop batches create and write events on .tempo files and hands each
// batch to report once the files have been quiet for watchDebounce. It
// returns nil when ctx is cancelled.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, log *slog.Logger, report func([]string)) error {
	pending := map[string]bool{}
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addWatchDirs(w, ev.Name); err != nil {
						log.Warn("cannot watch directory", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if filepath.Ext(ev.Name) != SourceExt {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(watchDebounce)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			report(paths)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func compileFile(ctx context.Context, pipeline *driver.Pipeline, path string) UnitSummary {
	us := UnitSummary{Unit: path}
	units, err := readUnits([]string{path})
	if err != nil {
		us.Error = &CLIError{Code: ErrCodeNotFound, Message: err.Error()}
		return us
	}
	res, err := pipeline.Compile(ctx, units[0])
	if err != nil {
		us.Error = diagnostic(err)
		return us
	}
	us.IRHash = res.IRHash
	us.Optimized = res.Optimized
	us.Stats = res.Stats
	return us
}

func printWatchResult(formatter *OutputFormatter, us UnitSummary) {
	w := formatter.Writer
	if formatter.Format == "json" {
		_ = json.NewEncoder(w).Encode(us)
		return
	}
	if us.Error != nil {
		fmt.Fprintf(w, "%s %s\n", markFail, us.Error.Message)
		return
	}
	fmt.Fprintf(w, "%s %s  ir=%s\n", markOK, us.Unit, shortHash(us.IRHash))
}
