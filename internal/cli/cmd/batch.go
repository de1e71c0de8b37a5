package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelfit/internal/batch"
	"reelfit/internal/metrics"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "batch",
		Short:         "Render every video in the input folder, then archive finished sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runBatch,
	}
	bindRunFlags(cmd.Flags())
	cmd.Flags().String("input-folder", "", "Folder scanned for sources (default <data>/inputs)")
	cmd.Flags().Bool("no-archive", false, "Leave finished sources in the input folder")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while the batch runs (e.g. :9090)")
	return cmd
}

func runBatch(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	input := a.cfg.InputDir
	if v, _ := cmd.Flags().GetString("input-folder"); v != "" {
		input = v
	}

	lock, err := batch.LockInputs(input)
	if err != nil {
		if errors.Is(err, batch.ErrLocked) {
			return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("%s: %w", input, err)}
		}
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	defer func() { _ = lock.Unlock() }()

	sources, err := batch.Discover(input)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if len(sources) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No videos found in %s\n", input)
		return nil
	}
	a.log.Info("discovered sources", "input", input, "count", len(sources))

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		go func() {
			if err := metrics.Serve(cmd.Context(), addr, a.log.Logger); err != nil {
				a.log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	mode := runMode{}
	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
		mode.Archiver = &batch.Archiver{Dir: a.cfg.ArchiveDir}
	}
	return execute(cmd, sources, mode)
}
