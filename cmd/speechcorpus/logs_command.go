package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"speechcorpus/internal/logging"
	"speechcorpus/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string
	var recordingID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent entries of the speechcorpus log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			opts := logs.TailOptions{Offset: -1, Limit: lines}
			if runID != "" {
				opts.Fields = append(opts.Fields, logs.Field{Key: logging.FieldRunID, Value: runID})
			}
			if recordingID != "" {
				opts.Fields = append(opts.Fields, logs.Field{Key: logging.FieldRecordingID, Value: recordingID})
			}

			runCtx := commandCtx(cmd)
			out := cmd.OutOrStdout()
			for {
				result, err := logs.Tail(runCtx, path, opts)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				if !follow {
					return nil
				}
				opts.Offset = result.Offset
				opts.Follow = true
				opts.Wait = time.Minute
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines of this build run id")
	cmd.Flags().StringVar(&recordingID, "recording", "", "Only show lines about this recording")
	return cmd
}
