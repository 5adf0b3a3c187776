package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"speechcorpus/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configured directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(commandCtx(cmd), cfg, preflight.ScopeAll)

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			var lines []string
			lines = append(lines, renderSectionHeader("Paths", colorize)...)
			for _, r := range results {
				if isToolCheck(r) {
					continue
				}
				lines = append(lines, renderStatusLine(r.Name, resultKind(r), r.Detail, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Tools", colorize)...)
			for _, r := range results {
				if isToolCheck(r) {
					lines = append(lines, renderStatusLine(r.Name, resultKind(r), r.Detail, colorize))
				}
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return preflight.FirstFailure(results)
		},
	}
}

func isToolCheck(r preflight.Result) bool {
	switch r.Name {
	case "FFmpeg", "FFprobe", "yt-dlp", "Phonetisaurus":
		return true
	}
	return false
}

func resultKind(r preflight.Result) statusKind {
	switch {
	case !r.Passed:
		return statusError
	case r.Optional && strings.HasSuffix(r.Detail, "(optional)"):
		return statusWarn
	default:
		return statusOK
	}
}
