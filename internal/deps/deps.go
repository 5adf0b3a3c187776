package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"speechcorpus/internal/config"
)

// Requirement defines an external tool the corpus commands run.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// Requirements lists the tools cfg needs. yt-dlp is only needed for YouTube
// sources, and phonetisaurus only when lexicon generation is enabled.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.Transcode.FFmpegBinary, Description: "Converts fetched media to PCM WAV"},
		{Name: "FFprobe", Command: cfg.Transcode.FFprobeBinary, Description: "Verifies transcoded audio format"},
		{Name: "yt-dlp", Command: cfg.Fetch.YtDlpBinary, Description: "Downloads audio from YouTube sources", Optional: true},
	}
	reqs = append(reqs, Requirement{
		Name:        "Phonetisaurus",
		Command:     cfg.Lexicon.PhonetisaurusBinary,
		Description: "Generates pronunciations for lexicon.txt",
		Optional:    !cfg.Lexicon.Enabled,
	})
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
