package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"speechcorpus/internal/config"
	"speechcorpus/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Scope selects which checks RunAll performs.
type Scope int

const (
	// ScopeBuild covers segmentation and export.
	ScopeBuild Scope = iota
	// ScopeFetch adds the download and transcode tools.
	ScopeFetch
	// ScopeAll runs every check; the doctor command uses it.
	ScopeAll
)

// RunAll executes the checks applicable to scope. The context bounds the
// whole run; checks are skipped once it is done.
func RunAll(ctx context.Context, cfg *config.Config, scope Scope) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	add := func(r Result) {
		if ctx.Err() != nil {
			return
		}
		results = append(results, r)
	}

	add(CheckReadable("Alignment directory", cfg.Paths.AlignmentDir))
	if strings.TrimSpace(cfg.Corpus.Manifest) != "" {
		add(CheckReadable("Manifest", cfg.Corpus.Manifest))
	}
	add(CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	add(CheckFreeSpace("Output free space", cfg.Paths.OutputDir, config.MinFreeOutputBytes))

	if scope >= ScopeFetch {
		add(CheckDirectoryAccess("Media directory", cfg.Paths.MediaDir))
	}
	for _, r := range CheckTools(cfg) {
		if wantsTool(scope, r.Name, cfg) {
			add(r)
		}
	}
	return results
}

func wantsTool(scope Scope, name string, cfg *config.Config) bool {
	switch scope {
	case ScopeAll:
		return true
	case ScopeFetch:
		return name != "Phonetisaurus"
	default:
		return name == "Phonetisaurus" && cfg.Lexicon.Enabled
	}
}

// FirstFailure returns a configuration error describing the first failed
// check, or nil when every check passed.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if r.Passed {
			continue
		}
		return services.Wrap(services.ErrConfiguration, "preflight", r.Name, fmt.Sprintf("%s check failed", r.Name), errors.New(r.Detail))
	}
	return nil
}
