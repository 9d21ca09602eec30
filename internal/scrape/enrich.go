package scrape

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/logger"
	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

// DefaultDelay is the pause between successive export-code fetches.
const DefaultDelay = time.Second

// Analyzer decodes an export code. *pob.Analyzer satisfies it.
type Analyzer interface {
	Analyze(code string) (*pob.Analysis, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Enricher attaches export-code detail to builds, one fetch at a time.
type Enricher struct {
	Codes    CodeSource
	Analyzer Analyzer
	Delay    time.Duration  // zero or less uses DefaultDelay
	Sleep    SleepFunc      // nil uses a context-aware timer
	Log      *logger.Logger // nil is silent
	Progress io.Writer      // per-build progress lines; nil is silent
}

// Failure is one build that could not be enriched.
type Failure struct {
	CharacterName string `json:"characterName"`
	Rank          int    `json:"rank"`
	Stage         string `json:"stage"` // "fetch" or "decode"
	Err           error  `json:"-"`
	Message       string `json:"error"`
}

// EnrichResult summarizes an Enrich run.
type EnrichResult struct {
	Attempted int               `json:"attempted"`
	Enriched  int               `json:"enriched"`
	Failures  []Failure         `json:"failures"`
	Codes     map[string]string `json:"-"` // character name -> export code
	Duration  time.Duration     `json:"duration"`
}

// Enrich fetches and decodes the export code of every build in place. A
// failing build is logged and skipped. Cancellation stops the run and returns
// the partial result with ctx's error.
func (e *Enricher) Enrich(ctx context.Context, builds []ladder.Build) (*EnrichResult, error) {
	sleep := e.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	log := e.Log
	if log == nil {
		log = logger.Nop()
	}
	delay := e.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	result := &EnrichResult{Codes: make(map[string]string)}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	e.progress("Exporting codes for %d builds, %s between fetches\n", len(builds), delay)

	for i := range builds {
		b := &builds[i]
		if i > 0 {
			if err := sleep(ctx, delay); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Attempted++
		e.progress("[%d/%d] %s... ", i+1, len(builds), b.CharacterName)

		code, err := e.Codes.ExportCode(ctx, b)
		if err != nil {
			if ctx.Err() != nil {
				e.progress("cancelled\n")
				return result, ctx.Err()
			}
			result.fail(b, "fetch", err)
			log.Warn("export code fetch failed", "character", b.CharacterName, "rank", b.Rank, "error", err)
			e.progress("failed: %v\n", err)
			continue
		}
		result.Codes[b.CharacterName] = code

		analysis, err := e.Analyzer.Analyze(code)
		if err != nil {
			result.fail(b, "decode", err)
			log.Warn("export code decode failed", "character", b.CharacterName, "rank", b.Rank, "error", err)
			e.progress("undecodable: %v\n", err)
			continue
		}

		b.Enrich(analysis)
		result.Enriched++
		log.Debug("build enriched", "character", b.CharacterName, "groups", len(analysis.SkillGroups))
		e.progress("ok (%d chars)\n", len(code))
	}

	e.progress("Enriched %d/%d builds in %s\n", result.Enriched, len(builds), FormatDurationShort(time.Since(start)))
	return result, nil
}

func (r *EnrichResult) fail(b *ladder.Build, stage string, err error) {
	r.Failures = append(r.Failures, Failure{
		CharacterName: b.CharacterName,
		Rank:          b.Rank,
		Stage:         stage,
		Err:           err,
		Message:       err.Error(),
	})
}

func (e *Enricher) progress(format string, args ...interface{}) {
	if e.Progress != nil {
		fmt.Fprintf(e.Progress, format, args...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FormatDurationShort renders d as "0.4s", "12.3s", "4m5s" or "1h2m".
func FormatDurationShort(d time.Duration) string {
	ms := d.Milliseconds()
	switch {
	case ms < 60000:
		return fmt.Sprintf("%d.%ds", ms/1000, (ms%1000)/100)
	case ms < 3600000:
		return fmt.Sprintf("%dm%ds", ms/60000, (ms%60000)/1000)
	default:
		return fmt.Sprintf("%dh%dm", ms/3600000, (ms%3600000)/60000)
	}
}
