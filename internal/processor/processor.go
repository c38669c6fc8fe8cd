package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"time"

	"github.com/fatih/color"

	"codeberg.org/snonux/sheettrans/internal/backend"
	"codeberg.org/snonux/sheettrans/internal/batch"
	"codeberg.org/snonux/sheettrans/internal/cache"
	"codeberg.org/snonux/sheettrans/internal/cli"
	"codeberg.org/snonux/sheettrans/internal/dispatch"
	"codeberg.org/snonux/sheettrans/internal/extract"
	"codeberg.org/snonux/sheettrans/internal/locale"
	"codeberg.org/snonux/sheettrans/internal/report"
	"codeberg.org/snonux/sheettrans/internal/shield"
	"codeberg.org/snonux/sheettrans/internal/xlsx"
)

// ErrAllTargetsFailed is returned when every target language with work
// ended without a single translated unit. The outputs are written anyway.
var ErrAllTargetsFailed = errors.New("all targets failed")

var yellow = color.New(color.Bold, color.FgYellow).SprintFunc()

// Processor handles the main workbook processing logic
type Processor struct {
	flags      *cli.Flags
	translator backend.Translator
	shield     *shield.Shield
	exclude    []*regexp.Regexp
	cache      *cache.Cache
	dispatcher *dispatch.Dispatcher
	renderer   *report.Renderer

	out    io.Writer
	errOut io.Writer
}

// NewProcessor creates a processor with the backend and cache selected by
// flags
func NewProcessor(ctx context.Context, flags *cli.Flags) (*Processor, error) {
	tr, err := backend.New(ctx, backend.Config{
		Provider: flags.Provider,
		Model:    flags.Model,
		APIKey:   cli.GetAPIKey(flags.Provider),
		BaseURL:  flags.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	var store cache.Store
	if !flags.NoCache {
		store, err = cache.Open(ctx, flags.CachePath)
		if err != nil {
			// A broken cache never stops a run
			warn(os.Stderr, "cache disabled: %v", err)
		}
	}

	breaker := backend.NewBreaker(flags.Provider, tr, backend.BreakerSettings{
		Logf: func(format string, args ...any) { warn(os.Stderr, format, args...) },
	})

	p, err := New(flags, breaker, store)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	// Load failures are reported by the cache itself
	_ = p.cache.Load(ctx)

	return p, nil
}

// New creates a processor around an existing translator. A nil store keeps
// the cache in memory for the lifetime of the processor.
func New(flags *cli.Flags, tr backend.Translator, store cache.Store) (*Processor, error) {
	sh, err := shield.New(flags.ShieldClasses...)
	if err != nil {
		return nil, err
	}

	exclude := append([]*regexp.Regexp(nil), extract.DefaultExclusions...)
	for _, pattern := range flags.Exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		exclude = append(exclude, re)
	}

	renderer, err := report.NewRenderer(flags.Lang)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		flags:      flags,
		translator: tr,
		shield:     sh,
		exclude:    exclude,
		renderer:   renderer,
		out:        os.Stdout,
		errOut:     os.Stderr,
	}
	p.cache = cache.New(store, p.logf)

	cfg := dispatch.DefaultConfig()
	cfg.Concurrency = flags.Concurrency
	cfg.Rate = flags.Rate
	cfg.Burst = flags.Burst
	cfg.MaxAttempts = flags.MaxAttempts
	cfg.CallTimeout = flags.Timeout
	cfg.OnProgress = p.progress
	cfg.Logf = p.logf
	p.dispatcher = dispatch.New(tr, sh, p.cache, cfg)

	return p, nil
}

// Close flushes and closes the translation cache
func (p *Processor) Close() error {
	return p.cache.Close()
}

func (p *Processor) logf(format string, args ...any) {
	warn(p.errOut, format, args...)
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("Warning:"), fmt.Sprintf(format, args...))
}

func (p *Processor) progress(pr dispatch.Progress) {
	fmt.Fprintf(p.out, "  [%d/%d] %s %q: %s\n",
		pr.Done, pr.Total, pr.Item.Unit.TargetLocale, truncate(pr.Item.Unit.Text, 40), pr.Item.State)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// ProcessFile translates one workbook. output overrides the default output
// naming; with several targets in the cells layout the locale is inserted
// before its extension. The summary is returned even when an error is.
func (p *Processor) ProcessFile(ctx context.Context, input, output string) (*report.Summary, error) {
	summary := report.New(input)

	fmt.Fprintf(p.out, "\nProcessing: %s\n", input)

	doc, err := xlsx.Read(input)
	if err != nil {
		return summary, err
	}

	source, err := locale.Resolve(p.flags.SourceLocale)
	if err != nil {
		return summary, fmt.Errorf("invalid source language: %w", err)
	}

	ws := extract.Extract(doc, extract.Options{
		SourceLocale: source,
		Targets:      p.flags.Targets,
		Signature:    p.shield.Signature(),
		Layout:       extract.Layout(p.flags.Layout),
		Sheets:       p.flags.Sheets,
		Exclude:      p.exclude,
		Strip:        p.shield.Strip,
		SourceColumn: p.flags.SourceColumn,
		SkipColumns:  p.flags.SkipColumns,
		Retranslate:  p.flags.Retranslate,
	})
	for _, w := range ws.Warnings {
		summary.Warn("%s", w)
	}
	if len(ws.Targets) == 0 {
		return summary, fmt.Errorf("no target languages found for %s", input)
	}

	// Targets keep their order even when they have nothing to translate
	for _, target := range ws.Targets {
		summary.Target(target)
	}

	resolved := make(map[string]string, len(ws.Units))
	var misses []*extract.Unit
	for _, u := range ws.Units {
		ts := summary.Target(u.TargetLocale)
		ts.Units++
		ts.Sites += len(u.Sites)
		if text, ok := p.cache.Get(cacheKey(u)); ok {
			resolved[u.Key()] = text
			ts.Cached++
			continue
		}
		misses = append(misses, u)
	}

	fmt.Fprintf(p.out, "  %d texts at %d cells, %d from cache\n",
		len(ws.Units), ws.SiteCount(), len(ws.Units)-len(misses))

	if len(misses) > 0 {
		result := p.dispatcher.Run(ctx, misses)
		summary.BackendCalls += result.Calls
		maps.Copy(resolved, result.Resolved())
		record(summary, result)
	}

	if err := p.writeOutputs(doc, ws, resolved, input, output, summary); err != nil {
		return summary, err
	}

	summary.Finish()

	summaryPath := p.summaryPath(input)
	if err := summary.Write(summaryPath); err != nil {
		return summary, err
	}

	fmt.Fprint(p.out, p.renderer.Render(summary))
	fmt.Fprintf(p.out, "Summary written to: %s\n", summaryPath)

	if summary.AllTargetsFailed() {
		return summary, fmt.Errorf("%s: %w", input, ErrAllTargetsFailed)
	}
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("%s: interrupted: %w", input, err)
	}

	return summary, nil
}

func cacheKey(u *extract.Unit) cache.Key {
	return cache.Key{
		SourceLocale: u.SourceLocale,
		TargetLocale: u.TargetLocale,
		Signature:    u.Signature,
		Text:         u.Text,
	}
}

// record adds the dispatch outcome to the summary of each target
func record(summary *report.Summary, result *dispatch.Result) {
	for _, item := range result.Items {
		ts := summary.Target(item.Unit.TargetLocale)
		if item.Unprotected {
			ts.Unprotected++
		}
		if item.State == dispatch.StateSucceeded {
			ts.Translated++
		}
	}

	// The sites of unresolved items keep their original content
	for _, item := range result.Unresolved() {
		ts := summary.Target(item.Unit.TargetLocale)
		if item.State == dispatch.StateCancelled {
			ts.Cancelled++
		} else {
			ts.Failed++
		}
		ts.Fallback++

		failure := report.Failure{
			Text:     item.Unit.Text,
			Target:   item.Unit.TargetLocale,
			State:    item.State.String(),
			Attempts: item.Attempts,
		}
		if item.LastErr != nil {
			failure.Error = item.LastErr.Error()
		}
		for _, site := range item.Unit.Sites {
			failure.Sites = append(failure.Sites, site.SheetName+"!"+xlsx.CellName(site.Row, site.Col))
		}
		ts.Failures = append(ts.Failures, failure)
	}
}

// ProcessBatch translates the workbooks listed in the batch file
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	processedCount := 0
	errorCount := 0
	calls := 0
	start := time.Now()

	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		fmt.Fprintf(p.out, "\nWorkbook %d/%d\n", i+1, len(entries))
		summary, err := p.ProcessFile(ctx, entry.Input, entry.Output)
		if summary != nil {
			calls += summary.BackendCalls
		}
		if err != nil {
			fmt.Fprintf(p.errOut, "Error processing '%s': %v\n", entry.Input, err)
			errorCount++
			// Continue with next workbook
			continue
		}
		processedCount++
	}

	// Print summary
	fmt.Fprintf(p.out, "\n=== Batch Processing Summary ===\n")
	fmt.Fprintf(p.out, "Total workbooks: %d\n", len(entries))
	fmt.Fprintf(p.out, "Processed: %d\n", processedCount)
	fmt.Fprintf(p.out, "Backend calls: %d\n", calls)
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	if skipped := len(entries) - processedCount - errorCount; skipped > 0 {
		fmt.Fprintf(p.out, "Skipped (interrupted): %d\n", skipped)
	}
	fmt.Fprintf(p.out, "Duration: %s\n", time.Since(start).Round(100*time.Millisecond))
	fmt.Fprintf(p.out, "================================\n")

	if errorCount > 0 {
		return fmt.Errorf("%d of %d workbooks failed", errorCount, len(entries))
	}
	return ctx.Err()
}
