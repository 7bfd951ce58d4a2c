package translate

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"doc-translator/internal/types"
)

// previewLimit caps how much chunk text appears in activity log lines.
const previewLimit = 30

// ProgressFunc reports batch completion. It is called exactly once per chunk
// with a strictly increasing completed count.
type ProgressFunc func(completed, total int)

// LogFunc receives human-readable activity entries as the batch runs.
type LogFunc func(entry types.LogEntry)

// BatchOptions tunes a batch run.
type BatchOptions struct {
	// FileLabel tags log entries with the file the batch belongs to.
	FileLabel string
	// Workers is the number of chunks translated concurrently. Zero or one
	// means strictly sequential, which is the safe default against unknown
	// endpoint rate limits.
	Workers int
	// OnPartial, when non-nil, receives the accumulated streamed translation
	// of a chunk as fragments arrive.
	OnPartial func(chunkIndex int, partial string)
}

// TranslateBatch translates chunks in order and returns one result per input
// chunk, positionally aligned. A chunk whose translation fails falls back to
// its original text, so the batch always completes with a full result set.
func TranslateBatch(ctx context.Context, tr Translator, chunks []string, opts BatchOptions, onProgress ProgressFunc, onLog LogFunc) []string {
	total := len(chunks)
	results := make([]string, total)
	if total == 0 {
		return results
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	if workers == 1 {
		completed := 0
		for i, chunk := range chunks {
			results[i] = translateOne(ctx, tr, i, total, chunk, opts, onLog)
			completed++
			if onProgress != nil {
				onProgress(completed, total)
			}
		}
		return results
	}

	// Concurrent mode: a fixed pool consumes indices in order, results land
	// by position, and the progress counter is serialized so callers always
	// observe an increasing count.
	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = translateOne(ctx, tr, i, total, chunks[i], opts, onLog)

				mu.Lock()
				completed++
				if onProgress != nil {
					onProgress(completed, total)
				}
				mu.Unlock()
			}
		}()
	}

	for i := range chunks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func translateOne(ctx context.Context, tr Translator, index, total int, chunk string, opts BatchOptions, onLog LogFunc) string {
	emit(onLog, types.LogEntry{
		Time:      time.Now(),
		FileLabel: opts.FileLabel,
		Message:   fmt.Sprintf("translating chunk %d/%d: %s", index+1, total, preview(chunk)),
		Severity:  types.SeverityInfo,
	})

	var onDelta func(string)
	if opts.OnPartial != nil {
		onDelta = func(partial string) { opts.OnPartial(index, partial) }
	}

	start := time.Now()
	result, err := tr.Translate(ctx, chunk, onDelta)
	elapsed := time.Since(start)

	if err != nil {
		emit(onLog, types.LogEntry{
			Time:       time.Now(),
			FileLabel:  opts.FileLabel,
			Message:    fmt.Sprintf("chunk %d/%d failed, keeping original text: %v", index+1, total, err),
			Severity:   types.SeverityError,
			DurationMs: elapsed.Milliseconds(),
		})
		return chunk
	}

	emit(onLog, types.LogEntry{
		Time:       time.Now(),
		FileLabel:  opts.FileLabel,
		Message:    fmt.Sprintf("chunk %d/%d translated", index+1, total),
		Severity:   types.SeveritySuccess,
		DurationMs: elapsed.Milliseconds(),
	})
	return result
}

func emit(onLog LogFunc, entry types.LogEntry) {
	if onLog != nil {
		onLog(entry)
	}
}

// preview shortens chunk text for log lines, keeping rune boundaries intact.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLimit]) + "…"
}
