// Package analyzer turns a raw call transcript into a summary and a
// sentiment label via two independent model completions. Both completions
// must succeed; there is no partial result.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kresler/callsight/internal/redact"
)

const defaultMaxChars = 4000

// ErrEmptyTranscript is returned for empty or whitespace-only input,
// before any remote call is made.
var ErrEmptyTranscript = errors.New("analyzer: transcript is empty")

// ClassificationError is returned when the sentiment completion does not
// contain a recognizable label. The analysis fails rather than defaulting.
type ClassificationError struct {
	Raw string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("analyzer: unrecognizable sentiment %q", e.Raw)
}

// Completer issues a single prompt to the remote model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is a completed analysis. Transcript is the text that was actually
// analyzed: trimmed and, when over the limit, truncated.
type Result struct {
	Transcript string
	Summary    string
	Sentiment  Sentiment
	Truncated  bool
}

// Analyzer runs the summary and sentiment completions for one transcript.
type Analyzer struct {
	client   Completer
	maxChars int
}

// New creates an Analyzer. maxChars bounds the transcript length in runes;
// values <= 0 fall back to the default (4000).
func New(client Completer, maxChars int) *Analyzer {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Analyzer{client: client, maxChars: maxChars}
}

// Analyze validates, truncates, and redacts the transcript, then issues the
// summary and sentiment completions concurrently. Either failure fails the
// whole operation.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (Result, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Result{}, ErrEmptyTranscript
	}

	truncated := false
	if runes := []rune(transcript); len(runes) > a.maxChars {
		transcript = strings.TrimSpace(string(runes[:a.maxChars]))
		truncated = true
	}

	// Only the redacted copy leaves the process.
	redacted := redact.PII(transcript)

	var summary, rawSentiment string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.client.Complete(gctx, summaryPrompt(redacted))
		if err != nil {
			return fmt.Errorf("summarizing: %w", err)
		}
		summary = s
		return nil
	})
	g.Go(func() error {
		s, err := a.client.Complete(gctx, sentimentPrompt(redacted))
		if err != nil {
			return fmt.Errorf("classifying sentiment: %w", err)
		}
		rawSentiment = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if strings.TrimSpace(summary) == "" {
		return Result{}, fmt.Errorf("analyzer: model returned an empty summary")
	}

	sentiment, ok := ParseSentiment(rawSentiment)
	if !ok {
		return Result{}, &ClassificationError{Raw: rawSentiment}
	}

	return Result{
		Transcript: transcript,
		Summary:    summary,
		Sentiment:  sentiment,
		Truncated:  truncated,
	}, nil
}
