package inference

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"notesapi/config"
	"notesapi/log"
)

// Summarizer produces a short summary of a note body.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Ready() bool
	Warm(ctx context.Context) error
}

// Classifier scores how positive a note body is, in [0, 1].
type Classifier interface {
	Classify(ctx context.Context, text string) (float64, error)
	Ready() bool
	Warm(ctx context.Context) error
}

type Warmer interface {
	Warm(ctx context.Context) error
}

// NewSummarizer creates a summarizer for the configured provider
// Supported providers: "huggingface", "ollama"
func NewSummarizer(cfg config.InferenceConfig) (Summarizer, error) {
	switch cfg.SummaryProvider {
	case config.ProviderHuggingFace:
		return NewHFSummarizer(NewHFClient(cfg.HuggingFaceURL, cfg.HuggingFaceToken, cfg.Timeout), cfg.SummaryModel, cfg.SummaryMaxChars), nil
	case config.ProviderOllama:
		return NewOllamaSummarizer(cfg.OllamaURL, cfg.SummaryModel, cfg.SummaryMaxChars, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported summary provider: %s (supported: huggingface, ollama)", cfg.SummaryProvider)
	}
}

// NewClassifier always uses the Hugging Face star classifier.
func NewClassifier(cfg config.InferenceConfig) Classifier {
	return NewHFClassifier(NewHFClient(cfg.HuggingFaceURL, cfg.HuggingFaceToken, cfg.Timeout), cfg.SentimentModel)
}

// Warm loads every model concurrently. A model whose load fails is
// retried with capped exponential backoff until it loads or ctx is done,
// so readiness recovers after a provider outage at boot. Warm returns
// once every model is ready or ctx is done.
func Warm(ctx context.Context, models ...Warmer) {
	warm(ctx, time.Second, time.Minute, models...)
}

func warm(ctx context.Context, initial, maxDelay time.Duration, models ...Warmer) {
	var wg sync.WaitGroup
	for _, m := range models {
		wg.Add(1)
		go func() {
			defer wg.Done()
			warmUntilReady(ctx, m, initial, maxDelay)
		}()
	}
	wg.Wait()
}

func warmUntilReady(ctx context.Context, m Warmer, delay, maxDelay time.Duration) {
	logger := log.Logger()
	for attempt := 1; ; attempt++ {
		err := m.Warm(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		logger.Warningf(nil, "model warmup attempt %d failed, retrying in %s: %v", attempt, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = min(delay*2, maxDelay)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

// truncateRunes cuts s to at most max runes.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == max {
			return s[:pos]
		}
		i++
	}
	return s
}
