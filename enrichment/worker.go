package enrichment

import (
	"context"
	"strconv"
	"time"

	"notesapi/log"
	"notesapi/metrics"
)

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) (float64, error)
}

// Patcher is the slice of the note store the worker writes through.
type Patcher interface {
	PatchEnrichment(ctx context.Context, id int64, summary *string, sentiment *float64) (int64, error)
}

// Worker enriches a single note per task. It never retries: a failed field
// stays null for the life of the note.
type Worker struct {
	summarizer Summarizer
	classifier Classifier
	store      Patcher
}

func NewWorker(summarizer Summarizer, classifier Classifier, store Patcher) *Worker {
	return &Worker{
		summarizer: summarizer,
		classifier: classifier,
		store:      store,
	}
}

// Process runs both inference calls and patches the note exactly once.
func (w *Worker) Process(ctx context.Context, task Task) {
	logger := log.Logger()
	labels := log.Labels{"note_id": strconv.FormatInt(task.NoteID, 10)}
	start := time.Now()
	defer func() {
		metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())
	}()

	var summary *string
	if s, err := w.summarizer.Summarize(ctx, task.Content); err != nil {
		logger.Warningf(labels, "summarize failed: %v", err)
		metrics.TrackEnrichmentResult("summary", false)
	} else {
		summary = &s
		metrics.TrackEnrichmentResult("summary", true)
	}

	var sentiment *float64
	if score, err := w.classifier.Classify(ctx, task.Content); err != nil {
		logger.Warningf(labels, "classify failed: %v", err)
		metrics.TrackEnrichmentResult("sentiment", false)
	} else {
		sentiment = &score
		metrics.TrackEnrichmentResult("sentiment", true)
	}

	affected, err := w.store.PatchEnrichment(ctx, task.NoteID, summary, sentiment)
	if err != nil {
		logger.Errorf(labels, "patch enrichment failed: %v", err)
		metrics.TrackEnrichmentPatch("error")
		return
	}
	if affected == 0 {
		logger.Infof(labels, "note deleted before enrichment")
		metrics.TrackEnrichmentPatch("skipped")
		return
	}

	metrics.TrackEnrichmentPatch("applied")
	logger.Debugf(labels, "note enriched in %s", time.Since(start))
}
