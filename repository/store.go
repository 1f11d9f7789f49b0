package repository

import (
	"context"
	"time"

	"notesapi/model"
)

// NoteStore persists notes. Implementations are safe for concurrent use.
type NoteStore interface {
	CreateNote(ctx context.Context, authorID, authorName, title, content string) (*model.Note, error)
	GetNote(ctx context.Context, id int64) (*model.Note, error)
	// UpdateContent changes only the non-nil fields.
	UpdateContent(ctx context.Context, id int64, title, content *string) (*model.Note, error)
	DeleteNote(ctx context.Context, id int64) error
	// PatchEnrichment writes both enrichment fields and returns the number of
	// rows it touched. A deleted note yields 0 and no error.
	PatchEnrichment(ctx context.Context, id int64, summary *string, sentiment *float64) (int64, error)
	// ListEnriched returns at most q.Limit notes with both enrichment fields
	// set, strictly after q.After in q.Order.
	ListEnriched(ctx context.Context, q model.PageQuery) ([]*model.Note, error)
	Ping(ctx context.Context) error
	Close() error
}

type storeOptions struct {
	now func() time.Time
}

type Option func(*storeOptions)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		o.now = now
	}
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Timestamps are kept at millisecond precision in every backend so that a
// cursor built from a returned note seeks exactly.
func (o storeOptions) timestamp() time.Time {
	return o.now().UTC().Truncate(time.Millisecond)
}
