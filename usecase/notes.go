package usecase

import (
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"

	"notesapi/enrichment"
	"notesapi/log"
	"notesapi/metrics"
	"notesapi/model"
	"notesapi/repository"
)

// Enqueuer is the part of the enrichment dispatcher the service needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, task enrichment.Task) error
}

type NotesService struct {
	Store    repository.NoteStore
	Enricher Enqueuer
}

func NewNotesService(store repository.NoteStore, enricher Enqueuer) *NotesService {
	return &NotesService{Store: store, Enricher: enricher}
}

// Page is one slice of the public listing.
type Page struct {
	Items      []*model.Note
	NextCursor *string
	HasMore    bool
}

// CreateNote stores the note and schedules enrichment. A full queue leaves
// the note pending but does not fail the call.
func (s *NotesService) CreateNote(ctx context.Context, author model.Identity, title, content string) (*model.Note, error) {
	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return nil, fmt.Errorf("%w: title exceeds %d characters", model.ErrBadRequest, model.MaxTitleLength)
	}

	note, err := s.Store.CreateNote(ctx, author.ID, truncateName(author.DisplayName), title, content)
	if err != nil {
		return nil, err
	}
	metrics.TrackNoteOperation("create")

	if s.Enricher != nil {
		task := enrichment.Task{NoteID: note.ID, Content: note.Content}
		if err := s.Enricher.Enqueue(context.WithoutCancel(ctx), task); err != nil {
			log.Logger().Warningf(log.Labels{"note_id": strconv.FormatInt(note.ID, 10)}, "enrichment not scheduled: %v", err)
		}
	}

	return note, nil
}

func (s *NotesService) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	note, err := s.Store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.TrackNoteOperation("get")
	return note, nil
}

// UpdateNote changes only the fields that are non-nil. Author and
// created_at never change.
func (s *NotesService) UpdateNote(ctx context.Context, id int64, title, content *string) (*model.Note, error) {
	if title != nil && utf8.RuneCountInString(*title) > model.MaxTitleLength {
		return nil, fmt.Errorf("%w: title exceeds %d characters", model.ErrBadRequest, model.MaxTitleLength)
	}

	note, err := s.Store.UpdateContent(ctx, id, title, content)
	if err != nil {
		return nil, err
	}
	metrics.TrackNoteOperation("update")
	return note, nil
}

func (s *NotesService) DeleteNote(ctx context.Context, id int64) error {
	if err := s.Store.DeleteNote(ctx, id); err != nil {
		return err
	}
	metrics.TrackNoteOperation("delete")
	return nil
}

// ListNotes fetches one extra row to learn whether another page exists.
func (s *NotesService) ListNotes(ctx context.Context, q model.PageQuery) (*Page, error) {
	want := q.Limit
	q.Limit = want + 1

	notes, err := s.Store.ListEnriched(ctx, q)
	if err != nil {
		return nil, err
	}
	metrics.TrackNoteOperation("list")

	page := &Page{Items: notes}
	if len(notes) > want {
		page.Items = notes[:want]
		page.HasMore = true
	}
	if page.HasMore && len(page.Items) > 0 {
		next := EncodeCursor(page.Items[len(page.Items)-1])
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []*model.Note{}
	}
	return page, nil
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= model.MaxAuthorNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:model.MaxAuthorNameLength])
}
