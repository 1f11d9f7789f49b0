package dto

import (
	"time"

	"notesapi/model"
)

// CreatedAtLayout is the wire form of note timestamps and cursor prefixes.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

type NoteResponse struct {
	ID        int64    `json:"id"`
	UserID    string   `json:"userId"`
	UserName  string   `json:"userName"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Summarize *string  `json:"summarize"`
	Sentiment *float64 `json:"sentiment"`
	CreatedAt *string  `json:"createdAt"`
}

type NotesPageResponse struct {
	Items      []NoteResponse `json:"items"`
	NextCursor *string        `json:"nextCursor"`
	HasMore    bool           `json:"hasMore"`
}

// Missing fields decode as "".
type CreateNoteRequest struct {
	Title   string `json:"title" binding:"max=255"`
	Content string `json:"content"`
}

// UpdateNoteRequest distinguishes an absent field from an explicit null.
type UpdateNoteRequest struct {
	Title   OptionalString `json:"title" binding:"max=255"`
	Content OptionalString `json:"content"`
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

func ToNoteResponse(note *model.Note) NoteResponse {
	response := NoteResponse{
		ID:        note.ID,
		UserID:    note.AuthorID,
		UserName:  note.AuthorName,
		Title:     note.Title,
		Content:   note.Content,
		Summarize: note.Summary,
		Sentiment: note.SentimentScore,
	}

	if !note.CreatedAt.IsZero() {
		createdAt := FormatTimestamp(note.CreatedAt)
		response.CreatedAt = &createdAt
	}

	return response
}

func ToNoteResponses(notes []*model.Note) []NoteResponse {
	responses := make([]NoteResponse, len(notes))
	for i, note := range notes {
		responses[i] = ToNoteResponse(note)
	}
	return responses
}

func NewNotesPageResponse(notes []*model.Note, nextCursor *string, hasMore bool) *NotesPageResponse {
	return &NotesPageResponse{
		Items:      ToNoteResponses(notes),
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}
}
