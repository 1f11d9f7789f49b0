package handler

import (
	"errors"
	"io"
	"net/http"

	"notesapi/dto"
	"notesapi/middleware"
	"notesapi/usecase"
	"notesapi/utils"

	"github.com/gin-gonic/gin"
)

func ListNotesHandler(c *gin.Context, notesService *usecase.NotesService) {
	query, err := usecase.ParsePageRequest(c.Query("limit"), c.Query("order"), c.Query("cursor"))
	if err != nil {
		utils.Fail(c, err)
		return
	}

	page, err := notesService.ListNotes(c.Request.Context(), query)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, dto.NewNotesPageResponse(page.Items, page.NextCursor, page.HasMore))
}

func GetNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	note, err := notesService.GetNote(c.Request.Context(), c.GetInt64(middleware.NoteIDKey))
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, dto.ToNoteResponse(note))
}

func CreateNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		utils.Unauthorized(c, "missing identity")
		return
	}

	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, bindError(err))
		return
	}

	note, err := notesService.CreateNote(c.Request.Context(), identity, req.Title, req.Content)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Created(c, dto.ToNoteResponse(note))
}

func UpdateNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	var req dto.UpdateNoteRequest
	// An empty body leaves the note unchanged.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, bindError(err))
		return
	}

	note, err := notesService.UpdateNote(c.Request.Context(), c.GetInt64(middleware.NoteIDKey), req.Title.Resolve(), req.Content.Resolve())
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, dto.ToNoteResponse(note))
}

func DeleteNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	if err := notesService.DeleteNote(c.Request.Context(), c.GetInt64(middleware.NoteIDKey)); err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Empty(c)
}

func bindError(err error) string {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return "request body too large"
	}
	return "invalid request body: " + err.Error()
}
