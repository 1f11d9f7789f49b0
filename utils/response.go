package utils

import (
	"errors"
	"net/http"

	"notesapi/log"
	"notesapi/metrics"
	"notesapi/model"

	"github.com/gin-gonic/gin"
)

const (
	CodeBadCursor         = "bad_cursor"
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeNotFound          = "not_found"
	CodeIntegrityConflict = "integrity_conflict"
	CodeAuthDisabled      = "auth_disabled"
	CodeInternal          = "internal_error"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Empty writes a 200 with no body.
func Empty(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, &ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			TraceID: RequestID(c),
		},
	})
}

// Error responses
func BadRequest(c *gin.Context, message string) {
	Abort(c, http.StatusBadRequest, CodeBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Abort(c, http.StatusNotFound, CodeNotFound, message)
}

func Unauthorized(c *gin.Context, message string) {
	Abort(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func InternalError(c *gin.Context) {
	Abort(c, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// Fail maps err onto the envelope. Anything unrecognized is logged with
// the trace id and reported as internal_error.
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrBadCursor):
		Abort(c, http.StatusBadRequest, CodeBadCursor, "invalid cursor")
	case errors.Is(err, model.ErrBadRequest):
		BadRequest(c, err.Error())
	case errors.Is(err, model.ErrNoteNotFound):
		NotFound(c, "note not found")
	case errors.Is(err, model.ErrUnauthorized):
		Unauthorized(c, err.Error())
	case errors.Is(err, model.ErrIntegrity):
		Abort(c, http.StatusConflict, CodeIntegrityConflict, "write violates a constraint")
	case errors.Is(err, model.ErrAuthDisabled):
		Abort(c, http.StatusServiceUnavailable, CodeAuthDisabled, "authentication is not configured")
	default:
		metrics.TrackError("internal")
		log.Logger().Errorf(log.Labels{"trace_id": RequestID(c), "path": c.FullPath()}, "request failed: %v", err)
		InternalError(c)
	}
}
