package middleware

import (
	"strconv"

	"notesapi/utils"

	"github.com/gin-gonic/gin"
)

const NoteIDKey = "note_id"

// ValidateNoteID parses the :id path parameter. Ids that are not positive
// integers cannot name a note, so they are reported as not found.
func ValidateNoteID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id < 1 {
			utils.NotFound(c, "note not found")
			return
		}
		c.Set(NoteIDKey, id)
		c.Next()
	}
}
