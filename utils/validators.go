package utils

import (
	"sync"

	"notesapi/dto"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once

// InitValidator registers the dto custom types with gin's validator. Safe to
// call more than once.
func InitValidator() {
	validatorOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			dto.RegisterValidators(v)
		}
	})
}
