package attendance

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sikap/core"
)

var (
	attStatusTag  = "attstatus"
	attStatusText = "invalid attendance status"
)

func init() {
	_ = core.Validate.RegisterValidation(attStatusTag, attStatusValidation)
	core.RegisterCustomTranslation(attStatusTag, attStatusText)
}

// attStatusValidation checks that a provided status is one of H, S, I, A.
func attStatusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
