package grade

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sikap/core"
)

var (
	gradeCatTag  = "gradecat"
	gradeCatText = "invalid assessment category"
)

func init() {
	_ = core.Validate.RegisterValidation(gradeCatTag, gradeCatValidation)
	core.RegisterCustomTranslation(gradeCatTag, gradeCatText)
}

// gradeCatValidation checks that a provided category is a known assessment kind.
func gradeCatValidation(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).Valid()
}
