package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// Validator combines struct-tag validation with the submission rules that
// depend on other fields.
type Validator struct {
	structValidator     *validator.Validate
	submissionValidator *SubmissionValidator
}

func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:     structValidator,
		submissionValidator: NewSubmissionValidator(),
	}
}

// ValidateStruct validates struct tags only.
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Submission returns the conditional-field rules for survey submissions.
func (v *Validator) Submission() *SubmissionValidator {
	return v.submissionValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("survey_email", validateEmail)
	validate.RegisterValidation("phone10", validatePhone)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateEmail accepts one "@" with a dotted domain and no whitespace.
func validateEmail(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}
