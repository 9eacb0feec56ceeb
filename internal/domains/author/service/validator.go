package service

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bookreview-backend/internal/domains/author/model"
)

const (
	MinQueryLength = 2
	MaxQueryLength = 100
)

// QueryValidation is the outcome of ValidateQuery
type QueryValidation struct {
	Valid           bool
	NormalizedQuery string
	Err             *model.ValidationError
}

var errNotString = validation.NewError("validation_is_string", "query must be a string")

var isString = validation.By(func(value interface{}) error {
	if _, ok := value.(string); !ok {
		return errNotString
	}
	return nil
})

// ozzo error codes mapped to API codes
var queryErrorCodes = map[string]string{
	errNotString.Code():                 model.ErrCodeInvalidType,
	validation.ErrRequired.Code():       model.ErrCodeTooShort,
	validation.ErrLengthTooShort.Code(): model.ErrCodeTooShort,
	validation.ErrLengthTooLong.Code():  model.ErrCodeTooLong,
}

var queryErrorMessages = map[string]string{
	model.ErrCodeInvalidType: "query must be a string",
	model.ErrCodeTooShort:    "query must be at least 2 characters",
	model.ErrCodeTooLong:     "query must be at most 100 characters",
}

// ValidateQuery checks that input is a string of 2..100 characters after
// trimming. Length is counted in runes. Case and inner whitespace are kept.
func ValidateQuery(input any) QueryValidation {
	if err := validation.Validate(input, isString); err != nil {
		return invalidQuery(err)
	}

	normalized := strings.TrimSpace(input.(string))

	err := validation.Validate(normalized,
		validation.Required,
		validation.RuneLength(MinQueryLength, 0),
		validation.RuneLength(0, MaxQueryLength),
	)
	if err != nil {
		return invalidQuery(err)
	}

	return QueryValidation{Valid: true, NormalizedQuery: normalized}
}

func invalidQuery(err error) QueryValidation {
	code := model.ErrCodeInvalidType

	var vErr validation.Error
	if errors.As(err, &vErr) {
		if mapped, ok := queryErrorCodes[vErr.Code()]; ok {
			code = mapped
		}
	}

	return QueryValidation{
		Err: model.NewValidationError(code, queryErrorMessages[code]),
	}
}
