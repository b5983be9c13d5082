package apperror

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("Unauthorized")
)

// Ключи ограничений, которые видит клиент.
const (
	IsEmail               = "isEmail"
	IsEmailUnique         = "isEmailUnique"
	IsUsernameUnique      = "isUsernameUnique"
	IsCommunityNameUnique = "isCommunityNameUnique"
	MinLength             = "minLength"
	MaxLength             = "maxLength"
	Matches               = "matches"
	IsURL                 = "isUrl"
)

// FieldError - ошибка валидации одного поля ввода.
// Constraints: имя нарушенного ограничения -> сообщение для формы.
type FieldError struct {
	Field       string            `json:"field"`
	Constraints map[string]string `json:"constraints"`
}

// ValidationError - набор ошибок полей, возвращаемый как единое целое.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "Argument Validation Error: " + strings.Join(names, ", ")
}

// Add добавляет ограничение к полю, создавая FieldError при необходимости.
func (e *ValidationError) Add(field, constraint, message string) {
	for i := range e.Fields {
		if e.Fields[i].Field == field {
			e.Fields[i].Constraints[constraint] = message
			return
		}
	}
	e.Fields = append(e.Fields, FieldError{
		Field:       field,
		Constraints: map[string]string{constraint: message},
	})
}

// Has сообщает, есть ли у поля хотя бы одна ошибка.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil возвращает nil, если ошибок нет. Удобно для `return verr.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidation достает ValidationError из цепочки ошибок.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
