// Package validation проверяет входные данные по тегам validate и
// переводит ошибки validator в apperror.FieldError с ключами ограничений,
// которые понимает клиент.
package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/UkralStul/postit/internal/apperror"
)

// Правила для одиночных аргументов запросов.
const (
	EmailRule         = "email"
	UsernameRule      = "min=3,max=20"
	CommunityNameRule = "min=3,max=21"
)

// Сообщения для одиночных аргументов.
const (
	EmailMessage         = "email must be an email"
	UsernameMessage      = "Username must be between 3 and 20 characters"
	CommunityNameMessage = "Name must be between 3 and 21 characters"
)

// constraintKeys: тег validator -> ключ ограничения в ответе.
var constraintKeys = map[string]string{
	"email":    apperror.IsEmail,
	"min":      apperror.MinLength,
	"max":      apperror.MaxLength,
	"maxbytes": apperror.MaxLength,
	"oneof":    apperror.Matches,
	"url":      apperror.IsURL,
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt ограничивает пароль в байтах, а не в символах
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return &Validator{v: v}
}

// Struct проверяет структуру и возвращает набор ошибок полей. Текст ошибки
// берется из тега msg_<правило>, иначе из msg. Результат
// никогда не nil: вызывающий может дополнить его проверками уникальности
// и вернуть через OrNil.
func (val *Validator) Struct(input any) (*apperror.ValidationError, error) {
	verr := &apperror.ValidationError{}

	err := val.v.Struct(input)
	if err == nil {
		return verr, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	t := reflect.TypeOf(input)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range fieldErrs {
		msg := fe.Error()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg_" + fe.Tag()); m != "" {
				msg = m
			} else if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
		}
		verr.Add(fe.Field(), constraintKey(fe.Tag()), msg)
	}
	return verr, nil
}

// Var проверяет одиночное значение, field - имя поля в ответе.
func (val *Validator) Var(field string, value any, rule, msg string) (*apperror.ValidationError, error) {
	verr := &apperror.ValidationError{}

	err := val.v.Var(value, rule)
	if err == nil {
		return verr, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}
	for _, fe := range fieldErrs {
		verr.Add(field, constraintKey(fe.Tag()), msg)
	}
	return verr, nil
}

func constraintKey(tag string) string {
	if key, ok := constraintKeys[tag]; ok {
		return key
	}
	return tag
}
