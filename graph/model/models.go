package model

import (
	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/domain"
)

// FieldErrorConstraints - ограничения поля в виде, который ожидает форма
// клиента. Заполнены только нарушенные.
type FieldErrorConstraints struct {
	IsEmail               *string `json:"isEmail"`
	IsEmailUnique         *string `json:"isEmailUnique"`
	IsUsernameUnique      *string `json:"isUsernameUnique"`
	IsCommunityNameUnique *string `json:"isCommunityNameUnique"`
	MinLength             *string `json:"minLength"`
	MaxLength             *string `json:"maxLength"`
	Matches               *string `json:"matches"`
	IsURL                 *string `json:"isUrl"`
}

// NewFieldErrorConstraints раскладывает map ограничений по полям.
// Неизвестные ключи отбрасываются.
func NewFieldErrorConstraints(constraints map[string]string) *FieldErrorConstraints {
	c := &FieldErrorConstraints{}
	for key, msg := range constraints {
		msg := msg
		switch key {
		case apperror.IsEmail:
			c.IsEmail = &msg
		case apperror.IsEmailUnique:
			c.IsEmailUnique = &msg
		case apperror.IsUsernameUnique:
			c.IsUsernameUnique = &msg
		case apperror.IsCommunityNameUnique:
			c.IsCommunityNameUnique = &msg
		case apperror.MinLength:
			c.MinLength = &msg
		case apperror.MaxLength:
			c.MaxLength = &msg
		case apperror.Matches:
			c.Matches = &msg
		case apperror.IsURL:
			c.IsURL = &msg
		}
	}
	return c
}

type SignUpResponse struct {
	Errors  []apperror.FieldError `json:"errors"`
	Created *bool                 `json:"created"`
}

type LogInResponse struct {
	Errors  []apperror.FieldError `json:"errors"`
	Success *bool                 `json:"success"`
}

type CreateCommunityResponse struct {
	Errors  []apperror.FieldError `json:"errors"`
	Created *bool                 `json:"created"`
}

type CreatePostResponse struct {
	Errors  []apperror.FieldError `json:"errors"`
	Created *bool                 `json:"created"`
	Post    *domain.Post          `json:"post"`
}

type VerifyEmailResponse struct {
	Verified bool    `json:"verified"`
	Error    *string `json:"error"`
}

type GetPostResponse struct {
	Post  *domain.Post `json:"post"`
	Error *string      `json:"error"`
}

type GetCommunityResponse struct {
	Community *domain.Community `json:"community"`
	Error     *string           `json:"error"`
}

// Bool и String - для необязательных полей ответов.
func Bool(v bool) *bool { return &v }

func String(v string) *string { return &v }
