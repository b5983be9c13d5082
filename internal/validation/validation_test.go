package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestStruct_SignUp(t *testing.T) {
	v := New()

	verr, err := v.Struct(domain.SignUpInput{Username: "benben", Password: "benbenben"})
	require.NoError(t, err)
	assert.NoError(t, verr.OrNil())

	verr, err = v.Struct(&domain.SignUpInput{Email: ptr("nope"), Username: "be", Password: "short"})
	require.NoError(t, err)
	require.Error(t, verr.OrNil())

	assert.Equal(t, []apperror.FieldError{
		{Field: "email", Constraints: map[string]string{apperror.IsEmail: "email must be an email"}},
		{Field: "username", Constraints: map[string]string{apperror.MinLength: "Username must be between 3 and 20 characters"}},
		{Field: "password", Constraints: map[string]string{apperror.MinLength: "Password must be at least 8 characters long"}},
	}, verr.Fields)
}

func TestStruct_UsernameTooLong(t *testing.T) {
	verr, err := New().Struct(domain.LogInInput{Username: strings.Repeat("b", 21), Password: "benbenben"})
	require.NoError(t, err)
	require.Len(t, verr.Fields, 1)
	assert.Contains(t, verr.Fields[0].Constraints, apperror.MaxLength)
}

func TestStruct_Community(t *testing.T) {
	v := New()

	verr, err := v.Struct(domain.CreateCommunityInput{Name: "golang", Type: domain.CommunityPublic})
	require.NoError(t, err)
	assert.NoError(t, verr.OrNil())

	verr, err = v.Struct(domain.CreateCommunityInput{
		Name:        "",
		Type:        "restricted",
		Description: ptr(strings.Repeat("d", 501)),
	})
	require.NoError(t, err)
	assert.True(t, verr.Has("name"))
	assert.True(t, verr.Has("description"))
	require.True(t, verr.Has("type"))
	for _, f := range verr.Fields {
		if f.Field == "type" {
			assert.Equal(t, "Type must be 1 of 3 values(private, protected, public)", f.Constraints[apperror.Matches])
		}
	}
}

func TestStruct_Post(t *testing.T) {
	v := New()

	verr, err := v.Struct(domain.CreatePostInput{
		Title:       "hello",
		ContentKind: domain.ContentLink,
		SubmitType:  domain.SubmitCommunity,
		LinkURL:     ptr("https://go.dev"),
	})
	require.NoError(t, err)
	assert.NoError(t, verr.OrNil())

	verr, err = v.Struct(domain.CreatePostInput{
		Title:       strings.Repeat("t", 301),
		ContentKind: "gif",
		SubmitType:  "wiki",
		LinkURL:     ptr("not a url"),
	})
	require.NoError(t, err)
	for _, field := range []string{"title", "contentKind", "submitType", "linkUrl"} {
		assert.True(t, verr.Has(field), field)
	}
}

func TestVar(t *testing.T) {
	v := New()

	verr, err := v.Var("email", "ben@ben.com", EmailRule, EmailMessage)
	require.NoError(t, err)
	assert.NoError(t, verr.OrNil())

	verr, err = v.Var("name", "go", CommunityNameRule, CommunityNameMessage)
	require.NoError(t, err)
	assert.Equal(t, []apperror.FieldError{
		{Field: "name", Constraints: map[string]string{apperror.MinLength: CommunityNameMessage}},
	}, verr.Fields)
}

func TestStruct_PasswordBytes(t *testing.T) {
	v := New()

	// 36 символов, но 72 байта
	verr, err := v.Struct(domain.SignUpInput{Username: "benben", Password: strings.Repeat("я", 36)})
	require.NoError(t, err)
	assert.NoError(t, verr.OrNil())

	verr, err = v.Struct(domain.SignUpInput{Username: "benben", Password: strings.Repeat("я", 37)})
	require.NoError(t, err)
	assert.Equal(t, []apperror.FieldError{
		{Field: "password", Constraints: map[string]string{apperror.MaxLength: "Password must be at most 72 bytes long"}},
	}, verr.Fields)
}
