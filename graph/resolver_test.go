package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/domain"
)

func TestPostObserver(t *testing.T) {
	o := NewPostObserver()

	goID, goCh := o.Subscribe("golang")
	_, rustCh := o.Subscribe("rust")

	post := &domain.Post{ID: "p1", CommunityID: "golang"}
	o.Publish(post)

	select {
	case got := <-goCh:
		assert.Equal(t, post, got)
	default:
		t.Fatal("subscriber of golang did not receive the post")
	}
	assert.Empty(t, rustCh)

	// Буфер на одно событие, лишние отбрасываются
	o.Publish(post)
	o.Publish(post)
	assert.Len(t, goCh, 1)

	o.Unsubscribe("golang", goID)
	<-goCh
	_, open := <-goCh
	assert.False(t, open)

	// Повторная отписка и публикация без подписчиков безопасны
	o.Unsubscribe("golang", goID)
	o.Publish(post)
}

func TestFieldErrorConstraints(t *testing.T) {
	r := (&Resolver{}).FieldError()

	got, err := r.Constraints(context.Background(), &apperror.FieldError{
		Field: "username",
		Constraints: map[string]string{
			apperror.MinLength:        "Username must be between 3 and 20 characters",
			apperror.IsUsernameUnique: "That username is already taken",
			"unknown":                 "dropped",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, got.MinLength)
	require.NotNil(t, got.IsUsernameUnique)
	assert.Equal(t, "Username must be between 3 and 20 characters", *got.MinLength)
	assert.Equal(t, "That username is already taken", *got.IsUsernameUnique)
	assert.Nil(t, got.MaxLength)
	assert.Nil(t, got.IsEmail)
}
