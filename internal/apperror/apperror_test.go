package apperror

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_AddMergesConstraints(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("username", MinLength, "too short")
	verr.Add("username", IsUsernameUnique, "taken")
	verr.Add("password", MinLength, "too short")

	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "username", verr.Fields[0].Field)
	assert.Len(t, verr.Fields[0].Constraints, 2)
	assert.True(t, verr.Has("password"))
	assert.False(t, verr.Has("email"))
	assert.Equal(t, "Argument Validation Error: username, password", verr.Error())
}

func TestValidationError_OrNil(t *testing.T) {
	var empty *ValidationError
	assert.NoError(t, empty.OrNil())
	assert.NoError(t, (&ValidationError{}).OrNil())

	verr := &ValidationError{}
	verr.Add("name", MaxLength, "too long")
	err := fmt.Errorf("wrapped: %w", verr.OrNil())

	got, ok := AsValidation(err)
	require.True(t, ok)
	assert.Same(t, verr, got)
}
