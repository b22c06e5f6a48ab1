package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoulErrorFormat(t *testing.T) {
	err := NewSoulError("PutRelationship", ErrStorageOperation)
	assert.Equal(t, "soulmem: PutRelationship: storage operation failed", err.Error())
}

func TestSoulErrorUnwrap(t *testing.T) {
	err := NewSoulError("GetProfile", fmt.Errorf("query: %w", ErrNotFound))
	assert.ErrorIs(t, err, ErrNotFound)

	var soulErr *SoulError
	require.ErrorAs(t, err, &soulErr)
	assert.Equal(t, "GetProfile", soulErr.Op)
}

func TestNewSoulErrorNil(t *testing.T) {
	assert.NoError(t, NewSoulError("Anything", nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(NewSoulError("GetRelationship", ErrNotFound)))
	assert.False(t, IsNotFound(ErrStorageOperation))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("document not found")), "matching text is not matching identity")
}
