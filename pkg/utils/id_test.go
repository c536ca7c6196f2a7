package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	assert.True(t, IsValidUUID(id))
	assert.NotEqual(t, id, GenerateID())
}

func TestGenerateToken(t *testing.T) {
	token := GenerateToken()
	assert.Len(t, token, 64)
	assert.NotContains(t, token, "-")
	assert.False(t, IsValidUUID("not-a-uuid"))
}
