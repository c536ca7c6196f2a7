package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "jose nunez", Fold("  José   NÚÑEZ "))
	assert.Equal(t, "", Fold("   "))
}

func TestKey(t *testing.T) {
	got := Key("María", "", "Peña", "Maria@Example.com", "3055550100")
	assert.Equal(t, "maria pena maria@example.com 3055550100", got)
}

func TestFoldMatching(t *testing.T) {
	assert.True(t, HasPrefixFold("Líder de zona", "lider"))
	assert.True(t, HasPrefixFold("JEFE regional", "jefe"))
	assert.False(t, HasPrefixFold("Asesor", "lider"))
	assert.True(t, ContainsFold("Asesora en Desarrollo", "desarrollo"))
}
