package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	assert.NotEqual(t, a, b)
	assert.True(t, IsUUID(a))
	assert.Len(t, a, 36)
}

func TestIsUUID(t *testing.T) {
	assert.False(t, IsUUID("job-1"))
	assert.False(t, IsUUID(""))
	assert.True(t, IsUUID("0b0e2b0c-5c1f-4a55-9a4e-8f1d3a3f2c10"))
}
