package sysmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotal(t *testing.T) {
	result := Total()
	assert.NotZero(t, result.TotalBytes)
	if !result.Reliable {
		assert.Equal(t, DefaultMemoryBytes, result.TotalBytes)
	}
}

func TestTotalBytes(t *testing.T) {
	assert.Equal(t, Total().TotalBytes, TotalBytes())
}
