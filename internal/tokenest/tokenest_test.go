package tokenest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("a"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}

func TestEstimateMessageTokens(t *testing.T) {
	assert.Equal(t, messageOverhead, EstimateMessageTokens())
	assert.Equal(t, messageOverhead+1, EstimateMessageTokens("abcd"))
	assert.Equal(t, messageOverhead+2, EstimateMessageTokens("ab", "cd"))
}
