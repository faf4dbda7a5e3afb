package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	assert.True(t, Username("bob"))
	assert.True(t, Username("Alice123"))
	assert.True(t, Username("abcdefghijkl")) // 12 chars
	assert.False(t, Username("ab"))          // too short
	assert.False(t, Username("abcdefghijklm")) // 13 chars
	assert.False(t, Username("has space"))
	assert.False(t, Username("has_underscore"))
	assert.False(t, Username(""))
}

func TestMessage(t *testing.T) {
	assert.True(t, Message("a"))
	assert.True(t, Message(strings.Repeat("x", 1000)))
	assert.False(t, Message(""))
	assert.False(t, Message(strings.Repeat("x", 1001)))
}
