package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomCodeAlphabet(t *testing.T) {
	t.Parallel()
	assert.Len(t, codeAlphabet, 33)
	for _, confusable := range "0OI" {
		assert.NotContains(t, codeAlphabet, string(confusable))
	}
}

func TestNewRoomCode(t *testing.T) {
	t.Parallel()
	for i := 0; i < 100; i++ {
		code := newRoomCode()
		assert.Len(t, code, codeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected character %q in %q", c, code)
		}
	}
}
