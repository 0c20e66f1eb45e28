package textutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateUTF8_ShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "hello", TruncateUTF8("hello", 100))
}

func TestTruncateUTF8_DoesNotSplitMultiByteRune(t *testing.T) {
	s := "hello 中文"
	out := TruncateUTF8(s, 8)
	assert.LessOrEqual(t, len(out), 8)
	assert.True(t, utf8.ValidString(out), "truncation must not leave a partial rune")
}

func TestDeriveMemorySessionID(t *testing.T) {
	assert.Equal(t, "mem-abcdefgh", DeriveMemorySessionID("abcdefghijkl"))
	assert.Equal(t, "mem-ab", DeriveMemorySessionID("ab"))
}
