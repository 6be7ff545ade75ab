package gateway

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	assert.Equal(t, "<empty body>", snippet([]byte("  ")))
	assert.Equal(t, "not found", snippet([]byte(" not found\n")))

	long := snippet([]byte(strings.Repeat("a", 300)))
	assert.Equal(t, strings.Repeat("a", 200)+"...", long)
}

func TestSnippet_KeepsRunesWhole(t *testing.T) {
	// 'é' is two bytes, so byte 200 falls inside a rune after one ASCII byte.
	body := "x" + strings.Repeat("é", 150)
	got := snippet([]byte(body))

	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 203)
	assert.True(t, strings.HasPrefix(body, strings.TrimSuffix(got, "...")))
}
