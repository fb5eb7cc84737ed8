package commentcodec

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/wikiconflictbot/internal/conflict"
)

func TestHeaderRoundTrip(t *testing.T) {
	for _, h := range []Header{
		{PullNumber: 1, ConflictType: conflict.Overlap},
		{PullNumber: 42, ConflictType: conflict.IncompleteTranslation},
	} {
		encoded := EncodeHeader(h)
		decoded, err := DecodeHeader(encoded + "\nbody text")
		require.NoError(t, err)
		assert.Equal(t, h, decoded)
	}
}

func TestDecodeHeader_RejectsMissingPrefix(t *testing.T) {
	_, err := DecodeHeader("no header here")
	assert.Error(t, err)
}

func TestDecodeHeader_RejectsMalformedMapping(t *testing.T) {
	_, err := DecodeHeader("<!--\ngarbage line without colon\n-->\nbody")
	assert.Error(t, err)
}

func TestDecodeHeader_RejectsUnclosedHeader(t *testing.T) {
	_, err := DecodeHeader("<!--\npull_number: 1\nconflict_type: overlap\n")
	assert.Error(t, err)
}

func TestEncodeBody_SmallFileSet(t *testing.T) {
	c := conflict.Conflict{
		Kind: conflict.Overlap, Trigger: 2, Original: 1,
		ReferenceURL: "https://forge/org/repo/pull/1",
		FileSet:      []string{"wiki/Article/en.md"},
	}
	body := EncodeBody(c)

	h, err := DecodeHeader(body)
	require.NoError(t, err)
	assert.Equal(t, Header{PullNumber: 1, ConflictType: conflict.Overlap}, h)

	sum := sha256.Sum256([]byte("wiki/Article/en.md"))
	anchor := hex.EncodeToString(sum[:])
	assert.Contains(t, body, "#diff-"+anchor)
	assert.Contains(t, body, "[wiki/Article/en.md]")
}

func TestEncodeBody_TruncatesLargeFileSet(t *testing.T) {
	files := make([]string, 11)
	for i := range files {
		files[i] = "wiki/Article" + string(rune('a'+i)) + "/en.md"
	}
	c := conflict.Conflict{
		Kind: conflict.IncompleteTranslation, Trigger: 2, Original: 1,
		ReferenceURL: "https://forge/org/repo/pull/1",
		FileSet:      files,
	}
	body := EncodeBody(c)
	assert.Contains(t, body, "(>10 files)")
	assert.False(t, strings.Contains(body, "#diff-"))
}
