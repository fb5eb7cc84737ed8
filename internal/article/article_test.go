package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantOK  bool
		wantDir string
		wantLng string
	}{
		{name: "original", path: "wiki/Article/en.md", wantOK: true, wantDir: "wiki/Article", wantLng: "en"},
		{name: "translation", path: "wiki/Article/ru.md", wantOK: true, wantDir: "wiki/Article", wantLng: "ru"},
		{name: "regional variant", path: "wiki/Article/zh-tw.md", wantOK: true, wantDir: "wiki/Article", wantLng: "zh-tw"},
		{name: "readme not an article", path: "wiki/Article/README.md", wantOK: false},
		{name: "tournament template", path: "wiki/Article/template.md", wantOK: false},
		{name: "non markdown", path: "wiki/Article/en.txt", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := Parse(tt.path)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantDir, a.Dir)
				assert.Equal(t, tt.wantLng, a.Lang)
			}
		})
	}
}

func TestArticle_IsOriginal(t *testing.T) {
	en, _ := Parse("Article/en.md")
	ru, _ := Parse("Article/ru.md")
	assert.True(t, en.IsOriginal())
	assert.False(t, ru.IsOriginal())
}

func TestArticle_SameArticleAndSibling(t *testing.T) {
	enA, _ := Parse("A/en.md")
	ruA, _ := Parse("A/ru.md")
	enA2, _ := Parse("A/en.md")
	enB, _ := Parse("B/en.md")

	assert.True(t, enA.SameArticle(enA2))
	assert.False(t, enA.SameArticle(ruA))
	assert.True(t, enA.SiblingTranslation(ruA))
	assert.False(t, enA.SiblingTranslation(enB))
}

func TestArticle_OriginalFilePath(t *testing.T) {
	ru, _ := Parse("wiki/Article/ru.md")
	assert.Equal(t, "wiki/Article/en.md", ru.OriginalFilePath())
}
