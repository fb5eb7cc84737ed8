// Package article decodes wiki file paths of the form ".../<dir>/<lang>.md"
// into a directory and a language code, and classifies them as original or
// translation content.
package article

import (
	"path"
	"regexp"
)

// OriginalLang is the language code of the source-of-truth article.
const OriginalLang = "en"

// langPattern matches a two-letter language code, or a "xx-yy" regional
// variant, as the entire filename stem (e.g. "en", "ru", "zh-tw").
var langPattern = regexp.MustCompile(`^([a-zA-Z]{2}|[a-zA-Z]{2}-[a-zA-Z]{2})\.md$`)

// Article identifies a single per-language file within a wiki article
// directory.
type Article struct {
	Dir  string
	Lang string
}

// Path reconstructs the file path this Article was parsed from.
func (a Article) Path() string {
	return path.Join(a.Dir, a.Lang+".md")
}

// IsOriginal reports whether this article is the English source of truth.
func (a Article) IsOriginal() bool {
	return a.Lang == OriginalLang
}

// SameArticle reports whether a and other refer to the same directory and
// language.
func (a Article) SameArticle(other Article) bool {
	return a.Dir == other.Dir && a.Lang == other.Lang
}

// SiblingTranslation reports whether a and other live in the same directory
// but carry different languages.
func (a Article) SiblingTranslation(other Article) bool {
	return a.Dir == other.Dir && a.Lang != other.Lang
}

// OriginalFilePath returns "<dir>/en.md" for the directory a belongs to.
func (a Article) OriginalFilePath() string {
	return path.Join(a.Dir, OriginalLang+".md")
}

// Parse classifies a file path as wiki article markdown. It returns false
// when the basename does not match the language pattern (two-letter or
// "xx-yy" code followed by ".md").
func Parse(filePath string) (Article, bool) {
	dir, base := path.Split(path.Clean(filePath))
	if !langPattern.MatchString(base) {
		return Article{}, false
	}
	lang := base[:len(base)-len(".md")]
	dir = path.Clean(dir)
	if dir == "." {
		dir = ""
	}
	return Article{Dir: dir, Lang: lang}, true
}

// IsArticleMarkdown reports whether the given path matches the article
// language pattern, without constructing an Article value.
func IsArticleMarkdown(filePath string) bool {
	_, ok := Parse(filePath)
	return ok
}
