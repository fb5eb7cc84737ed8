// Package classifier implements the conflict classifier: a pure function
// that compares two pull requests' diffs and reports the wiki-article
// conflicts between them.
package classifier

import (
	"github.com/sevigo/wikiconflictbot/internal/article"
	"github.com/sevigo/wikiconflictbot/internal/conflict"
	"github.com/sevigo/wikiconflictbot/internal/diffmodel"
)

// Pull is the minimal view of a pull request the classifier needs. It is
// satisfied by the controller's cached pull representation.
type Pull struct {
	Number  int
	HTMLURL string
	Diff    diffmodel.Diff
}

// articlePaths returns the article-markdown paths touched by d, mapped to
// their parsed Article values.
func articlePaths(d diffmodel.Diff) map[string]article.Article {
	out := make(map[string]article.Article)
	for _, f := range d.Files {
		p := f.Path()
		if f.TargetFile == diffmodel.DevNull {
			p = f.SourceFile
		}
		a, ok := article.Parse(p)
		if !ok {
			continue
		}
		out[p] = a
	}
	return out
}

// ComparePulls compares newPull against other and returns the conflicts
// between them. It is deterministic and depends only on the two pulls'
// diffs, numbers, and URLs; it is sensitive to which pull is "new" (its
// output can differ if the arguments are swapped), since that determines
// which side's own diff is consulted for the translation-only exemption.
func ComparePulls(newPull, other Pull) []conflict.Conflict {
	n := articlePaths(newPull.Diff)
	o := articlePaths(other.Diff)

	var overlapFiles []string
	var originalFiles []string
	isNewTranslation := false

	for path, na := range n {
		for _, oa := range o {
			if na.Dir != oa.Dir {
				continue
			}

			if na.SameArticle(oa) {
				if na.IsOriginal() || translationOnlyChange(n, na) {
					overlapFiles = append(overlapFiles, path)
				}
				continue
			}

			switch {
			case na.IsOriginal() && !oa.IsOriginal():
				originalFiles = append(originalFiles, na.OriginalFilePath())
			case oa.IsOriginal() && !na.IsOriginal():
				originalFiles = append(originalFiles, oa.OriginalFilePath())
				isNewTranslation = true
			}
		}
	}

	var out []conflict.Conflict
	if len(overlapFiles) > 0 {
		out = append(out, conflict.Conflict{
			Kind:         conflict.Overlap,
			Trigger:      newPull.Number,
			Original:     other.Number,
			ReferenceURL: other.HTMLURL,
			FileSet:      conflict.SortedFileSet(overlapFiles),
		})
	}
	if len(originalFiles) > 0 {
		c := conflict.Conflict{
			Kind:    conflict.IncompleteTranslation,
			FileSet: conflict.SortedFileSet(originalFiles),
		}
		if isNewTranslation {
			c.Trigger, c.Original, c.ReferenceURL = newPull.Number, other.Number, other.HTMLURL
		} else {
			c.Trigger, c.Original, c.ReferenceURL = other.Number, newPull.Number, newPull.HTMLURL
		}
		out = append(out, c)
	}

	conflict.SortConflicts(out)
	return out
}

// translationOnlyChange reports whether na is a translation and the new
// pull's own diff does not also contain that article's English original —
// the case subsumed by the IncompleteTranslation conflict rather than
// double-reported as an Overlap.
func translationOnlyChange(n map[string]article.Article, na article.Article) bool {
	if na.IsOriginal() {
		return false
	}
	_, hasOwnOriginal := n[na.OriginalFilePath()]
	return !hasOwnOriginal
}
