// Package diffmodel parses unified-diff text into an ordered list of patched
// file entries. It is a thin, pure adapter over sourcegraph/go-diff, the
// library the rest of the example corpus reaches for when it needs to walk a
// unified diff's hunks (see multimediallc-codeowners-plus's
// internal/app diff-driven tests).
package diffmodel

import (
	"fmt"
	"strings"

	gdiff "github.com/sourcegraph/go-diff/diff"
)

// DevNull is the sentinel go-diff (and git) uses for the missing side of a
// pure add or delete.
const DevNull = "/dev/null"

// PatchedFile is one file entry from a unified diff.
type PatchedFile struct {
	SourceFile string
	TargetFile string
}

// Path returns the non-null side of the patch: the target path for
// modifications and pure adds, the source path for pure deletes.
func (f PatchedFile) Path() string {
	if f.TargetFile != DevNull {
		return f.TargetFile
	}
	return f.SourceFile
}

// Diff is an ordered sequence of patched files, in the order they appear in
// the underlying unified-diff text.
type Diff struct {
	Files []PatchedFile
}

// Parse decodes unified-diff text (as returned by the forge's raw-diff API)
// into a Diff. File paths are normalized: go-diff's "a/" and "b/" prefixes
// are stripped, and `/dev/null` is preserved verbatim so callers can detect
// pure adds/deletes.
func Parse(text string) (Diff, error) {
	fileDiffs, err := gdiff.ParseMultiFileDiff([]byte(text))
	if err != nil {
		return Diff{}, fmt.Errorf("parse unified diff: %w", err)
	}

	d := Diff{Files: make([]PatchedFile, 0, len(fileDiffs))}
	for _, fd := range fileDiffs {
		d.Files = append(d.Files, PatchedFile{
			SourceFile: stripPrefix(fd.OrigName),
			TargetFile: stripPrefix(fd.NewName),
		})
	}
	return d, nil
}

// stripPrefix removes the leading "a/" or "b/" git diff marker go-diff
// leaves on OrigName/NewName, leaving /dev/null untouched.
func stripPrefix(name string) string {
	if name == DevNull {
		return name
	}
	if len(name) > 2 && (strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/")) {
		return name[2:]
	}
	return name
}
