// Package commentcodec encodes and decodes the machine-readable header the
// bot embeds at the top of every comment it posts, and renders the
// human-readable body.
package commentcodec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sevigo/wikiconflictbot/internal/conflict"
)

const (
	headerOpen  = "<!--"
	headerClose = "-->"

	keyPullNumber   = "pull_number"
	keyConflictType = "conflict_type"

	// fileListCutoff is the file-count threshold above which the body
	// renders a single "(>10 files)" summary line instead of a per-file list.
	fileListCutoff = 10
)

// Header is the structured, machine-readable identity embedded at the start
// of every bot comment.
type Header struct {
	PullNumber   int
	ConflictType conflict.Kind
}

// EncodeHeader renders h as an HTML-comment prologue: an opening "<!--"
// line, one "key: value" line per field in stable order, and a closing
// "-->" line.
func EncodeHeader(h Header) string {
	var b strings.Builder
	b.WriteString(headerOpen)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s: %d\n", keyPullNumber, h.PullNumber)
	fmt.Fprintf(&b, "%s: %s\n", keyConflictType, h.ConflictType.String())
	b.WriteString(headerClose)
	return b.String()
}

// DecodeHeader parses a comment body's leading header. It rejects any body
// that does not start with "<!--" or whose mapping cannot be parsed.
func DecodeHeader(body string) (Header, error) {
	if !strings.HasPrefix(body, headerOpen) {
		return Header{}, fmt.Errorf("comment body does not start with a header prologue")
	}

	rest := body[len(headerOpen):]
	closeIdx := strings.Index(rest, headerClose)
	if closeIdx < 0 {
		return Header{}, fmt.Errorf("comment header is never closed")
	}

	block := strings.TrimSpace(rest[:closeIdx])
	fields := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return Header{}, fmt.Errorf("malformed header line %q", line)
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	rawNumber, ok := fields[keyPullNumber]
	if !ok {
		return Header{}, fmt.Errorf("header missing %q", keyPullNumber)
	}
	number, err := strconv.Atoi(rawNumber)
	if err != nil {
		return Header{}, fmt.Errorf("header %q is not an integer: %w", keyPullNumber, err)
	}

	rawKind, ok := fields[keyConflictType]
	if !ok {
		return Header{}, fmt.Errorf("header missing %q", keyConflictType)
	}
	kind, err := parseKind(rawKind)
	if err != nil {
		return Header{}, err
	}

	return Header{PullNumber: number, ConflictType: kind}, nil
}

func parseKind(s string) (conflict.Kind, error) {
	switch s {
	case conflict.Overlap.String():
		return conflict.Overlap, nil
	case conflict.IncompleteTranslation.String():
		return conflict.IncompleteTranslation, nil
	default:
		return 0, fmt.Errorf("unrecognized conflict_type %q", s)
	}
}

var kindTemplate = map[conflict.Kind]string{
	conflict.Overlap: "Another open pull request touches the same article file(s) listed below. " +
		"Please coordinate to avoid clobbering each other's edits.",
	conflict.IncompleteTranslation: "The English original for the article(s) listed below has changed on " +
		"another open pull request. This translation may now be out of date.",
}

// EncodeBody renders the full comment body for c: the header prologue, the
// prose for c.Kind, and a file listing, truncated to a single summary line
// when len(c.FileSet) exceeds the file-count cutoff.
func EncodeBody(c conflict.Conflict) string {
	var b strings.Builder
	b.WriteString(EncodeHeader(Header{PullNumber: c.Original, ConflictType: c.Kind}))
	b.WriteString("\n\n")
	b.WriteString(kindTemplate[c.Kind])
	b.WriteString("\n\n")

	if len(c.FileSet) > fileListCutoff {
		fmt.Fprintf(&b, "- %s (>10 files)\n", c.ReferenceURL)
		return b.String()
	}

	fmt.Fprintf(&b, "- %s, files:\n", c.ReferenceURL)
	files := append([]string(nil), c.FileSet...)
	sort.Strings(files)
	for _, f := range files {
		fmt.Fprintf(&b, "  - [%s](%s/files#diff-%s)\n", f, c.ReferenceURL, fileAnchor(f))
	}
	return b.String()
}

// fileAnchor computes the forge's deep-link anchor for a file path: the
// lowercase hex SHA-256 of its raw bytes.
func fileAnchor(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
