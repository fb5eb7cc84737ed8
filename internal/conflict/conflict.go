// Package conflict defines the Conflict value type the classifier emits and
// the ConflictStore keys records by.
package conflict

import "sort"

// Kind is a closed sum type distinguishing the two conflict variants this
// system detects. Its zero value (Overlap) sorts first; the declared order
// is observable in comment-post ordering, so it is fixed here rather than
// left to map iteration or struct field order.
type Kind int

const (
	// Overlap marks two open PRs touching the same article file.
	Overlap Kind = iota
	// IncompleteTranslation marks one PR touching an original article while
	// another open PR holds a translation of the same article.
	IncompleteTranslation
)

func (k Kind) String() string {
	switch k {
	case Overlap:
		return "overlap"
	case IncompleteTranslation:
		return "incomplete_translation"
	default:
		return "unknown"
	}
}

// Conflict is a single advisory the controller wants reflected as a forge
// comment.
type Conflict struct {
	Kind         Kind
	Trigger      int
	Original     int
	ReferenceURL string
	FileSet      []string
}

// Key identifies the unordered pull pair and kind a Conflict belongs to,
// independent of which pull currently holds the trigger vs. original role.
type Key struct {
	Low  int
	High int
	Kind Kind
}

// Key computes the role-normalized dedup identity of c.
func (c Conflict) Key() Key {
	return KeyFor(c.Trigger, c.Original, c.Kind)
}

// KeyFor builds the normalized Key for an unordered pull pair and kind.
func KeyFor(a, b int, kind Kind) Key {
	if a > b {
		a, b = b, a
	}
	return Key{Low: a, High: b, Kind: kind}
}

// SortedFileSet returns a new, deduplicated, lexicographically sorted copy of
// files.
func SortedFileSet(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Less orders two conflicts by kind, then ascending trigger number, then
// ascending original number.
func Less(a, b Conflict) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Trigger != b.Trigger {
		return a.Trigger < b.Trigger
	}
	return a.Original < b.Original
}

// SortConflicts orders cs in place per Less.
func SortConflicts(cs []Conflict) {
	sort.SliceStable(cs, func(i, j int) bool { return Less(cs[i], cs[j]) })
}
