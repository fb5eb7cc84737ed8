// Package conflictstore holds the set of currently-active conflicts per
// repository and implements the idempotent upsert/remove semantics the
// controller drives its comment writes from.
package conflictstore

import (
	"github.com/sevigo/wikiconflictbot/internal/conflict"
)

// Store is a per-repository keyed map of active conflicts. It has no
// internal locking: it is owned exclusively by the controller actor, which
// serializes all access through its single event loop.
type Store struct {
	repo map[string]map[conflict.Key]conflict.Conflict
}

// New creates an empty Store.
func New() *Store {
	return &Store{repo: make(map[string]map[conflict.Key]conflict.Conflict)}
}

func (s *Store) repoMap(repo string) map[conflict.Key]conflict.Conflict {
	m, ok := s.repo[repo]
	if !ok {
		m = make(map[conflict.Key]conflict.Conflict)
		s.repo[repo] = m
	}
	return m
}

// Upsert inserts c if its key is absent, returning (c, true).
//
// If the key is present and the stored record is identical (same kind, same
// trigger/original role assignment, same file set in the same order), it
// returns (zero, false): no notification is needed.
//
// If the key is present but only the file set differs, the stored file set
// is replaced in place while the stored role assignment (trigger/original)
// is preserved, and the updated, stored record is returned with true.
func (s *Store) Upsert(repo string, c conflict.Conflict) (conflict.Conflict, bool) {
	m := s.repoMap(repo)
	key := c.Key()
	existing, ok := m[key]
	if !ok {
		m[key] = c
		return c, true
	}

	if equalConflict(existing, c) {
		return conflict.Conflict{}, false
	}

	updated := existing
	updated.FileSet = append([]string(nil), c.FileSet...)
	m[key] = updated
	return updated, true
}

func equalConflict(a, b conflict.Conflict) bool {
	if a.Kind != b.Kind || a.Trigger != b.Trigger || a.Original != b.Original {
		return false
	}
	if len(a.FileSet) != len(b.FileSet) {
		return false
	}
	for i := range a.FileSet {
		if a.FileSet[i] != b.FileSet[i] {
			return false
		}
	}
	return true
}

// RemoveMissing removes from the store every conflict whose key would match
// the unordered pull pair (a,b) but whose kind is absent from detected. It
// returns the removed conflicts.
func (s *Store) RemoveMissing(repo string, a, b int, detected []conflict.Conflict) []conflict.Conflict {
	m, ok := s.repo[repo]
	if !ok {
		return nil
	}

	present := make(map[conflict.Kind]struct{}, len(detected))
	for _, c := range detected {
		present[c.Kind] = struct{}{}
	}

	var removed []conflict.Conflict
	for _, kind := range []conflict.Kind{conflict.Overlap, conflict.IncompleteTranslation} {
		if _, ok := present[kind]; ok {
			continue
		}
		key := conflict.KeyFor(a, b, kind)
		if c, ok := m[key]; ok {
			delete(m, key)
			removed = append(removed, c)
		}
	}
	return removed
}

// RemoveConflictsByPull erases every conflict where n is the trigger or the
// original, and returns them.
func (s *Store) RemoveConflictsByPull(repo string, n int) []conflict.Conflict {
	m, ok := s.repo[repo]
	if !ok {
		return nil
	}

	var removed []conflict.Conflict
	for key, c := range m {
		if c.Trigger == n || c.Original == n {
			delete(m, key)
			removed = append(removed, c)
		}
	}
	conflict.SortConflicts(removed)
	return removed
}

// Remove deletes a single conflict by key, if present.
func (s *Store) Remove(repo string, key conflict.Key) (conflict.Conflict, bool) {
	m, ok := s.repo[repo]
	if !ok {
		return conflict.Conflict{}, false
	}
	c, ok := m[key]
	if ok {
		delete(m, key)
	}
	return c, ok
}

// ByTrigger returns the sorted list of conflicts whose trigger is n.
func (s *Store) ByTrigger(repo string, n int) []conflict.Conflict {
	return s.query(repo, func(c conflict.Conflict) bool { return c.Trigger == n })
}

// ByOriginal returns the sorted list of conflicts whose original is n.
func (s *Store) ByOriginal(repo string, n int) []conflict.Conflict {
	return s.query(repo, func(c conflict.Conflict) bool { return c.Original == n })
}

func (s *Store) query(repo string, match func(conflict.Conflict) bool) []conflict.Conflict {
	m, ok := s.repo[repo]
	if !ok {
		return nil
	}
	var out []conflict.Conflict
	for _, c := range m {
		if match(c) {
			out = append(out, c)
		}
	}
	conflict.SortConflicts(out)
	return out
}

// RemoveRepository purges all conflicts tracked for repo.
func (s *Store) RemoveRepository(repo string) {
	delete(s.repo, repo)
}
