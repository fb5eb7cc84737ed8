package conflictstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/wikiconflictbot/internal/conflict"
)

func overlap(trigger, original int, files ...string) conflict.Conflict {
	return conflict.Conflict{Kind: conflict.Overlap, Trigger: trigger, Original: original, FileSet: files}
}

func TestUpsert_IdempotentThenNoChange(t *testing.T) {
	s := New()
	c := overlap(2, 1, "a/en.md")

	got, changed := s.Upsert("r", c)
	require.True(t, changed)
	assert.Equal(t, c, got)

	_, changed = s.Upsert("r", c)
	assert.False(t, changed)
}

func TestUpsert_FileSetChangePreservesRole(t *testing.T) {
	s := New()
	s.Upsert("r", overlap(2, 1, "a/en.md"))

	// Role-flipped duplicate key, different file set: role must stay as first inserted.
	updated, changed := s.Upsert("r", overlap(1, 2, "a/en.md", "b/en.md"))
	require.True(t, changed)
	assert.Equal(t, 2, updated.Trigger)
	assert.Equal(t, 1, updated.Original)
	assert.Equal(t, []string{"a/en.md", "b/en.md"}, updated.FileSet)
}

func TestDedupByKey(t *testing.T) {
	s := New()
	s.Upsert("r", overlap(2, 1, "a/en.md"))
	s.Upsert("r", overlap(1, 2, "a/en.md")) // same key, same content -> no-op
	assert.Len(t, s.ByTrigger("r", 2), 1)
	assert.Empty(t, s.ByTrigger("r", 1))
}

func TestRemoveMissing_RoleFlipEviction(t *testing.T) {
	s := New()
	s.Upsert("r", overlap(2, 1, "a/ru.md"))

	removed := s.RemoveMissing("r", 1, 2, nil)
	require.Len(t, removed, 1)
	assert.Equal(t, 2, removed[0].Trigger)
	assert.Empty(t, s.ByTrigger("r", 2))
}

func TestRemoveMissing_KeepsDetectedKinds(t *testing.T) {
	s := New()
	s.Upsert("r", overlap(2, 1, "a/en.md"))
	detected := []conflict.Conflict{overlap(2, 1, "a/en.md")}
	removed := s.RemoveMissing("r", 1, 2, detected)
	assert.Empty(t, removed)
	assert.Len(t, s.ByTrigger("r", 2), 1)
}

func TestRemoveConflictsByPull(t *testing.T) {
	s := New()
	s.Upsert("r", overlap(2, 1, "a/en.md"))
	s.Upsert("r", conflict.Conflict{Kind: conflict.IncompleteTranslation, Trigger: 3, Original: 2, FileSet: []string{"b/en.md"}})

	removed := s.RemoveConflictsByPull("r", 2)
	assert.Len(t, removed, 2)
	assert.Empty(t, s.ByTrigger("r", 2))
	assert.Empty(t, s.ByOriginal("r", 2))
}

func TestRemoveRepository(t *testing.T) {
	s := New()
	s.Upsert("r", overlap(2, 1, "a/en.md"))
	s.RemoveRepository("r")
	assert.Empty(t, s.ByTrigger("r", 2))
}

func TestByTrigger_SortedOrder(t *testing.T) {
	s := New()
	s.Upsert("r", conflict.Conflict{Kind: conflict.IncompleteTranslation, Trigger: 3, Original: 4, FileSet: []string{"d/en.md"}})
	s.Upsert("r", overlap(3, 2, "o/ru.md"))
	s.Upsert("r", conflict.Conflict{Kind: conflict.IncompleteTranslation, Trigger: 3, Original: 1, FileSet: []string{"a/en.md"}})

	got := s.ByTrigger("r", 3)
	require.Len(t, got, 3)
	assert.Equal(t, conflict.Overlap, got[0].Kind)
	assert.Equal(t, 1, got[1].Original)
	assert.Equal(t, 4, got[2].Original)
}
