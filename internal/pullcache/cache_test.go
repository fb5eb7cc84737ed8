package pullcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInsert_MonotonicNoOpOnStaleUpdate(t *testing.T) {
	c := New()
	t0 := time.Unix(100, 0)
	t1 := time.Unix(200, 0)

	c.Insert("r", Pull{Number: 1, UpdatedAt: t1, Title: "v2"})
	c.Insert("r", Pull{Number: 1, UpdatedAt: t0, Title: "v1 (stale)"})

	got, ok := c.Get("r", 1)
	assert.True(t, ok)
	assert.Equal(t, "v2", got.Title)
}

func TestInsert_AppliesNewerUpdate(t *testing.T) {
	c := New()
	t0 := time.Unix(100, 0)
	t1 := time.Unix(200, 0)

	c.Insert("r", Pull{Number: 1, UpdatedAt: t0, Title: "v1"})
	c.Insert("r", Pull{Number: 1, UpdatedAt: t1, Title: "v2"})

	got, _ := c.Get("r", 1)
	assert.Equal(t, "v2", got.Title)
}

func TestRemoveAndContains(t *testing.T) {
	c := New()
	c.Insert("r", Pull{Number: 1})
	assert.True(t, c.Contains("r", 1))
	c.Remove("r", 1)
	assert.False(t, c.Contains("r", 1))
}

func TestOpenPulls_SortedByCreatedAt(t *testing.T) {
	c := New()
	c.Insert("r", Pull{Number: 3, CreatedAt: time.Unix(300, 0)})
	c.Insert("r", Pull{Number: 1, CreatedAt: time.Unix(100, 0)})
	c.Insert("r", Pull{Number: 2, CreatedAt: time.Unix(200, 0)})
	c.Insert("other", Pull{Number: 9, CreatedAt: time.Unix(50, 0)})

	got := c.OpenPulls("r")
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Number, got[1].Number, got[2].Number})
}

func TestDropRepository(t *testing.T) {
	c := New()
	c.Insert("r", Pull{Number: 1})
	c.DropRepository("r")
	assert.False(t, c.Contains("r", 1))
	assert.Empty(t, c.OpenPulls("r"))
}
