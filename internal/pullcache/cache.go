// Package pullcache holds the set of open pull requests (with their parsed
// diffs) per repository. It has no internal locking: it is owned
// exclusively by the controller actor.
package pullcache

import (
	"sort"
	"time"

	"github.com/sevigo/wikiconflictbot/internal/diffmodel"
)

// Pull is a cached pull request. A cached Pull always carries a populated
// Diff; entries are only inserted once their diff has been fetched.
type Pull struct {
	Number    int
	Title     string
	Author    string
	HTMLURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
	Merged    bool
	Diff      diffmodel.Diff
}

type pullKey struct {
	repo   string
	number int
}

// Cache is a per-repository keyed map of open pull requests.
type Cache struct {
	pulls map[pullKey]Pull
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{pulls: make(map[pullKey]Pull)}
}

// Insert adds or replaces the cached entry for p.Number. It is a no-op when
// an entry already exists whose UpdatedAt is greater than or equal to
// p.UpdatedAt, making repeated inserts of stale or duplicate updates safe.
func (c *Cache) Insert(repo string, p Pull) {
	key := pullKey{repo, p.Number}
	if existing, ok := c.pulls[key]; ok && !existing.UpdatedAt.Before(p.UpdatedAt) {
		return
	}
	c.pulls[key] = p
}

// Remove deletes the cached entry for number, if present.
func (c *Cache) Remove(repo string, number int) {
	delete(c.pulls, pullKey{repo, number})
}

// Contains reports whether repo/number is cached.
func (c *Cache) Contains(repo string, number int) bool {
	_, ok := c.pulls[pullKey{repo, number}]
	return ok
}

// Get returns the cached pull for repo/number, if present.
func (c *Cache) Get(repo string, number int) (Pull, bool) {
	p, ok := c.pulls[pullKey{repo, number}]
	return p, ok
}

// OpenPulls returns every pull cached for repo, sorted ascending by
// CreatedAt (the deterministic tie-break order the refresh pass iterates
// other open pulls in).
func (c *Cache) OpenPulls(repo string) []Pull {
	var out []Pull
	for key, p := range c.pulls {
		if key.repo == repo {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// DropRepository removes every cached pull for repo.
func (c *Cache) DropRepository(repo string) {
	for key := range c.pulls {
		if key.repo == repo {
			delete(c.pulls, key)
		}
	}
}
