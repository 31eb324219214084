package ledger

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// reportCache memoizes derived reports. Keys carry the store revision, and
// the whole cache is cleared on every write, so a hit always reflects the
// current transaction set. ristretto may drop sets under its admission
// policy; a miss just recomputes.
type reportCache struct {
	c *ristretto.Cache
}

func newReportCache() (*reportCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000, // number of keys to track frequency of
		MaxCost:     100,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, fmt.Errorf("creating report cache: %w", err)
	}
	return &reportCache{c: c}, nil
}

func cacheKey(kind string, rev uint64, at fmt.Stringer) string {
	return fmt.Sprintf("%s:%d:%s", kind, rev, at)
}

func (rc *reportCache) get(key string) (any, bool) {
	if rc == nil {
		return nil, false
	}
	return rc.c.Get(key)
}

func (rc *reportCache) set(key string, v any) {
	if rc == nil {
		return
	}
	rc.c.Set(key, v, 1)
	rc.c.Wait()
}

func (rc *reportCache) clear() {
	if rc == nil {
		return
	}
	rc.c.Clear()
}

func (rc *reportCache) close() {
	if rc == nil {
		return
	}
	rc.c.Close()
}
