package coverage

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// CachedLookup memoizes answers per point. Neighbouring zips share corners
// and boundary vertices, so a run asks for many points more than once.
type CachedLookup struct {
	next  Lookup
	cache *cache.Cache
}

func NewCachedLookup(next Lookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *CachedLookup) Name() string { return c.next.Name() + "+cache" }

func pointKey(p area.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lon, 'f', 6, 64)
}

func (c *CachedLookup) Representatives(ctx context.Context, p area.Point) ([]string, error) {
	key := pointKey(p)
	if v, ok := c.cache.Get(key); ok {
		return v.([]string), nil
	}
	ids, err := c.next.Representatives(ctx, p)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, ids)
	return ids, nil
}

// Len is the number of cached points.
func (c *CachedLookup) Len() int { return c.cache.ItemCount() }
