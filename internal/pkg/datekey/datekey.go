package datekey

import (
	"fmt"
	"sync"
	"time"
)

// Resolver converts instants into calendar-day keys ("YYYY-MM-DD") for IANA
// zones. Loaded *time.Location values are cached per zone name; loading
// walks the tz database, and the set of zones in use is small and stable.
//
// Resolver never falls back to UTC on an unknown zone: the zone name is
// expected to be validated at configuration load, and a silent fallback here
// would corrupt every downstream date comparison.
type Resolver struct {
	mu        sync.RWMutex
	locations map[string]*time.Location
}

func New() *Resolver {
	return &Resolver{locations: make(map[string]*time.Location)}
}

// Key returns the calendar date of t as read off a wall clock in zone.
// Two instants map to the same key iff they fall on the same calendar day
// in that zone, daylight-saving transitions included.
func (r *Resolver) Key(t time.Time, zone string) (string, error) {
	loc, err := r.location(zone)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format("2006-01-02"), nil
}

// Validate resolves zone and warms the cache. Call it at startup so an
// invalid zone fails configuration instead of a later check run.
func (r *Resolver) Validate(zone string) error {
	_, err := r.location(zone)
	return err
}

func (r *Resolver) location(zone string) (*time.Location, error) {
	r.mu.RLock()
	loc, ok := r.locations[zone]
	r.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}

	r.mu.Lock()
	r.locations[zone] = loc
	r.mu.Unlock()
	return loc, nil
}
