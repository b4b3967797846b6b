package geocache

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"mediasort/internal/fileutil"
)

// DefaultRadiusMeters is the match distance applied when a caller passes a
// non-positive radius.
const DefaultRadiusMeters = 3000.0

const earthRadiusMeters = 6371000.0

// Place is a resolved place name at several granularities. Default is the
// value embedded in derived paths.
type Place struct {
	Default string `json:"default"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Record is one cached reverse-geocode result.
type Record struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Place     Place   `json:"place"`
}

// Cache is the persistent, radius-tolerant place store.
type Cache struct {
	mu      sync.Mutex
	path    string
	records []Record
}

// Open loads the cache document at path. Missing or corrupt documents open
// empty; corruption keeps the broken document aside as path+".corrupt".
func Open(path string) (*Cache, error) {
	cache := &Cache{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, fmt.Errorf("read location cache: %w", err)
	}
	if len(data) == 0 {
		return cache, nil
	}
	if err := json.Unmarshal(data, &cache.records); err != nil {
		_ = os.Rename(path, path+".corrupt")
		cache.records = nil
	}
	return cache, nil
}

// Len reports the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// PlaceByCoordinates returns the nearest cached place within radiusMeters
// of the query point.
func (c *Cache) PlaceByCoordinates(lat, lon, radiusMeters float64) (Place, bool) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	best := -1
	bestDistance := radiusMeters
	for i, record := range c.records {
		distance := haversineMeters(lat, lon, record.Latitude, record.Longitude)
		if distance <= bestDistance {
			best = i
			bestDistance = distance
		}
	}
	if best < 0 {
		return Place{}, false
	}
	return c.records[best].Place, true
}

// CoordinatesByName returns cached coordinates for a place name, matching
// any granularity case-insensitively. In the offline deployment this is the
// only forward-geocoding data source.
func (c *Cache) CoordinatesByName(name string) (lat, lon float64, ok bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, record := range c.records {
		if equalFold(record.Place.Default, name) ||
			equalFold(record.Place.City, name) ||
			equalFold(record.Place.State, name) ||
			equalFold(record.Place.Country, name) {
			return record.Latitude, record.Longitude, true
		}
	}
	return 0, 0, false
}

// Store upserts a place for the given coordinates and persists the cache.
// Coordinates are not deduplicated exactly; nearby duplicates are harmless
// because lookup is radius-tolerant.
func (c *Cache) Store(lat, lon float64, place Place) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, Record{Latitude: lat, Longitude: lon, Place: place})
	return c.persistLocked()
}

// Resolve implements the read-through contract: return the cached place
// within radiusMeters, otherwise invoke the resolver, store a hit, and
// return it. A resolver miss yields ok=false and caches nothing.
func (c *Cache) Resolve(resolver Resolver, lat, lon, radiusMeters float64) (Place, bool, error) {
	if place, ok := c.PlaceByCoordinates(lat, lon, radiusMeters); ok {
		return place, true, nil
	}
	if resolver == nil {
		return Place{}, false, nil
	}
	place, ok, err := resolver.Reverse(lat, lon)
	if err != nil {
		return Place{}, false, err
	}
	if !ok {
		return Place{}, false, nil
	}
	if err := c.Store(lat, lon, place); err != nil {
		return Place{}, false, err
	}
	return place, true, nil
}

func (c *Cache) persistLocked() error {
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode location cache: %w", err)
	}
	return fileutil.WriteFileAtomic(c.path, data)
}

func equalFold(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// haversineMeters computes the great-circle distance between two points.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
