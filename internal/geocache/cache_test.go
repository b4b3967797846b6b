package geocache

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "locations.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return cache
}

func TestRadiusTolerantLookup(t *testing.T) {
	cache := newCache(t)
	helsinki := Place{Default: "Helsinki", City: "Helsinki", Country: "FI"}
	if err := cache.Store(60.1699, 24.9384, helsinki); err != nil {
		t.Fatal(err)
	}

	// ~1.1 km north of the stored point.
	place, ok := cache.PlaceByCoordinates(60.1799, 24.9384, 3000)
	if !ok || place.Default != "Helsinki" {
		t.Fatalf("expected cached hit within 3 km, got %+v (ok=%v)", place, ok)
	}

	// ~110 km away must miss.
	if _, ok := cache.PlaceByCoordinates(61.17, 24.9384, 3000); ok {
		t.Fatal("expected miss outside radius")
	}
}

func TestLookupPicksNearestRecord(t *testing.T) {
	cache := newCache(t)
	if err := cache.Store(60.00, 24.00, Place{Default: "Far"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Store(60.02, 24.00, Place{Default: "Near"}); err != nil {
		t.Fatal(err)
	}

	place, ok := cache.PlaceByCoordinates(60.021, 24.00, 10000)
	if !ok || place.Default != "Near" {
		t.Fatalf("expected nearest record, got %+v", place)
	}
}

type recordingResolver struct {
	calls int
	place Place
	ok    bool
	err   error
}

func (r *recordingResolver) Reverse(lat, lon float64) (Place, bool, error) {
	r.calls++
	return r.place, r.ok, r.err
}

func (r *recordingResolver) Forward(string) (float64, float64, bool, error) {
	return 0, 0, false, nil
}

func TestResolveReadThrough(t *testing.T) {
	cache := newCache(t)
	resolver := &recordingResolver{place: Place{Default: "Tampere"}, ok: true}

	place, ok, err := cache.Resolve(resolver, 61.4978, 23.7610, 3000)
	if err != nil || !ok || place.Default != "Tampere" {
		t.Fatalf("unexpected resolve result: %+v ok=%v err=%v", place, ok, err)
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolver call, got %d", resolver.calls)
	}

	// A nearby query must be served from cache without the resolver.
	if _, ok, err = cache.Resolve(resolver, 61.4980, 23.7612, 3000); err != nil || !ok {
		t.Fatalf("expected cache hit, ok=%v err=%v", ok, err)
	}
	if resolver.calls != 1 {
		t.Fatalf("resolver invoked on cache hit: %d calls", resolver.calls)
	}
}

func TestResolveMissNotCached(t *testing.T) {
	cache := newCache(t)
	resolver := &recordingResolver{ok: false}

	if _, ok, err := cache.Resolve(resolver, 0, 0, 3000); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	if cache.Len() != 0 {
		t.Fatal("resolver miss must not be cached")
	}

	resolver.err = errors.New("boom")
	if _, _, err := cache.Resolve(resolver, 0, 0, 3000); err == nil {
		t.Fatal("resolver error must propagate")
	}
}

func TestCoordinatesByName(t *testing.T) {
	cache := newCache(t)
	if err := cache.Store(60.1699, 24.9384, Place{Default: "Helsinki", State: "Uusimaa"}); err != nil {
		t.Fatal(err)
	}

	lat, lon, ok := cache.CoordinatesByName("helsinki")
	if !ok || lat != 60.1699 || lon != 24.9384 {
		t.Fatalf("expected case-insensitive name hit, got %v,%v ok=%v", lat, lon, ok)
	}
	if _, _, ok := cache.CoordinatesByName("Uusimaa"); !ok {
		t.Fatal("expected state-level name hit")
	}
	if _, _, ok := cache.CoordinatesByName("Nowhere"); ok {
		t.Fatal("expected miss for unknown name")
	}
	if _, _, ok := cache.CoordinatesByName(""); ok {
		t.Fatal("expected miss for empty name")
	}
}

func TestPersistenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.json")

	cache, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Store(1, 2, Place{Default: "Somewhere"}); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if place, ok := reopened.PlaceByCoordinates(1, 2, 100); !ok || place.Default != "Somewhere" {
		t.Fatalf("record lost across reopen: %+v ok=%v", place, ok)
	}
}

func TestOfflineResolverAlwaysMisses(t *testing.T) {
	var resolver OfflineResolver
	if _, ok, _ := resolver.Reverse(60, 24); ok {
		t.Fatal("offline reverse must miss")
	}
	if _, _, ok, _ := resolver.Forward("Las Vegas, NV"); ok {
		t.Fatal("offline forward must miss")
	}
}

func TestDMSRoundTrip(t *testing.T) {
	decimal := -38.24106
	degrees, minutes, seconds, sign := DecimalToDMS(decimal)
	if sign != -1 || degrees != 38 {
		t.Fatalf("unexpected dms: %d %d %f sign=%d", degrees, minutes, seconds, sign)
	}
	back := DMSToDecimal(float64(degrees), float64(minutes), seconds, "S")
	if math.Abs(back-decimal) > 1e-9 {
		t.Fatalf("round trip drifted: %v vs %v", back, decimal)
	}

	if got := DMSString(decimal, true); got == "" || got[len(got)-1] != 'S' {
		t.Fatalf("unexpected dms string %q", got)
	}
	if got := DMSString(24.9384, false); got[len(got)-1] != 'E' {
		t.Fatalf("unexpected dms string %q", got)
	}
}
