package geocache

// Resolver translates between coordinates and place names.
//
// Reverse returns ok=false when no place is known for the coordinates.
// Forward returns ok=false when the deployment has no forward-geocoding
// data source; callers must treat that as a hard miss, not retryable.
type Resolver interface {
	Reverse(lat, lon float64) (Place, bool, error)
	Forward(name string) (lat, lon float64, ok bool, err error)
}

// OfflineResolver is the deployed resolver: it has no external data source
// at all, so every lookup misses. Reverse-geocoded places only ever enter
// the system through a previously populated cache document.
type OfflineResolver struct{}

func (OfflineResolver) Reverse(lat, lon float64) (Place, bool, error) {
	return Place{}, false, nil
}

func (OfflineResolver) Forward(name string) (float64, float64, bool, error) {
	return 0, 0, false, nil
}
