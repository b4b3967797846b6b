package media

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// photoExtractor decodes EXIF capture metadata. Photos without usable EXIF
// fall back to filesystem timestamps instead of failing the import.
type photoExtractor struct {
	fallback statExtractor
}

func (p photoExtractor) Extract(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: open %s: %w", ErrUnreadableMetadata, path, err)
	}
	defer file.Close()

	decoded, err := exif.Decode(file)
	if err != nil {
		return p.fallback.Extract(path)
	}

	meta, err := p.fallback.Extract(path)
	if err != nil {
		return Metadata{}, err
	}

	if taken, err := decoded.DateTime(); err == nil {
		meta.DateTaken = taken
	}
	if lat, lon, err := decoded.LatLong(); err == nil {
		meta.Latitude = lat
		meta.Longitude = lon
		meta.HasLocation = true
	}
	if tag, err := decoded.Get(exif.Make); err == nil {
		if value, err := tag.StringVal(); err == nil {
			meta.CameraMake = value
		}
	}
	if tag, err := decoded.Get(exif.Model); err == nil {
		if value, err := tag.StringVal(); err == nil {
			meta.CameraModel = value
		}
	}
	if tag, err := decoded.Get(exif.ImageDescription); err == nil {
		if value, err := tag.StringVal(); err == nil {
			meta.Title = value
		}
	}
	return meta, nil
}
