package media

import (
	"fmt"
	"os"
)

// statExtractor derives metadata available to every variant: the capture
// time approximated by the file modification time and the base name.
type statExtractor struct{}

func (statExtractor) Extract(path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: stat %s: %w", ErrUnreadableMetadata, path, err)
	}
	return Metadata{
		DateTaken: info.ModTime(),
		BaseName:  baseName(path),
	}, nil
}
