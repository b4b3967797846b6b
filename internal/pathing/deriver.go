package pathing

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"mediasort/internal/media"
)

// ErrDuplicateDestination signals a destination collision under the
// no-duplicates policy; the caller decides (default: skip the import).
var ErrDuplicateDestination = errors.New("duplicate destination")

// maxCollisionSuffix bounds the numeric disambiguator applied when
// duplicates are allowed. The timestamp+title stem makes the suffix nearly
// unreachable, but a bounded safety net beats silent data loss.
const maxCollisionSuffix = 100

const stemTimeLayout = "2006-01-02_15-04-05"

// Options configure derivation. Zero values select the defaults used by
// the default configuration.
type Options struct {
	// Segments is the ordered list of directory templates: "date",
	// "place", "album", "camera".
	Segments        []string
	DateFormat      string
	UnknownDate     string
	UnknownLocation string
}

// Deriver computes destination paths. Safe for concurrent use.
type Deriver struct {
	opts Options
}

// NewDeriver builds a deriver, applying defaults for unset options.
func NewDeriver(opts Options) *Deriver {
	if len(opts.Segments) == 0 {
		opts.Segments = []string{"date", "place"}
	}
	if opts.DateFormat == "" {
		opts.DateFormat = "2006-01"
	}
	if opts.UnknownDate == "" {
		opts.UnknownDate = "Unknown Date"
	}
	if opts.UnknownLocation == "" {
		opts.UnknownLocation = "Unknown Location"
	}
	return &Deriver{opts: opts}
}

// FolderDepth reports how many path segments the configured template
// produces. Callers walking up from a file to its synthesized root rely on
// the depth being constant, which the sentinel buckets guarantee.
func (d *Deriver) FolderDepth() int {
	return len(d.opts.Segments)
}

// RelativeDir renders the configured segments for the given metadata and
// resolved place name.
func (d *Deriver) RelativeDir(meta *media.Metadata, place string) string {
	segments := make([]string, 0, len(d.opts.Segments))
	for _, template := range d.opts.Segments {
		segments = append(segments, d.renderSegment(template, meta, place))
	}
	return filepath.Join(segments...)
}

func (d *Deriver) renderSegment(template string, meta *media.Metadata, place string) string {
	switch template {
	case "date":
		if meta.DateTaken.IsZero() {
			return d.opts.UnknownDate
		}
		return meta.DateTaken.Format(d.opts.DateFormat)
	case "place":
		if strings.TrimSpace(place) == "" {
			return d.opts.UnknownLocation
		}
		return sanitizeSegment(place)
	case "album":
		if strings.TrimSpace(meta.Album) == "" {
			return "Unknown Album"
		}
		return sanitizeSegment(meta.Album)
	case "camera":
		camera := strings.TrimSpace(strings.TrimSpace(meta.CameraMake) + " " + strings.TrimSpace(meta.CameraModel))
		if camera == "" {
			return "Unknown Camera"
		}
		return sanitizeSegment(camera)
	default:
		return sanitizeSegment(template)
	}
}

// FileName computes the destination file name: a capture-timestamp prefix,
// the base name, and the sanitized title when present. Names that already
// carry a recognized date prefix are not re-stamped.
func (d *Deriver) FileName(meta *media.Metadata, sourcePath string) string {
	ext := strings.ToLower(filepath.Ext(sourcePath))

	stem := meta.BaseName
	if stem == "" {
		base := filepath.Base(sourcePath)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if title := media.SanitizeTitle(meta.Title); title != "" && !strings.HasSuffix(stem, "-"+title) {
		stem = stem + "-" + title
	}
	if !HasDatePrefix(stem) && !meta.DateTaken.IsZero() {
		stem = meta.DateTaken.Format(stemTimeLayout) + "-" + stem
	}
	return sanitizeSegment(stem) + ext
}

// Destination joins root, the rendered directory, and the file name, then
// resolves collisions through the caller-held exists probe. With duplicates
// disallowed a collision returns ErrDuplicateDestination; otherwise a
// bounded numeric suffix disambiguates.
func (d *Deriver) Destination(root, sourcePath string, meta *media.Metadata, place string, allowDuplicates bool, exists func(string) bool) (string, error) {
	dir := filepath.Join(root, d.RelativeDir(meta, place))
	full := filepath.Join(dir, d.FileName(meta, sourcePath))

	if exists == nil || !exists(full) {
		return full, nil
	}
	if !allowDuplicates {
		return "", fmt.Errorf("%w: %s", ErrDuplicateDestination, full)
	}

	ext := filepath.Ext(full)
	prefix := strings.TrimSuffix(full, ext)
	for i := 1; i <= maxCollisionSuffix; i++ {
		candidate := fmt.Sprintf("%s-%d%s", prefix, i, ext)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no non-colliding variant for %s", ErrDuplicateDestination, full)
}

var datePrefixPatterns = []*regexp.Regexp{
	// 2023-01-15-x or 2023-01-15_13-04-05-x
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([-_]|$)`),
	// 20230115_x, 20230115_123045_x, 20230115.jpg
	regexp.MustCompile(`^\d{8}(_\d{6})?([._-]|$)`),
	// IMG_20230115, VID_20230115_123045
	regexp.MustCompile(`^(IMG|VID)_\d{8}(_\d{6})?([._-]|$)`),
}

// HasDatePrefix reports whether a file name already carries a derived date
// prefix in any recognized convention. Empty input is simply false.
func HasDatePrefix(name string) bool {
	name = filepath.Base(name)
	if name == "" || name == "." {
		return false
	}
	for _, pattern := range datePrefixPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}
