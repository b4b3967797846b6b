package media

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies one media variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindPhoto
	KindVideo
	KindAudio
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// ErrUnreadableMetadata marks extractor failures; callers convert it to a
// per-file outcome, never a batch failure.
var ErrUnreadableMetadata = errors.New("unreadable metadata")

// Metadata is the capture metadata for one in-flight import. It is owned
// exclusively by the worker processing that file.
type Metadata struct {
	// DateTaken is zero when the capture time is unknown.
	DateTaken time.Time
	// Latitude/Longitude are valid only when HasLocation is true.
	Latitude    float64
	Longitude   float64
	HasLocation bool

	Title       string
	Album       string
	CameraMake  string
	CameraModel string

	// BaseName is the file name without extension and without any
	// previously applied title suffix. Rewriting a title updates BaseName
	// so repeated rewrites never compound suffixes.
	BaseName string
}

// Extractor decodes capture metadata for one file. Implementations must be
// safe for concurrent use on independent files.
type Extractor interface {
	Extract(path string) (Metadata, error)
}

// Registry is the immutable classification table. Build it once and pass it
// by reference into every worker.
type Registry struct {
	kinds      map[string]Kind
	extractors map[Kind]Extractor
}

var extensionKinds = map[string]Kind{
	".jpg": KindPhoto, ".jpeg": KindPhoto, ".png": KindPhoto, ".gif": KindPhoto,
	".tif": KindPhoto, ".tiff": KindPhoto, ".heic": KindPhoto, ".dng": KindPhoto,
	".nef": KindPhoto, ".cr2": KindPhoto, ".arw": KindPhoto, ".raf": KindPhoto,

	".mp4": KindVideo, ".mov": KindVideo, ".avi": KindVideo, ".mkv": KindVideo,
	".m4v": KindVideo, ".mpg": KindVideo, ".mpeg": KindVideo, ".3gp": KindVideo,
	".wmv": KindVideo,

	".mp3": KindAudio, ".m4a": KindAudio, ".wav": KindAudio, ".flac": KindAudio,
	".ogg": KindAudio, ".aac": KindAudio,

	".txt": KindText, ".md": KindText, ".log": KindText,
}

// NewRegistry builds the default classification table. Photos decode EXIF;
// the remaining variants fall back to filesystem timestamps.
func NewRegistry() *Registry {
	fallback := statExtractor{}
	return &Registry{
		kinds: extensionKinds,
		extractors: map[Kind]Extractor{
			KindPhoto: photoExtractor{fallback: fallback},
			KindVideo: fallback,
			KindAudio: fallback,
			KindText:  fallback,
		},
	}
}

// Classify maps a path to its variant. Unrecognized extensions yield
// KindUnknown.
func (r *Registry) Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := r.kinds[ext]; ok {
		return kind
	}
	return KindUnknown
}

// Open classifies path and binds it to a File handle, or reports false for
// unsupported files.
func (r *Registry) Open(path string) (*File, bool) {
	kind := r.Classify(path)
	if kind == KindUnknown {
		return nil, false
	}
	return &File{path: path, kind: kind, extractor: r.extractors[kind]}, true
}

// File is one classified media file plus its lazily extracted metadata.
type File struct {
	path      string
	kind      Kind
	extractor Extractor
	meta      *Metadata
}

// Path returns the source path the file was opened from.
func (f *File) Path() string { return f.path }

// Kind returns the classified variant.
func (f *File) Kind() Kind { return f.kind }

// Metadata extracts and caches capture metadata.
func (f *File) Metadata() (*Metadata, error) {
	if f.meta != nil {
		return f.meta, nil
	}
	meta, err := f.extractor.Extract(f.path)
	if err != nil {
		return nil, err
	}
	if meta.BaseName == "" {
		meta.BaseName = baseName(f.path)
	}
	f.meta = &meta
	return f.meta, nil
}

// SetTitle rewrites the title. When a prior title was embedded in the base
// name its suffix is stripped first so repeated rewrites do not compound.
func (f *File) SetTitle(title string) error {
	meta, err := f.Metadata()
	if err != nil {
		return err
	}
	if meta.Title != "" {
		suffix := "-" + SanitizeTitle(meta.Title)
		meta.BaseName = strings.TrimSuffix(meta.BaseName, suffix)
	}
	meta.Title = title
	return nil
}

// SetAlbum rewrites the album.
func (f *File) SetAlbum(album string) error {
	meta, err := f.Metadata()
	if err != nil {
		return err
	}
	meta.Album = album
	return nil
}

// SetAlbumFromFolder derives the album from the immediate parent directory.
func (f *File) SetAlbumFromFolder() error {
	return f.SetAlbum(TitleizeName(filepath.Base(filepath.Dir(f.path))))
}

// SetLocation rewrites the capture coordinates.
func (f *File) SetLocation(lat, lon float64) error {
	meta, err := f.Metadata()
	if err != nil {
		return err
	}
	meta.Latitude = lat
	meta.Longitude = lon
	meta.HasLocation = true
	return nil
}

// SetDateTaken rewrites the capture time.
func (f *File) SetDateTaken(taken time.Time) error {
	meta, err := f.Metadata()
	if err != nil {
		return err
	}
	meta.DateTaken = taken
	return nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
