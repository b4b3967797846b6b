package pathing

import "strings"

// segmentReplacer strips characters that are unsafe in path segments.
// Slashes, backslashes, colons, and asterisks become dashes; the rest are
// removed.
var segmentReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

func sanitizeSegment(value string) string {
	value = strings.TrimSpace(segmentReplacer.Replace(strings.TrimSpace(value)))
	if value == "" {
		return "unknown"
	}
	return value
}
