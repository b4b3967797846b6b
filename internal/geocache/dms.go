package geocache

import (
	"fmt"
	"math"
	"strings"
)

// DecimalToDMS splits decimal degrees into degrees, minutes, seconds and a
// sign (+1 or -1).
func DecimalToDMS(decimal float64) (degrees, minutes int, seconds float64, sign int) {
	sign = 1
	if decimal < 0 {
		sign = -1
	}
	abs := math.Abs(decimal)
	degrees = int(abs)
	remainder := (abs - float64(degrees)) * 60
	minutes = int(remainder)
	seconds = (remainder - float64(minutes)) * 60
	return degrees, minutes, seconds, sign
}

// DMSToDecimal converts degrees, minutes, seconds plus a cardinal direction
// into signed decimal degrees. West and south are negative.
func DMSToDecimal(degrees, minutes, seconds float64, direction string) float64 {
	decimal := degrees + minutes/60 + seconds/3600
	direction = strings.TrimSpace(direction)
	if direction != "" {
		switch direction[0] {
		case 'W', 'w', 'S', 's':
			decimal = -decimal
		}
	}
	return decimal
}

// DMSString renders decimal degrees in the conventional EXIF display form,
// e.g. `38 deg 14' 27.82" S`.
func DMSString(decimal float64, latitude bool) string {
	degrees, minutes, seconds, sign := DecimalToDMS(decimal)
	var direction byte
	switch {
	case latitude && sign >= 0:
		direction = 'N'
	case latitude:
		direction = 'S'
	case sign >= 0:
		direction = 'E'
	default:
		direction = 'W'
	}
	return fmt.Sprintf("%d deg %d' %.2f\" %c", degrees, minutes, seconds, direction)
}
