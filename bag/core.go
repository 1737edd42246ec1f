package bag

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	unitRE *regexp.Regexp
	// ErrConversion signals an error in unit conversion
	ErrConversion = errors.New("Conversion error")
)

func init() {
	unitRE = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+)(?:e[+-]?\d+)?)(mm|cm|in|pt|px|pc)?$`)
}

// PixelsPerInch is the CSS reference resolution.
const PixelsPerInch = 96.0

// Pixels converts a CSS or SVG length into CSS pixels. A number without a unit
// is taken as pixels.
func Pixels(length string) (float64, error) {
	length = strings.ToLower(strings.TrimSpace(length))
	if length == "" {
		return 0, fmt.Errorf("%w empty length", ErrConversion)
	}
	m := unitRE.FindStringSubmatch(length)
	if len(m) != 3 {
		return 0, fmt.Errorf("%w cannot parse %q", ErrConversion, length)
	}

	l, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w parse float %s", ErrConversion, m[1])
	}

	switch m[2] {
	case "", "px":
		return l, nil
	case "in":
		return l * PixelsPerInch, nil
	case "pt":
		// 1/72th of an inch
		return l * PixelsPerInch / 72, nil
	case "pc":
		// pica, 12pt
		return l * 12 * PixelsPerInch / 72, nil
	case "mm":
		return l / 25.4 * PixelsPerInch, nil
	case "cm":
		return l / 2.54 * PixelsPerInch, nil
	default:
		return 0, ErrConversion
	}
}

// MustPixels converts the length to pixels. In case of an error, the function
// panics.
func MustPixels(length string) float64 {
	val, err := Pixels(length)
	if err != nil {
		panic(err)
	}
	return val
}
