// Package fingerprint builds the device fingerprint sent by clients to the
// validation endpoint. It is a heuristic, collisions are expected.
package fingerprint

import (
	"strconv"
	"strings"
)

// Attributes are the device properties a client collects.
type Attributes struct {
	UserAgent      string
	Language       string
	Platform       string
	ScreenSize     string
	Timezone       string
	HardwareCores  int
	CanvasHash     string
	WebGLVendor    string
	WebGLRenderer  string
	TouchSupported bool
}

func (a Attributes) parts() []string {
	return []string{
		a.UserAgent,
		a.Language,
		a.Platform,
		a.ScreenSize,
		a.Timezone,
		strconv.Itoa(a.HardwareCores),
		a.CanvasHash,
		a.WebGLVendor,
		a.WebGLRenderer,
		strconv.FormatBool(a.TouchSupported),
	}
}

// Hash folds the parts into a 32-bit accumulator (h = h*31 + c) and renders
// the absolute value in base 36.
func Hash(parts ...string) string {
	var h int32
	for _, c := range strings.Join(parts, "|") {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

func (a Attributes) Hash() string {
	return Hash(a.parts()...)
}
