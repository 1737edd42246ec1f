package raster

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrDataURL is returned by ParseDataURL for malformed input.
var ErrDataURL = errors.New("malformed data URL")

// DataURL returns a base64 data URL for the payload.
func DataURL(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// ParseDataURL splits a data URL into its media type and decoded payload.
// Both base64 and percent encoded payloads are accepted.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrDataURL)
	}
	header, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing comma", ErrDataURL)
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if mime == "" {
		mime = "text/plain;charset=US-ASCII"
	}
	if isBase64 {
		payload, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrDataURL, err)
		}
		return mime, payload, nil
	}
	payload, err := url.PathUnescape(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrDataURL, err)
	}
	return mime, []byte(payload), nil
}
