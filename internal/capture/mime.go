package capture

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// allowedImageTypes is the set of MIME types accepted for screenshots.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// AllowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func AllowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

var errNotDataURL = errors.New("frame is not a base64 data URL")

// DecodeDataURL decodes "data:<mime>;base64,<payload>" as produced by
// canvas.toDataURL. The declared MIME type is returned but callers should
// trust the sniffed type instead.
func DecodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, "", errNotDataURL
	}
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return nil, "", errNotDataURL
	}
	meta := s[len("data:"):idx]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", errNotDataURL
	}
	declared := strings.TrimSuffix(meta, ";base64")

	payload := s[idx+1:]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some browsers emit URL-safe alphabets.
		if alt, altErr := base64.URLEncoding.DecodeString(payload); altErr == nil {
			return alt, declared, nil
		}
		return nil, "", err
	}
	return data, declared, nil
}
