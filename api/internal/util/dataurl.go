package util

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrNoPayload = errors.New("data URI has no payload")

// SplitDataURL splits data:<mime>;base64,<payload> on its first comma and
// returns the MIME hint from the header along with the payload.
func SplitDataURL(s string) (mime, payload string, err error) {
	s = strings.TrimSpace(s)
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return "", "", ErrNoPayload
	}
	meta := strings.TrimPrefix(s[:idx], "data:") // "<mime>;base64"
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		mime = meta[:semi]
	} else {
		mime = meta
	}
	payload = s[idx+1:]
	if strings.TrimSpace(payload) == "" {
		return mime, "", ErrNoPayload
	}
	return strings.ToLower(strings.TrimSpace(mime)), payload, nil
}

// DecodeBase64 decodes standard base64 and falls back to the unpadded and
// URL-safe alphabets. Whitespace and line breaks are ignored.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b2, err2 := enc.DecodeString(s); err2 == nil {
			return b2, nil
		}
	}
	return nil, err
}
