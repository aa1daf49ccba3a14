package auth

import (
	"encoding/base64"
	"errors"
	"strings"
)

const basicScheme = "basic "

// ErrMalformedCredentials is returned for a missing or unparsable Basic header.
var ErrMalformedCredentials = errors.New("malformed basic credentials")

// ParseBasicCredentials decodes an "Authorization: Basic base64(email:password)" value.
// Only the first colon separates email from password, so passwords may contain colons.
func ParseBasicCredentials(header string) (email, password string, err error) {
	header = strings.TrimSpace(header)
	if len(header) < len(basicScheme) || !strings.EqualFold(header[:len(basicScheme)], basicScheme) {
		return "", "", ErrMalformedCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(basicScheme):]))
	if err != nil {
		return "", "", ErrMalformedCredentials
	}

	email, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", ErrMalformedCredentials
	}
	return NormalizeEmail(email), password, nil
}
