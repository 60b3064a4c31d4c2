package api

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeText base64-encodes s for the wire.
func EncodeText(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// DecodeText reverses EncodeText. Embedded whitespace and missing padding
// are tolerated.
func DecodeText(s string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimRight(cleaned, "=")
	b, err := base64.RawStdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", fmt.Errorf("decoding base64 text: %w", err)
	}
	return string(b), nil
}
