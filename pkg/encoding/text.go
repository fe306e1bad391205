// Package encoding provides text decoding helpers for strings embedded in map files.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeText converts raw lump text to a UTF-8 string.
// Valid UTF-8 is returned unchanged; anything else is treated as
// Windows-1252, which is what the map compiler writes on Windows hosts.
func DecodeText(data []byte) string {
	data = TrimNullBytes(data)
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// CString returns the NUL-terminated string that starts at data[0].
func CString(data []byte) string {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		data = data[:idx]
	}
	return DecodeText(data)
}
