package client

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// SetBody attaches a text body. An empty contentType means MediaTypeTextPlain.
func (r *Request) SetBody(content string, contentType MediaType) *Request {
	if contentType == "" {
		contentType = MediaTypeTextPlain
	}
	r.body = &content
	r.bodyType = string(contentType)
	return r
}

// SetBodyFile reads path as UTF-8 text and attaches it as the body. Stray
// invalid bytes become U+FFFD. Files that are mostly invalid UTF-8 are
// transcoded from their detected charset.
func (r *Request) SetBodyFile(path string, contentType MediaType) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read the request body file %s: %w", path, err)
	}

	text, err := toUTF8(data)
	if err != nil {
		return fmt.Errorf("failed to read the request body file %s: %w", path, err)
	}

	r.SetBody(text, contentType)
	return nil
}

// Body returns the attached body and whether one is set
func (r *Request) Body() (string, bool) {
	if r.body == nil {
		return "", false
	}
	return *r.body, true
}

// minTranscodeConfidence is the chardet confidence below which a
// non-UTF-8 file is read as windows-1252.
const minTranscodeConfidence = 90

func toUTF8(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if !mostlyInvalid(data) {
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}

	label := detectCharset(data)
	reader, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported charset %q: %w", label, err)
	}

	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// mostlyInvalid reports whether invalid bytes outnumber valid multibyte
// runes, which marks a legacy single-byte file rather than damaged UTF-8.
func mostlyInvalid(data []byte) bool {
	var valid, invalid int
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		switch {
		case r == utf8.RuneError && size <= 1:
			invalid++
		case size > 1:
			valid++
		}
		data = data[size:]
	}
	return invalid > valid
}

func detectCharset(data []byte) string {
	const fallback = "windows-1252"

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil || result.Confidence < minTranscodeConfidence {
		return fallback
	}
	label := strings.ToLower(result.Charset)
	if label == "utf-8" || strings.HasPrefix(label, "utf-16") || strings.HasPrefix(label, "utf-32") {
		return fallback
	}
	return label
}
