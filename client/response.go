package client

import (
	"bytes"
	"html"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/charset"
)

const maxSummaryRunes = 512

// ResponseEntity is the status, body and headers of a completed call
type ResponseEntity struct {
	statusCode int
	body       string
	headers    http.Header
}

// NewResponseEntity creates a response. headers is cloned.
func NewResponseEntity(statusCode int, body string, headers http.Header) *ResponseEntity {
	return &ResponseEntity{
		statusCode: statusCode,
		body:       body,
		headers:    headers.Clone(),
	}
}

// StatusCode returns the HTTP status code
func (e *ResponseEntity) StatusCode() int {
	return e.statusCode
}

// StatusCodeValue returns the status code with its reason phrase, e.g. "201 Created"
func (e *ResponseEntity) StatusCodeValue() string {
	text := http.StatusText(e.statusCode)
	if text == "" {
		return strconv.Itoa(e.statusCode)
	}
	return strconv.Itoa(e.statusCode) + " " + text
}

// Body returns the full response body as text
func (e *ResponseEntity) Body() string {
	return e.body
}

// Headers returns a copy of the response headers
func (e *ResponseEntity) Headers() http.Header {
	return e.headers.Clone()
}

// Header returns the first value of key
func (e *ResponseEntity) Header(key string) string {
	return e.headers.Get(key)
}

// Summary returns a short plain-text rendition of the body for error
// messages. HTML error pages are reduced to their title and first heading.
func (e *ResponseEntity) Summary() string {
	if e.body == "" {
		return ""
	}
	if !isHTML(e.headers.Get(HeaderContentType), e.body) {
		return truncate(collapse(e.body))
	}
	return truncate(summarizeHTML(e.body))
}

func summarizeHTML(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		detail := strings.TrimSpace(doc.Find("#error-description, h1, h2, p").First().Text())

		parts := make([]string, 0, 2)
		if title != "" {
			parts = append(parts, title)
		}
		if detail != "" && detail != title {
			parts = append(parts, detail)
		}
		if len(parts) > 0 {
			return collapse(strings.Join(parts, ": "))
		}
	}

	text := bluemonday.StrictPolicy().Sanitize(body)
	return collapse(html.UnescapeString(text))
}

func isHTML(contentType, body string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType == "text/html" || mediaType == "application/xhtml+xml"
	}
	head := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxSummaryRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxSummaryRunes]) + "..."
}

// decodeBody converts raw to UTF-8 when contentType declares another charset
func decodeBody(raw []byte, contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(raw)
	}

	label := strings.ToLower(params["charset"])
	if label == "" || label == "utf-8" || label == "utf8" {
		return string(raw)
	}

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
