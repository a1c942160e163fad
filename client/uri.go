package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var knownSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// illegal in every URI component, escaped or not
const illegalURIChars = "\"<>\\^`{|}"

// CreateURI joins base URL and endpoint with exactly one slash between them.
// Query parameters are not included.
func (r *Request) CreateURI() (*url.URL, error) {
	raw := joinURL(r.baseURL, r.endpoint)

	scheme, _, found := strings.Cut(raw, "://")
	if !found || !knownSchemes[strings.ToLower(scheme)] {
		return nil, fmt.Errorf("%w: unknown protocol in %q", ErrMalformedURL, raw)
	}

	if err := checkURISyntax(raw); err != nil {
		return nil, err
	}

	uri, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrURISyntax, err)
	}

	if uri.Hostname() == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrMalformedURL, raw)
	}

	if p := uri.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 0 || port > 65535 {
			return nil, fmt.Errorf("%w: port out of range in %q", ErrMalformedURL, raw)
		}
	}

	return uri, nil
}

// addParametersToURI returns a copy of uri carrying the encoded parameters
func (r *Request) addParametersToURI(uri *url.URL) *url.URL {
	out := *uri
	query := EncodeParams(r.params)

	switch {
	case query == "":
	case out.RawQuery == "":
		out.RawQuery = query
	default:
		out.RawQuery += "&" + query
	}
	return &out
}

// EncodeParams form-encodes params in order
func EncodeParams(params []Param) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

func joinURL(baseURL, endpoint string) string {
	switch {
	case endpoint == "":
		return baseURL
	case strings.HasPrefix(endpoint, "/"):
		return baseURL + endpoint
	default:
		return baseURL + "/" + endpoint
	}
}

func checkURISyntax(raw string) error {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c <= ' ' || c == 0x7f:
			return fmt.Errorf("%w: illegal character %q at index %d in %q", ErrURISyntax, c, i, raw)
		case strings.IndexByte(illegalURIChars, c) >= 0:
			return fmt.Errorf("%w: illegal character %q at index %d in %q", ErrURISyntax, c, i, raw)
		case c == '%':
			if i+2 >= len(raw) || !isHex(raw[i+1]) || !isHex(raw[i+2]) {
				return fmt.Errorf("%w: malformed escape at index %d in %q", ErrURISyntax, i, raw)
			}
		}
	}
	return nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
