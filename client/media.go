package client

// Method is an HTTP verb supported by Request
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

func (m Method) String() string {
	return string(m)
}

// MediaType is a Content-Type value
type MediaType string

// Media types used by the build server endpoints
const (
	MediaTypeApplicationXML  MediaType = "application/xml"
	MediaTypeApplicationJSON MediaType = "application/json"
	MediaTypeFormURLEncoded  MediaType = "application/x-www-form-urlencoded"
	MediaTypeTextXML         MediaType = "text/xml"
	MediaTypeTextPlain       MediaType = "text/plain; charset=utf-8"
)

func (m MediaType) String() string {
	return string(m)
}

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderUserAgent     = "User-Agent"
)
