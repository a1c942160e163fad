package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailed matches every failure that happened before a response arrived
	ErrNetworkFailed = errors.New("network failure")

	// ErrMalformedURL reports an unknown scheme, a missing host or an invalid port
	ErrMalformedURL = fmt.Errorf("%w: malformed URL", ErrNetworkFailed)

	// ErrURISyntax reports characters that are not legal in a URI
	ErrURISyntax = fmt.Errorf("%w: URI syntax", ErrNetworkFailed)

	// ErrClientClosed is returned by a closed Client until it is recreated
	ErrClientClosed = fmt.Errorf("%w: client is closed", ErrNetworkFailed)
)
