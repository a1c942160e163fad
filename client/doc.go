// Package client builds and executes HTTP requests against the build server.
//
// The package is split in two halves:
//   - Request: accumulates method, base URL, endpoint, query parameters, headers
//     and body, and materializes them into a PreparedRequest
//   - Transport: executes a PreparedRequest and returns a ResponseEntity
//
// Two transports are provided. Client is a shared, reusable resty client that can
// be closed and recreated while other goroutines use it. Ephemeral builds a fresh
// client for every call.
//
// Transports never interpret status codes. A 404 or 503 comes back as a normal
// ResponseEntity and the caller decides what success means for its endpoint.
// Redirects are not followed, so 302 responses reach the caller too.
//
// Example Usage:
//
//	transport := client.NewClient(client.WithLogger(logger))
//	defer transport.Close()
//
//	resp, err := client.NewRequest(client.MethodGet, transport).
//		SetBaseURL("http://jenkins:8080/").
//		SetEndpoint("/api/json").
//		SetBasicAuth("user", "token").
//		Perform(ctx)
package client
