// Package client contains the client-side building blocks for talking to the
// blog backend.
//
// # Overview
//
// The package provides:
//  1. A generic request interface (Doer) and its HTTP implementation
//     (HTTPClient). An internal RoundTripper attaches the bearer token set
//     with SetToken to every outgoing request until ClearToken is called.
//  2. The typed blog API (Client): Login, Me, Logout, Register,
//     ForgotPassword, profile and article calls, Ping.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring a
//     SQLite file and applying embedded goose migrations.
//
// # Error Handling
//
// Non-2xx replies are returned as *HTTPError and failures to obtain a reply
// as *TransportError. Both match the sentinels ErrUnauthorized, ErrNotFound
// and ErrUnavailable through errors.Is. Undecodable bodies wrap
// ErrMalformedResponse.
//
// HTTPClient is safe for concurrent use.
package client
