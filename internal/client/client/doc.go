// Package client contains client-side building blocks for the tripkeeper CLI.
//
// # Overview
//
// The package provides:
//  1. HTTPClient, a thin JSON client for the /api/auth endpoints. It keeps the
//     session token after a successful login or verification and sends it as
//     a bearer token on authenticated calls.
//  2. HealthChecker, a gRPC health-probe client used to show whether the
//     server is reachable.
//
// # Error Handling
//
// Transport failures are reported as ErrUnavailable. Non-2xx responses are
// returned as *APIError, which also matches ErrUnauthorized for 401 and
// ErrVerificationRequired when the server asks for a one-time code.
package client
