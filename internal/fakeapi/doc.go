// Package fakeapi is an in-memory stand-in for the Musify authentication
// API. It speaks the same JSON contract as the real backend (api/auth/*,
// api/users/me), signs EdDSA access tokens, rotates opaque refresh tokens,
// supports TOTP second factors and rate-limits verification resends.
//
// It backs the SDK's integration tests, the e2e suite and the
// `musify mock-server` command. It is test tooling and keeps all state in
// memory.
package fakeapi
