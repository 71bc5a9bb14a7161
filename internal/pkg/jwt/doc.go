// Package jwt is helpers for working with JSON Web Tokens (JWT).
//
// It includes:
//   - A typed Claims wrapper around the registered claims.
//   - A symmetric HS512 implementation for generating and verifying
//     short-lived client assertions.
package jwt
