// Package auth issues and validates API keys. Keys are HMAC-SHA256 signed
// JWTs of type "api_key" that carry the owner's username, an admin flag and
// a per-minute request limit, so validating a key needs no lookup beyond an
// in-memory revocation set.
package auth
