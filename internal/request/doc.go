// Package request models one data request: the dataset it targets and the
// constraint it carries, plus a stable fingerprint and a request ID.
//
// The fingerprint is a SHA-256 over the canonical JSON form of the request
// (RFC 8785 key order, NFC-normalized strings) with a domain prefix, so two
// requests that differ only in map ordering or Unicode normalization share
// one fingerprint. Request IDs are UUIDv7 in production and fixed sequences
// in tests.
package request
