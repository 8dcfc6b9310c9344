// Package store provides SQLite-backed row sources and the response log.
//
// Data tables hold the rows behind each sequence level of a dataset. A
// TableReader reads one level: for a nested level it selects the rows whose
// parent_key column matches the current value of the parent's key field.
//
// The response log is append-only and records every transmission:
//   - request_id: unique per request (UUIDv7 in production)
//   - fingerprint: content hash of dataset + constraint
//   - rows and bytes written, and the error text if the response failed
//
// All log queries order by seq ASC, request_id ASC COLLATE BINARY so that
// listings are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
