// Package dap provides the typed, self-describing value tree used by dapseq
// and the streaming protocol for its row-oriented Sequence type.
//
// The value tree is built from Variables: scalars (Byte through Float64,
// String, URL), Opaque blobs, and Sequences. A Sequence is an open-ended
// collection of rows whose fields are themselves Variables. At most one field
// of a Sequence may be a nested Sequence and it must be the last field.
//
// # Wire format
//
// A Sequence value on the wire is
//
//	(SOI field-bytes*)* EOS
//
// where SOI (0x5A) precedes every transmitted row and EOS (0xA5) terminates
// the sequence. Field bytes are produced by the Marshaller capability; nested
// Sequence fields recursively use the same framing.
//
// # Leaf and parent sequences
//
// Before a transmission starts, the selected sequences are classified top-down
// as leaf (no selected nested Sequence) or parent (exactly one). Only the leaf
// evaluates the row selection. A parent row is written lazily: the first time
// a leaf has a row to emit it walks its ancestor chain and writes each
// ancestor's pending row, root first. A parent row whose descendants never
// accept a row is never written.
//
// Classification, row counters and pending-row flags belong to one
// transmission pass and are reset at the start of every pass, so a tree can
// be reused across requests.
//
// # Back references
//
// Every Variable keeps a weak reference to the Sequence that owns it. The
// reference is used to walk upward during emission and selection; it never
// keeps a Sequence alive.
package dap
