// Package wire implements the dap.Marshaller and dap.UnMarshaller
// capabilities for a byte stream.
//
// Scalars use XDR encodings: big-endian, every value padded to a multiple of
// four bytes. Byte, Int16 and UInt16 travel as four-byte integers; strings
// and URLs are a uint32 length followed by the bytes and zero padding.
// Opaque vectors are a uint32 count followed by the padded bytes.
//
// The Sequence markers are the exception: PutOpaque writes its bytes as they
// are, so SOI and EOS each occupy exactly one byte on the wire.
//
// StreamMarshaller collects encoded values into chunks and hands each full
// chunk to an ordered.Writer, so encoding the next rows overlaps with writing
// the previous ones.
package wire
