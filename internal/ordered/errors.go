package ordered

import "errors"

var (
	// ErrShortWrite is recorded when the sink accepts fewer bytes than given
	// without reporting an error.
	ErrShortWrite = errors.New("ordered: short write")

	// ErrBufferReleased is returned when a Buffer is submitted a second time.
	ErrBufferReleased = errors.New("ordered: buffer already submitted")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("ordered: writer closed")

	// ErrInvalidPrefix is returned when the skipped prefix is negative or
	// longer than the buffer.
	ErrInvalidPrefix = errors.New("ordered: invalid prefix length")
)
