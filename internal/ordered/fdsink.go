//go:build unix

package ordered

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// FDSink writes directly to a file descriptor with one write(2) per call.
// A partial write is reported to the Writer as a short write; the sink does
// not retry.
type FDSink int

// Write implements io.Writer.
func (fd FDSink) Write(p []byte) (int, error) {
	for {
		n, err := syscall.Write(int(fd), p)
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			return max(n, 0), fmt.Errorf("write fd %d: %w", int(fd), err)
		}
		return n, nil
	}
}

// FileSink returns a sink that writes to f's descriptor without the
// buffering and retries of *os.File.
func FileSink(f *os.File) io.Writer {
	return FDSink(f.Fd())
}
