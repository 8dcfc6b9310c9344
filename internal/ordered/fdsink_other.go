//go:build !unix

package ordered

import (
	"io"
	"os"
)

// FileSink returns f itself on platforms without raw descriptor writes.
func FileSink(f *os.File) io.Writer {
	return f
}
