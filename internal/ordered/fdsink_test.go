//go:build unix

package ordered

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFDSink_WritesToDescriptor(t *testing.T) {
	r, wf, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	w := NewWriter(FDSink(int(wf.Fd())))
	require.NoError(t, w.Submit(NewBuffer([]byte("hello "))))
	require.NoError(t, w.Submit(NewBuffer([]byte("fd"))))
	require.NoError(t, w.Close())
	require.NoError(t, wf.Close())

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello fd", string(got))
}

func TestFDSink_BadDescriptorIsRecorded(t *testing.T) {
	w := NewWriter(FDSink(-1))
	require.NoError(t, w.Submit(NewBuffer([]byte("x"))))

	err := w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write fd -1")
}

func TestFileSink_WritesThroughDescriptor(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "sink")
	require.NoError(t, err)
	defer f.Close()

	w := NewWriter(FileSink(f))
	require.NoError(t, w.Submit(NewBuffer([]byte{0x5A, 0xA5})))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5A, 0xA5}, got)
}
