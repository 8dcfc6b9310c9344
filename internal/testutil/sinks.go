package testutil

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// ErrSinkBroken is returned by FailingSink once it starts failing.
var ErrSinkBroken = errors.New("sink broken")

// WriteRecord is one call to a RecordingSink.
type WriteRecord struct {
	Data  []byte
	Start time.Time
	End   time.Time
}

// RecordingSink keeps every write with its start and end time. Delay holds
// each write open so that overlapping writes would be visible.
//
// Thread-safety: safe for concurrent use.
type RecordingSink struct {
	Delay time.Duration

	mu      sync.Mutex
	writes  []WriteRecord
	active  int
	overlap bool
}

// Write records p.
func (s *RecordingSink) Write(p []byte) (int, error) {
	start := time.Now()
	s.mu.Lock()
	s.active++
	if s.active > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	s.writes = append(s.writes, WriteRecord{
		Data:  append([]byte(nil), p...),
		Start: start,
		End:   time.Now(),
	})
	return len(p), nil
}

// Writes returns the recorded writes in completion order.
func (s *RecordingSink) Writes() []WriteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WriteRecord(nil), s.writes...)
}

// Bytes returns the concatenation of all writes.
func (s *RecordingSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b bytes.Buffer
	for _, w := range s.writes {
		b.Write(w.Data)
	}
	return b.Bytes()
}

// Overlapped reports whether two writes were ever in progress at once.
func (s *RecordingSink) Overlapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlap
}

// FailingSink accepts the first OK writes and fails every later one with
// ErrSinkBroken, writing nothing.
//
// Thread-safety: safe for concurrent use.
type FailingSink struct {
	OK int

	mu    sync.Mutex
	calls int
	buf   bytes.Buffer
}

// Write accepts or rejects p.
func (s *FailingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls > s.OK {
		return 0, ErrSinkBroken
	}
	return s.buf.Write(p)
}

// Bytes returns what was accepted.
func (s *FailingSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}
