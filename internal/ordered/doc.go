// Package ordered writes byte buffers to a sink while the producer keeps
// computing the next one.
//
// A Writer allows at most one write in flight. Submit waits for the previous
// write to finish before handing the next buffer to a fresh goroutine, so
// writes reach the sink in submission order and never overlap.
//
// Failures of the background write are not returned by the Submit that
// started it. They are kept in the writer's error slot and surface through
// Err or Close:
//
//	w := ordered.NewWriter(conn)
//	for _, chunk := range chunks {
//	    if err := w.Submit(ordered.NewBuffer(chunk)); err != nil {
//	        return err // misuse only: closed writer, reused buffer
//	    }
//	}
//	return w.Close() // drains, then reports the first write error
//
// Buffers are owned by exactly one side at a time. Once submitted, a Buffer
// belongs to the writer; its bytes are dropped when the write completes and
// any second submission fails with ErrBufferReleased.
package ordered
