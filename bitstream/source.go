package bitstream

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/gravitational/trace"
)

/*
Source (Stream Adapter).

Presents a file handle, a non-blocking socket, or an in-memory byte buffer
as an incrementally growable byte buffer. The uniform contract is: "ensure
at least k bytes are available starting at a given absolute byte offset,
returning those bytes; fail with EOF or Timeout if unable." Internal
buffering is opaque to callers; the adapter never consumes past what the
decoder confirms it has used (Consume).
*/
type Source interface {
	// Ensure blocks (subject to ctx) until at least n bytes are buffered
	// starting at the current consumed offset, or returns an error.
	// ErrEOF is returned if the source is exhausted before n bytes are
	// buffered (whether or not some bytes remain); ErrTimeout if a read
	// deadline elapses mid-wait.
	Ensure(ctx context.Context, n int) ([]byte, error)

	// Consume advances the adapter's internal offset by n bytes, which
	// must be <= the length of the last slice returned by Ensure.
	Consume(n int)
}

// ErrEOF reports a clean end of stream with no partial packet pending.
var ErrEOF = trace.Wrap(io.EOF, "stream adapter: end of stream")

// ErrTimeout reports that a blocking read exceeded its deadline.
var ErrTimeout = trace.LimitExceeded("stream adapter: read timed out")

// bufferedSource is the shared incremental-buffer implementation behind
// FileSource, SocketSource, and MemorySource: it grows an internal []byte by
// reading from an io.Reader in chunks of readSize bytes until it holds
// enough to satisfy the current Ensure call or the underlying reader is
// exhausted.
type bufferedSource struct {
	r        io.Reader
	buf      []byte
	readSize int
	deadline time.Duration // zero means block indefinitely
}

func newBufferedSource(r io.Reader, readSize int, deadline time.Duration) *bufferedSource {
	if readSize <= 0 {
		readSize = 4096
	}
	return &bufferedSource{r: r, readSize: readSize, deadline: deadline}
}

func (s *bufferedSource) Ensure(ctx context.Context, n int) ([]byte, error) {
	type readResult struct {
		nb  int
		err error
	}
	for len(s.buf) < n {
		chunk := make([]byte, s.readSize)

		resultCh := make(chan readResult, 1)
		go func() {
			nb, err := s.r.Read(chunk)
			resultCh <- readResult{nb, err}
		}()

		var timeoutCh <-chan time.Time
		if s.deadline > 0 {
			timer := time.NewTimer(s.deadline)
			defer timer.Stop()
			timeoutCh = timer.C
		}

		select {
		case <-ctx.Done():
			return nil, trace.Wrap(ctx.Err())
		case <-timeoutCh:
			return nil, ErrTimeout
		case res := <-resultCh:
			if res.nb > 0 {
				s.buf = append(s.buf, chunk[:res.nb]...)
			}
			if res.err != nil {
				if res.err == io.EOF {
					if len(s.buf) >= n {
						break
					}
					return nil, ErrEOF
				}
				return nil, trace.Wrap(res.err)
			}
		}
	}
	return s.buf[:n], nil
}

func (s *bufferedSource) Consume(n int) {
	if n <= 0 {
		return
	}
	if n > len(s.buf) {
		n = len(s.buf)
	}
	s.buf = s.buf[n:]
}

// FileSource adapts a seekable file-like reader (typically *os.File) into a
// Source. Reads happen synchronously; there is no read timeout.
type FileSource struct {
	*bufferedSource
}

// NewFileSource wraps r, reading readSizeBytes at a time when more data is
// needed. A non-positive readSizeBytes falls back to a 4 KiB default.
func NewFileSource(r io.Reader, readSizeBytes int) *FileSource {
	return &FileSource{newBufferedSource(r, readSizeBytes, 0)}
}

// SocketSource adapts a net.Conn into a Source, enforcing a read deadline
// per Ensure call so a stalled peer surfaces as ErrTimeout rather than
// blocking forever.
type SocketSource struct {
	*bufferedSource
	conn net.Conn
}

// NewSocketSource wraps conn. readSizeBytes governs the chunk size used for
// each underlying Read; timeout bounds how long a single Ensure call may
// wait for new bytes (zero means block indefinitely).
func NewSocketSource(conn net.Conn, readSizeBytes int, timeout time.Duration) *SocketSource {
	return &SocketSource{
		bufferedSource: newBufferedSource(conn, readSizeBytes, timeout),
		conn:           conn,
	}
}

// MemorySource adapts an in-memory byte buffer into a Source. All bytes are
// already available, so Ensure never blocks; it fails with ErrEOF only once
// the buffer is exhausted below the requested size.
type MemorySource struct {
	buf []byte
}

// NewMemorySource wraps buf for direct, non-blocking iteration.
func NewMemorySource(buf []byte) *MemorySource {
	return &MemorySource{buf: buf}
}

func (s *MemorySource) Ensure(_ context.Context, n int) ([]byte, error) {
	if len(s.buf) < n {
		return nil, ErrEOF
	}
	return s.buf[:n], nil
}

func (s *MemorySource) Consume(n int) {
	if n <= 0 {
		return
	}
	if n > len(s.buf) {
		n = len(s.buf)
	}
	s.buf = s.buf[n:]
}
