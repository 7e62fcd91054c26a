package spacepacket

import "github.com/gravitational/trace"

// ErrUnrecognizedAPID is returned by Generator.Next when a packet's APID has
// no corresponding container and the generator was not configured with
// WithUnrecognizedAPIDs(true).
var ErrUnrecognizedAPID = trace.NotFound("no container matches this packet's APID")

// ErrTruncated is the sentinel wrapped by every truncationErrorf result, so
// callers can use errors.Is(err, ErrTruncated) to distinguish a stream that
// died mid-packet from bitstream.ErrEOF/ErrTimeout occurring cleanly between
// packets.
var ErrTruncated = trace.LimitExceeded("packet truncated mid-stream")

func truncationErrorf(format string, args ...interface{}) error {
	return trace.Wrap(ErrTruncated, format, args...)
}
