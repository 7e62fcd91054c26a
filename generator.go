package spacepacket

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/yobol/go-spacepacket/bitstream"
	"github.com/yobol/go-spacepacket/xtce"
)

// Option configures a Generator. Follows the teacher's "(o *ClientOption)
// SetX(...) *ClientOption" builder shape, adapted to the more common
// functional-options idiom so zero or more can be passed variadically to
// NewGenerator.
type Option func(*Generator)

// WithRootContainer overrides the definition's configured root container —
// useful when one PacketDefinition describes packets that enter decoding
// from more than one place (e.g. a test harness that starts mid-stream at a
// known container instead of the real top-level dispatch container).
func WithRootContainer(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.rootContainerName = name
		}
	}
}

// WithSkipHeaderBytes causes the generator to discard n bytes before each
// packet's primary header — for framed streams that prefix every packet
// with a non-CCSDS length or timestamp envelope.
func WithSkipHeaderBytes(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.skipHeaderBytes = n
		}
	}
}

// WithBufferReadSize sets the chunk size used by the convenience
// constructors (NewFileGenerator, NewSocketGenerator) when they build their
// own bitstream.Source internally. It has no effect when a Source is
// supplied directly to NewGenerator, since that Source already owns its
// chunk size.
func WithBufferReadSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.bufferReadSizeBytes = n
		}
	}
}

// WithProgress registers a callback invoked after every successfully
// decoded packet with the running packet and byte counts.
func WithProgress(fn func(packetsRead int, bytesRead int64)) Option {
	return func(g *Generator) {
		g.progress = fn
	}
}

// WithUnrecognizedAPIDs controls what happens when a packet's APID matches
// no container: by default Next returns ErrUnrecognizedAPID, but with this
// option set, it instead yields a Packet whose Values holds only whatever
// the abstract root container itself parsed (typically just the primary
// header fields), with a warning logged.
func WithUnrecognizedAPIDs(yield bool) Option {
	return func(g *Generator) {
		g.yieldUnrecognizedAPIDs = yield
	}
}

// Generator decodes one CCSDS space packet at a time off a bitstream.Source
// against a finalized xtce.PacketDefinition.
type Generator struct {
	src bitstream.Source
	def *xtce.PacketDefinition

	rootContainerName      string
	skipHeaderBytes        int
	bufferReadSizeBytes    int
	progress               func(packetsRead int, bytesRead int64)
	yieldUnrecognizedAPIDs bool

	packetsRead int
	bytesRead   int64
}

// NewGenerator builds a Generator reading from src against def. def must
// already be finalized (via xtce.Builder.Build or equivalent).
func NewGenerator(src bitstream.Source, def *xtce.PacketDefinition, opts ...Option) *Generator {
	g := &Generator{
		src:                 src,
		def:                 def,
		rootContainerName:   def.RootContainerName,
		bufferReadSizeBytes: 4096,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next decodes and returns the next packet, blocking (subject to ctx) until
// enough bytes are available. Returns bitstream.ErrEOF once the underlying
// source is cleanly exhausted between packets.
func (g *Generator) Next(ctx context.Context) (*Packet, error) {
	if g.skipHeaderBytes > 0 {
		if _, err := g.src.Ensure(ctx, g.skipHeaderBytes); err != nil {
			return nil, err
		}
		g.src.Consume(g.skipHeaderBytes)
	}

	headerBuf, err := g.src.Ensure(ctx, PrimaryHeaderSizeBytes)
	if err != nil {
		// Some bytes of a header but not all six: the stream died inside a
		// packet, not between packets.
		if errors.Is(err, bitstream.ErrEOF) {
			if _, partialErr := g.src.Ensure(ctx, 1); partialErr == nil {
				return nil, truncationErrorf("stream ended inside a primary header: %v", err)
			}
		}
		return nil, err
	}
	header, err := ParsePrimaryHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	total := header.PacketLength()
	full, err := g.src.Ensure(ctx, total)
	if err != nil {
		// The header already parsed successfully, so an EOF or timeout here
		// means the stream died mid-packet, not between packets: surface it
		// distinctly rather than passing through the clean-end-of-stream
		// error unconverted.
		return nil, truncationErrorf("packet truncated after primary header (wanted %d bytes): %v", total, err)
	}
	packetBytes := make([]byte, total)
	copy(packetBytes, full[:total])
	g.src.Consume(total)

	values := NewParameterValues()
	pkt := &Packet{Raw: packetBytes, Header: header, Values: values}

	cur := bitstream.NewCursor(packetBytes)
	if decodeErr := decodeContainer(g.def, g.rootContainerName, cur, values); decodeErr != nil {
		if !errors.Is(decodeErr, xtce.ErrCoverage) {
			return nil, decodeErr
		}
		if !g.yieldUnrecognizedAPIDs {
			return nil, ErrUnrecognizedAPID
		}
		_lg.WithField("apid", header.APID).Warn("no container's restriction criteria matched this packet; yielding a header-only packet")
	}

	g.packetsRead++
	g.bytesRead += int64(total)
	if g.progress != nil {
		g.progress(g.packetsRead, g.bytesRead)
	}
	return pkt, nil
}

// NewFileGenerator builds a Generator reading from r (typically *os.File) in
// chunks of WithBufferReadSize bytes (4096 by default).
func NewFileGenerator(r io.Reader, def *xtce.PacketDefinition, opts ...Option) *Generator {
	g := NewGenerator(nil, def, opts...)
	g.src = bitstream.NewFileSource(r, g.bufferReadSizeBytes)
	return g
}

// NewSocketGenerator builds a Generator reading from conn in chunks of
// WithBufferReadSize bytes, timing out a Next call that blocks longer than
// readTimeout waiting on new bytes (zero means block indefinitely).
func NewSocketGenerator(conn net.Conn, def *xtce.PacketDefinition, readTimeout time.Duration, opts ...Option) *Generator {
	g := NewGenerator(nil, def, opts...)
	g.src = bitstream.NewSocketSource(conn, g.bufferReadSizeBytes, readTimeout)
	return g
}

// PacketsRead returns the number of packets successfully decoded so far.
func (g *Generator) PacketsRead() int { return g.packetsRead }

// BytesRead returns the total on-wire length of the packets decoded so far;
// bytes discarded by WithSkipHeaderBytes are not counted.
func (g *Generator) BytesRead() int64 { return g.bytesRead }
