package spacepacket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yobol/go-spacepacket/bitstream"
	"github.com/yobol/go-spacepacket/xtce"
)

// buildAPIDDispatchDefinition describes two concrete packet shapes hung off
// a single abstract root container, dispatched by APID: APID 100 carries a
// 16-bit COUNTER, APID 200 carries an 8-bit STATUS.
func buildAPIDDispatchDefinition(t *testing.T) *xtce.PacketDefinition {
	t.Helper()

	counterType := &xtce.IntegerParameterType{Encoding: &xtce.IntegerDataEncoding{SizeInBits: 16, Encoding: xtce.Unsigned}}
	statusType := &xtce.IntegerParameterType{Encoding: &xtce.IntegerDataEncoding{SizeInBits: 8, Encoding: xtce.Unsigned}}

	b := xtce.NewBuilder()
	for _, p := range xtce.StandardHeaderParameters() {
		b.AddParameter(p)
	}
	b.AddParameterType("COUNTER_TYPE", counterType)
	b.AddParameterType("STATUS_TYPE", statusType)
	b.AddParameter(&xtce.Parameter{Name: "COUNTER", Type: counterType})
	b.AddParameter(&xtce.Parameter{Name: "STATUS", Type: statusType})

	root := &xtce.SequenceContainer{
		Name:     "CCSDS_PACKET",
		Abstract: true,
	}
	xtce.PrependHeaderEntries(root)
	b.AddContainer(root)

	b.AddContainer(&xtce.SequenceContainer{
		Name:          "PACKET_A",
		BaseContainer: "CCSDS_PACKET",
		Entries:       []xtce.Entry{xtce.ParameterEntry("COUNTER")},
		RestrictionCriteria: []xtce.MatchCriteria{
			&xtce.Comparison{ParameterName: "APID", Operator: xtce.OpEQ, RequiredValue: int64(100)},
		},
	})
	b.AddContainer(&xtce.SequenceContainer{
		Name:          "PACKET_B",
		BaseContainer: "CCSDS_PACKET",
		Entries:       []xtce.Entry{xtce.ParameterEntry("STATUS")},
		RestrictionCriteria: []xtce.MatchCriteria{
			&xtce.Comparison{ParameterName: "APID", Operator: xtce.OpEQ, RequiredValue: int64(200)},
		},
	})
	b.SetRootContainer("CCSDS_PACKET")

	def, err := b.Build()
	require.NoError(t, err)
	return def
}

// packetBytes assembles a minimal CCSDS packet: a 6-byte primary header
// (version 0, type 0, no secondary header, the given apid, seq flags 3,
// sequence count 0) followed by payload.
func packetBytes(apid uint16, payload []byte) []byte {
	dataLength := uint16(len(payload) - 1)
	buf := make([]byte, PrimaryHeaderSizeBytes+len(payload))
	buf[0] = byte(apid>>8) & 0x07 // version/type/sec hdr flag all zero
	buf[1] = byte(apid)
	buf[2] = 0xC0 // seq flags = 11 (unsegmented), sequence count high bits 0
	buf[3] = 0x00
	buf[4] = byte(dataLength >> 8)
	buf[5] = byte(dataLength)
	copy(buf[PrimaryHeaderSizeBytes:], payload)
	return buf
}

func TestGenerator_APIDDispatch(t *testing.T) {
	def := buildAPIDDispatchDefinition(t)

	pktA := packetBytes(100, []byte{0x12, 0x34})
	pktB := packetBytes(200, []byte{0x99})

	src := bitstream.NewMemorySource(append(append([]byte{}, pktA...), pktB...))
	gen := NewGenerator(src, def)

	ctx := context.Background()

	p1, err := gen.Next(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 100, p1.Header.APID)
	v, ok := p1.Values.Get("COUNTER")
	require.True(t, ok)
	require.EqualValues(t, 0x1234, v.Raw)

	p2, err := gen.Next(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 200, p2.Header.APID)
	v, ok = p2.Values.Get("STATUS")
	require.True(t, ok)
	require.EqualValues(t, 0x99, v.Raw)

	_, err = gen.Next(ctx)
	require.ErrorIs(t, err, bitstream.ErrEOF)

	require.Equal(t, 2, gen.PacketsRead())
}

func TestGenerator_MidPacketTruncation(t *testing.T) {
	def := buildAPIDDispatchDefinition(t)
	full := packetBytes(100, []byte{0x00, 0x2A})
	// Drop the last byte: the header parses cleanly (it claims 2 bytes of
	// payload) but the body read comes up short.
	truncated := full[:len(full)-1]

	src := bitstream.NewMemorySource(truncated)
	gen := NewGenerator(src, def)

	_, err := gen.Next(context.Background())
	require.ErrorIs(t, err, ErrTruncated)
}

func TestGenerator_UnrecognizedAPID(t *testing.T) {
	def := buildAPIDDispatchDefinition(t)
	pkt := packetBytes(300, []byte{0x01})

	src := bitstream.NewMemorySource(pkt)
	gen := NewGenerator(src, def)

	_, err := gen.Next(context.Background())
	require.ErrorIs(t, err, ErrUnrecognizedAPID)
}

func TestGenerator_YieldUnrecognizedAPIDs(t *testing.T) {
	def := buildAPIDDispatchDefinition(t)
	pkt := packetBytes(300, []byte{0x01})

	src := bitstream.NewMemorySource(pkt)
	gen := NewGenerator(src, def, WithUnrecognizedAPIDs(true))

	p, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 300, p.Header.APID)
	require.Equal(t, 0, p.Values.Len()-7) // only the 7 header fields parsed
}

func TestGenerator_SkipHeaderBytes(t *testing.T) {
	def := buildAPIDDispatchDefinition(t)
	pkt := packetBytes(100, []byte{0x00, 0x2A})
	framed := append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, pkt...)

	src := bitstream.NewMemorySource(framed)
	gen := NewGenerator(src, def, WithSkipHeaderBytes(4))

	p, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 100, p.Header.APID)
	v, ok := p.Values.Get("COUNTER")
	require.True(t, ok)
	require.EqualValues(t, 0x2A, v.Raw)
}

func TestGenerator_ProgressCallback(t *testing.T) {
	def := buildAPIDDispatchDefinition(t)
	pkt := packetBytes(100, []byte{0x00, 0x01})

	var gotPackets int
	var gotBytes int64
	src := bitstream.NewMemorySource(pkt)
	gen := NewGenerator(src, def, WithProgress(func(packetsRead int, bytesRead int64) {
		gotPackets = packetsRead
		gotBytes = bytesRead
	}))

	_, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, gotPackets)
	require.EqualValues(t, len(pkt), gotBytes)
}
