package spacepacket

import (
	"github.com/gravitational/trace"
	"github.com/yobol/go-spacepacket/bitstream"
)

// PrimaryHeaderSizeBytes is the fixed size of a CCSDS Space Packet primary
// header: every packet starts with exactly these 48 bits.
const PrimaryHeaderSizeBytes = 6

// PrimaryHeader is the fixed 6-byte CCSDS Space Packet primary header.
type PrimaryHeader struct {
	Version      uint8  // 3 bits, always 0 for CCSDS packets
	Type         uint8  // 1 bit: 0 = telemetry, 1 = telecommand
	SecHdrFlag   bool   // 1 bit: secondary header present
	APID         uint16 // 11 bits: application process identifier
	SeqFlags     uint8  // 2 bits: segmentation flags
	SeqCount     uint16 // 14 bits: sequence count or packet name
	DataLength   uint16 // 16 bits: (total packet length) - 7
}

// PacketLength returns the total on-wire length of the packet this header
// describes, primary header included: DataLength + 7.
func (h PrimaryHeader) PacketLength() int {
	return int(h.DataLength) + 7
}

// ParsePrimaryHeader decodes the 6-byte CCSDS primary header from buf, which
// must contain at least PrimaryHeaderSizeBytes bytes.
func ParsePrimaryHeader(buf []byte) (PrimaryHeader, error) {
	if len(buf) < PrimaryHeaderSizeBytes {
		return PrimaryHeader{}, trace.BadParameter("primary header requires %d bytes, got %d", PrimaryHeaderSizeBytes, len(buf))
	}
	cur := bitstream.NewCursor(buf[:PrimaryHeaderSizeBytes])

	version, err := cur.ReadUint(3)
	if err != nil {
		return PrimaryHeader{}, trace.Wrap(err)
	}
	typ, err := cur.ReadUint(1)
	if err != nil {
		return PrimaryHeader{}, trace.Wrap(err)
	}
	secHdr, err := cur.ReadUint(1)
	if err != nil {
		return PrimaryHeader{}, trace.Wrap(err)
	}
	apid, err := cur.ReadUint(11)
	if err != nil {
		return PrimaryHeader{}, trace.Wrap(err)
	}
	seqFlags, err := cur.ReadUint(2)
	if err != nil {
		return PrimaryHeader{}, trace.Wrap(err)
	}
	seqCount, err := cur.ReadUint(14)
	if err != nil {
		return PrimaryHeader{}, trace.Wrap(err)
	}
	dataLength, err := cur.ReadUint(16)
	if err != nil {
		return PrimaryHeader{}, trace.Wrap(err)
	}

	return PrimaryHeader{
		Version:    uint8(version),
		Type:       uint8(typ),
		SecHdrFlag: secHdr == 1,
		APID:       uint16(apid),
		SeqFlags:   uint8(seqFlags),
		SeqCount:   uint16(seqCount),
		DataLength: uint16(dataLength),
	}, nil
}
