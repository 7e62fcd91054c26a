package xtce

import (
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
	"github.com/yobol/go-spacepacket/bitstream"
)

func TestIntegerDataEncoding_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		bits     []byte
		size     int
		encoding IntegerEncoding
		order    ByteOrder
		want     interface{}
	}{
		{"unsigned big endian byte", []byte{0xFF}, 8, Unsigned, BigEndian, uint64(0xFF)},
		{"twos complement negative byte", []byte{0xFF}, 8, TwosComplement, BigEndian, int64(-1)},
		{"twos complement positive byte", []byte{0x7F}, 8, TwosComplement, BigEndian, int64(127)},
		{"sign magnitude negative", []byte{0x81}, 8, SignMagnitude, BigEndian, int64(-1)},
		{"little endian unsigned 16", []byte{0x34, 0x12}, 16, Unsigned, LittleEndian, uint64(0x1234)},
		{"little endian twos complement 16 negative", []byte{0xFF, 0xFF}, 16, TwosComplement, LittleEndian, int64(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := bitstream.NewCursor(tt.bits)
			enc := &IntegerDataEncoding{SizeInBits: tt.size, Encoding: tt.encoding, ByteOrder: tt.order}
			raw, derived, err := enc.Decode(cur, staticValueSource{})
			require.NoError(t, err)
			require.Equal(t, tt.want, raw)
			require.Equal(t, tt.want, derived) // no calibrator: derived == raw
		})
	}
}

func TestIntegerDataEncoding_WithPolynomialCalibrator(t *testing.T) {
	enc := &IntegerDataEncoding{
		SizeInBits: 8,
		Encoding:   Unsigned,
		DefaultCalibrator: &PolynomialCalibrator{Terms: []PolynomialTerm{
			{Coefficient: 2, Exponent: 1},
			{Coefficient: 1, Exponent: 0},
		}},
	}
	cur := bitstream.NewCursor([]byte{10})
	raw, derived, err := enc.Decode(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, uint64(10), raw)
	require.Equal(t, float64(21), derived) // 2*10 + 1
}

func TestFloatDataEncoding_IEEE754(t *testing.T) {
	// 1.5f in IEEE-754 binary32, big endian: 0x3FC00000
	cur := bitstream.NewCursor([]byte{0x3F, 0xC0, 0x00, 0x00})
	enc := &FloatDataEncoding{SizeInBits: 32, Kind: IEEE754, ByteOrder: BigEndian}
	raw, derived, err := enc.Decode(cur, staticValueSource{})
	require.NoError(t, err)
	require.InDelta(t, 1.5, raw.(float64), 1e-9)
	require.InDelta(t, 1.5, derived.(float64), 1e-9)
}

func TestFloatDataEncoding_MIL1750A(t *testing.T) {
	// mantissa=0x400000, exponent=1: value = mantissa_signed * 2^(1-23) = 1.0.
	// Use mantissa = 0x400000 as a positive half-scale value: since bit 23
	// (the MSB of the 24-bit field) is the sign bit, 0x400000 has that bit
	// clear, so it decodes as a positive two's complement mantissa.
	mantissa := int64(0x400000)
	exponent := int64(1)
	word := (uint32(mantissa&0xFFFFFF) << 8) | uint32(exponent&0xFF)
	b := []byte{byte(word >> 24), byte(word >> 16), byte(word >> 8), byte(word)}

	cur := bitstream.NewCursor(b)
	enc := &FloatDataEncoding{SizeInBits: 32, Kind: MIL1750A, ByteOrder: BigEndian}
	raw, _, err := enc.Decode(cur, staticValueSource{})
	require.NoError(t, err)

	want := float64(mantissa) * pow(2, float64(exponent)-23)
	require.InDelta(t, want, raw.(float64), 1e-9)
}

func TestStringDataEncoding_FixedSize(t *testing.T) {
	cur := bitstream.NewCursor([]byte("HELLO"))
	enc := &StringDataEncoding{Size: FixedSize{Bits_: 5 * 8}, Charset: USASCII}
	raw, derived, err := enc.Decode(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, []byte("HELLO"), raw)
	require.Equal(t, "HELLO", derived)
}

func TestStringDataEncoding_Terminated(t *testing.T) {
	buf := append([]byte("ABC"), 0x00)
	buf = append(buf, 0xFF) // trailing byte after the string, must not be consumed
	cur := bitstream.NewCursor(buf)
	enc := &StringDataEncoding{Terminator: []byte{0x00}, Charset: USASCII}
	raw, derived, err := enc.Decode(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, []byte("ABC"), raw)
	require.Equal(t, "ABC", derived)
	require.Equal(t, 32, cur.Pos()) // 3 bytes string + 1 byte terminator
}

func TestStringDataEncoding_UTF16BE(t *testing.T) {
	// "HI" in UTF-16BE.
	buf := []byte{0x00, 'H', 0x00, 'I'}
	cur := bitstream.NewCursor(buf)
	enc := &StringDataEncoding{Size: FixedSize{Bits_: len(buf) * 8}, Charset: UTF16BE}
	_, derived, err := enc.Decode(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, "HI", derived)
}

func TestBinaryDataEncoding_LeadingSize(t *testing.T) {
	// 8-bit length field holding 24 (bits), followed by 3 bytes of payload.
	buf := []byte{24, 0xDE, 0xAD, 0xBE}
	cur := bitstream.NewCursor(buf)
	enc := &BinaryDataEncoding{Size: LeadingSize{SizeOfLengthFieldBits: 8}}
	raw, derived, err := enc.Decode(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE}, raw)
	require.Nil(t, derived)
}

func TestDynamicSize_WithLinearAdjuster(t *testing.T) {
	values := staticValueSource{"LEN_FIELD": [2]interface{}{int64(2), int64(2)}}
	size := DynamicSize{ParameterName: "LEN_FIELD", Adjuster: &LinearAdjuster{Slope: 8, Intercept: 0}}
	bits, err := size.Bits(nil, values)
	require.NoError(t, err)
	require.Equal(t, 16, bits) // 2 bytes worth, expressed via the 8x bits-per-byte adjuster
}

func TestEnumeratedParameterType_UnknownRawValue(t *testing.T) {
	typ := &EnumeratedParameterType{
		Encoding: &IntegerDataEncoding{SizeInBits: 8, Encoding: Unsigned},
		Enum:     map[int64]string{0: "OFF", 1: "ON"},
	}
	cur := bitstream.NewCursor([]byte{99})
	_, _, err := typ.ParseValue(cur, staticValueSource{})
	require.Error(t, err)
	require.True(t, trace.IsNotFound(err))
}

func TestEnumeratedParameterType_RawNotCalibrated(t *testing.T) {
	// Enumeration always keys off the raw value, even when the underlying
	// integer encoding also carries a calibrator.
	typ := &EnumeratedParameterType{
		Encoding: &IntegerDataEncoding{
			SizeInBits: 8,
			Encoding:   Unsigned,
			DefaultCalibrator: &PolynomialCalibrator{Terms: []PolynomialTerm{
				{Coefficient: 100, Exponent: 1},
			}},
		},
		Enum: map[int64]string{1: "ON"},
	}
	cur := bitstream.NewCursor([]byte{1})
	raw, derived, err := typ.ParseValue(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, uint64(1), raw)
	require.Equal(t, "ON", derived)
}
