package xtce

import (
	"encoding/binary"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/yobol/go-spacepacket/bitstream"
)

// ByteOrder selects how a multi-byte field's bits map onto wire bytes.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// IntegerEncoding selects how the raw bits of an integer field are
// interpreted once extracted.
type IntegerEncoding int

const (
	Unsigned IntegerEncoding = iota
	TwosComplement
	SignMagnitude
)

// DataEncoding decodes the next field off a bit cursor, producing a raw
// value and a derived (calibrated, decoded, or otherwise post-processed)
// value. values gives read access to everything already parsed in the
// current packet, for dynamic sizes and context calibration.
type DataEncoding interface {
	Decode(cur *bitstream.Cursor, values ValueSource) (raw, derived interface{}, err error)
}

// SizeSpec computes, in bits, the length of the next String or Binary field.
type SizeSpec interface {
	Bits(cur *bitstream.Cursor, values ValueSource) (int, error)
}

// FixedSize is a size known at definition time.
type FixedSize struct {
	Bits_ int
}

func (f FixedSize) Bits(_ *bitstream.Cursor, _ ValueSource) (int, error) {
	return f.Bits_, nil
}

// LeadingSize reads a length field of sizeOfLengthFieldBits bits immediately
// before the data, whose value is itself the length of the data in bits.
type LeadingSize struct {
	SizeOfLengthFieldBits int
}

func (l LeadingSize) Bits(cur *bitstream.Cursor, _ ValueSource) (int, error) {
	n, err := cur.ReadUint(l.SizeOfLengthFieldBits)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// LinearAdjuster applies slope*x+intercept to a DynamicSize's referenced
// value before using it as a bit count.
type LinearAdjuster struct {
	Slope     float64
	Intercept float64
}

func (a LinearAdjuster) Apply(x float64) float64 {
	return a.Slope*x + a.Intercept
}

// DynamicSize derives the size from another, already-parsed parameter.
type DynamicSize struct {
	ParameterName string
	UseCalibrated bool
	Adjuster      *LinearAdjuster
}

func (d DynamicSize) Bits(_ *bitstream.Cursor, values ValueSource) (int, error) {
	raw, derived, ok := values.Value(d.ParameterName)
	if !ok {
		return 0, ComparisonErrorf("dynamic size referenced parameter %q, which has not been parsed yet", d.ParameterName)
	}
	v := raw
	if d.UseCalibrated {
		v = derived
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, ValidationErrorf("dynamic size on %q: %v", d.ParameterName, err)
	}
	if d.Adjuster != nil {
		f = d.Adjuster.Apply(f)
	}
	return int(f), nil
}

// DiscreteLookupSize picks a size from a table driven by match criteria.
type DiscreteLookupSize struct {
	Lookups []DiscreteLookup
}

func (d DiscreteLookupSize) Bits(_ *bitstream.Cursor, values ValueSource) (int, error) {
	n, err := EvaluateDiscreteLookupList(d.Lookups, values)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// IntegerDataEncoding decodes fixed-width integer fields, with optional
// calibration to a float engineering value.
type IntegerDataEncoding struct {
	SizeInBits        int
	Encoding          IntegerEncoding
	ByteOrder         ByteOrder
	DefaultCalibrator Calibrator
	ContextCalibrators []ContextCalibrator
}

func (e *IntegerDataEncoding) Decode(cur *bitstream.Cursor, values ValueSource) (raw, derived interface{}, err error) {
	bits, err := readIntegerBits(cur, e.SizeInBits, e.ByteOrder)
	if err != nil {
		return nil, nil, err
	}

	switch e.Encoding {
	case Unsigned:
		raw = bits
	case TwosComplement:
		raw = twosComplement(bits, e.SizeInBits)
	case SignMagnitude:
		raw = signMagnitude(bits, e.SizeInBits)
	default:
		return nil, nil, ValidationErrorf("unrecognized integer encoding %d", e.Encoding)
	}

	derived, err = calibrate(raw, e.DefaultCalibrator, e.ContextCalibrators, values)
	return raw, derived, err
}

// FloatEncodingKind distinguishes IEEE-754 from MIL-STD-1750A layout.
type FloatEncodingKind int

const (
	IEEE754 FloatEncodingKind = iota
	MIL1750A
)

// FloatDataEncoding decodes fixed-width floating point fields.
type FloatDataEncoding struct {
	SizeInBits        int // 16, 32, or 64 for IEEE754; always 32 for MIL1750A
	Kind              FloatEncodingKind
	ByteOrder         ByteOrder
	DefaultCalibrator Calibrator
	ContextCalibrators []ContextCalibrator
}

func (e *FloatDataEncoding) Decode(cur *bitstream.Cursor, values ValueSource) (raw, derived interface{}, err error) {
	b, err := cur.ReadBytes(e.SizeInBits)
	if err != nil {
		return nil, nil, err
	}

	var value float64
	switch e.Kind {
	case IEEE754:
		value, err = decodeIEEE754(b, e.SizeInBits, e.ByteOrder)
	case MIL1750A:
		value, err = decodeMIL1750A(b, e.ByteOrder)
	default:
		return nil, nil, ValidationErrorf("unrecognized float encoding kind %d", e.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	raw = value
	derived, err = calibrate(value, e.DefaultCalibrator, e.ContextCalibrators, values)
	return raw, derived, err
}

// BinaryDataEncoding decodes an opaque byte string whose length is
// determined the same way a String field's is (minus termination).
type BinaryDataEncoding struct {
	Size SizeSpec
}

func (e *BinaryDataEncoding) Decode(cur *bitstream.Cursor, values ValueSource) (raw, derived interface{}, err error) {
	n, err := e.Size.Bits(cur, values)
	if err != nil {
		return nil, nil, err
	}
	b, err := cur.ReadBytes(n)
	if err != nil {
		return nil, nil, err
	}
	return b, nil, nil
}

// StringDataEncoding decodes a character-encoded string field, either of a
// computed length or delimited by a terminator byte sequence.
type StringDataEncoding struct {
	Size       SizeSpec // nil if Terminator is set
	Terminator []byte   // nil if Size is set
	Charset    CharacterEncoding
}

func (e *StringDataEncoding) Decode(cur *bitstream.Cursor, values ValueSource) (raw, derived interface{}, err error) {
	var b []byte
	if e.Terminator != nil {
		b, err = readUntilTerminator(cur, e.Terminator)
		if err != nil {
			return nil, nil, err
		}
	} else {
		n, err := e.Size.Bits(cur, values)
		if err != nil {
			return nil, nil, err
		}
		if n%8 != 0 {
			logrus.WithField("bits", n).Warn("string field length is not a whole number of bytes; decoding the zero-padded final byte")
		}
		b, err = cur.ReadBytes(n)
		if err != nil {
			return nil, nil, err
		}
	}
	str, err := e.Charset.Decode(b)
	if err != nil {
		return nil, nil, err
	}
	return b, str, nil
}

// readUntilTerminator scans forward byte by byte looking for pattern,
// returning everything before it and leaving the cursor positioned just past
// the terminator. The cursor must already sit on a byte boundary; a
// non-aligned cursor is rejected with a Validation error.
func readUntilTerminator(cur *bitstream.Cursor, pattern []byte) ([]byte, error) {
	if cur.Pos()%8 != 0 {
		return nil, ValidationErrorf("terminated string field must start byte-aligned, cursor is at bit %d", cur.Pos())
	}
	var out []byte
	for {
		remaining := cur.Remaining()
		if remaining < len(pattern)*8 {
			// Not enough left for a terminator: consume whatever remains as
			// the final, unterminated chunk of the string.
			b, err := cur.ReadBytes(remaining)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
			return out, nil
		}
		startPos := cur.Pos()
		candidate, err := cur.ReadBytes(len(pattern) * 8)
		if err != nil {
			return nil, err
		}
		if bytesEqual(candidate, pattern) {
			return out, nil
		}
		// Not a match: rewind to just after the one byte we're committing
		// to output, and retry from there.
		if err := cur.SetPos(startPos + 8); err != nil {
			return nil, err
		}
		out = append(out, candidate[0])
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// readIntegerBits extracts n bits from cur and, for little-endian fields,
// reverses the byte order of the extracted value before returning it: the
// bits are read off the wire most-significant-bit-first regardless of byte
// order (that's a property of the bit cursor), and little-endian fields
// store their bytes, not their bits, in reverse order.
func readIntegerBits(cur *bitstream.Cursor, n int, order ByteOrder) (uint64, error) {
	val, err := cur.ReadUint(n)
	if err != nil {
		return 0, err
	}
	if order == BigEndian || n <= 8 {
		return val, nil
	}

	nBytes := (n + 7) / 8
	buf := make([]byte, nBytes)
	v := val
	for i := nBytes - 1; i >= 0; i-- {
		buf[i] = byte(v & 0xFF)
		v >>= 8
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	var rev uint64
	for _, b := range buf {
		rev = (rev << 8) | uint64(b)
	}
	return rev, nil
}

func twosComplement(val uint64, bits int) int64 {
	if bits <= 0 || bits > 64 {
		return int64(val)
	}
	if bits == 64 {
		return int64(val)
	}
	signBit := uint64(1) << uint(bits-1)
	if val&signBit != 0 {
		return int64(val) - int64(uint64(1)<<uint(bits))
	}
	return int64(val)
}

func signMagnitude(val uint64, bits int) int64 {
	if bits <= 0 {
		return 0
	}
	signBit := uint64(1) << uint(bits-1)
	magMask := signBit - 1
	mag := int64(val & magMask)
	if val&signBit != 0 {
		return -mag
	}
	return mag
}

func decodeIEEE754(b []byte, sizeInBits int, order ByteOrder) (float64, error) {
	switch sizeInBits {
	case 16:
		var u uint16
		if order == BigEndian {
			u = binary.BigEndian.Uint16(b)
		} else {
			u = binary.LittleEndian.Uint16(b)
		}
		return float64(float16ToFloat32(u)), nil
	case 32:
		var u uint32
		if order == BigEndian {
			u = binary.BigEndian.Uint32(b)
		} else {
			u = binary.LittleEndian.Uint32(b)
		}
		return float64(math.Float32frombits(u)), nil
	case 64:
		var u uint64
		if order == BigEndian {
			u = binary.BigEndian.Uint64(b)
		} else {
			u = binary.LittleEndian.Uint64(b)
		}
		return math.Float64frombits(u), nil
	default:
		return 0, ValidationErrorf("unsupported IEEE-754 float size %d bits", sizeInBits)
	}
}

// decodeMIL1750A decodes the 32-bit MIL-STD-1750A layout: a 24-bit two's
// complement mantissa (its top bit is the overall sign, never peeled off
// separately) followed by an 8-bit two's complement exponent, such that
// value = mantissa * 2^(exponent-23).
func decodeMIL1750A(b []byte, order ByteOrder) (float64, error) {
	if len(b) != 4 {
		return 0, ValidationErrorf("MIL-STD-1750A float requires 32 bits, got %d", len(b)*8)
	}
	var u uint32
	if order == BigEndian {
		u = binary.BigEndian.Uint32(b)
	} else {
		u = binary.LittleEndian.Uint32(b)
	}
	mantissaBits := uint64(u >> 8)
	exponentBits := uint64(u & 0xFF)

	mantissa := twosComplement(mantissaBits, 24)
	exponent := twosComplement(exponentBits, 8)

	return float64(mantissa) * math.Pow(2, float64(exponent)-23), nil
}

// float16ToFloat32 converts an IEEE-754 binary16 value to float32; the
// standard library has no native half-precision type.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1F
	frac := uint32(h) & 0x3FF

	var f32 uint32
	switch exp {
	case 0:
		if frac == 0 {
			f32 = sign << 31
		} else {
			// Subnormal: normalize by shifting the fraction left until the
			// leading bit is explicit, adjusting the exponent accordingly.
			e := int32(-1)
			for frac&0x400 == 0 {
				frac <<= 1
				e--
			}
			frac &= 0x3FF
			exp32 := uint32(int32(127-15) + 1 + e)
			f32 = (sign << 31) | (exp32 << 23) | (frac << 13)
		}
	case 0x1F:
		f32 = (sign << 31) | (0xFF << 23) | (frac << 13)
	default:
		exp32 := exp - 15 + 127
		f32 = (sign << 31) | (exp32 << 23) | (frac << 13)
	}
	return math.Float32frombits(f32)
}

// calibrate applies the first matching context calibrator, falling back to
// def, to raw (coerced to float64). If no calibrator applies at all, the
// derived value equals the raw value unchanged (same type, same value),
// matching the "calibrated-or-same" rule.
func calibrate(raw interface{}, def Calibrator, contexts []ContextCalibrator, values ValueSource) (interface{}, error) {
	cal, err := SelectCalibrator(contexts, def, values)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return raw, nil
	}
	f, err := toFloat64(raw)
	if err != nil {
		return nil, err
	}
	calibrated, err := cal.Calibrate(f)
	if err != nil {
		return nil, err
	}
	return calibrated, nil
}
