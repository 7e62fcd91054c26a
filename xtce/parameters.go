package xtce

import (
	"github.com/sirupsen/logrus"
	"github.com/yobol/go-spacepacket/bitstream"
)

// ParameterType decodes one field's worth of bits into a (raw, derived)
// pair. It is the dynamic-dispatch seam between the container-walking
// engine and the handful of concrete type flavors XTCE defines.
type ParameterType interface {
	ParseValue(cur *bitstream.Cursor, values ValueSource) (raw, derived interface{}, err error)
	Unit() string
}

// numericEncoding is satisfied by IntegerDataEncoding and FloatDataEncoding,
// the two DataEncoding flavors that produce a calibratable numeric raw
// value; AbsoluteTimeParameterType and RelativeTimeParameterType embed one
// of these directly rather than redefining decode logic.
type numericEncoding interface {
	DataEncoding
}

// IntegerParameterType is a parameter whose wire encoding is integral.
type IntegerParameterType struct {
	Encoding *IntegerDataEncoding
	UnitStr  string
}

func (t *IntegerParameterType) ParseValue(cur *bitstream.Cursor, values ValueSource) (interface{}, interface{}, error) {
	return t.Encoding.Decode(cur, values)
}
func (t *IntegerParameterType) Unit() string { return t.UnitStr }

// FloatParameterType is a parameter whose wire encoding is floating point.
type FloatParameterType struct {
	Encoding *FloatDataEncoding
	UnitStr  string
}

func (t *FloatParameterType) ParseValue(cur *bitstream.Cursor, values ValueSource) (interface{}, interface{}, error) {
	return t.Encoding.Decode(cur, values)
}
func (t *FloatParameterType) Unit() string { return t.UnitStr }

// StringParameterType is a parameter whose wire encoding is character data.
type StringParameterType struct {
	Encoding *StringDataEncoding
	UnitStr  string
}

func (t *StringParameterType) ParseValue(cur *bitstream.Cursor, values ValueSource) (interface{}, interface{}, error) {
	return t.Encoding.Decode(cur, values)
}
func (t *StringParameterType) Unit() string { return t.UnitStr }

// BinaryParameterType is a parameter whose wire encoding is an opaque byte
// string; its derived value is always nil.
type BinaryParameterType struct {
	Encoding *BinaryDataEncoding
	UnitStr  string
}

func (t *BinaryParameterType) ParseValue(cur *bitstream.Cursor, values ValueSource) (interface{}, interface{}, error) {
	return t.Encoding.Decode(cur, values)
}
func (t *BinaryParameterType) Unit() string { return t.UnitStr }

// BooleanParameterType interprets an underlying numeric (or, with a
// warning, non-numeric) encoding's raw value as a boolean: zero is false,
// anything else is true.
type BooleanParameterType struct {
	Encoding DataEncoding
	UnitStr  string
}

func (t *BooleanParameterType) ParseValue(cur *bitstream.Cursor, values ValueSource) (interface{}, interface{}, error) {
	raw, _, err := t.Encoding.Decode(cur, values)
	if err != nil {
		return nil, nil, err
	}
	switch v := raw.(type) {
	case int64:
		return raw, v != 0, nil
	case uint64:
		return raw, v != 0, nil
	case float64:
		return raw, v != 0, nil
	default:
		logrus.WithField("raw_type", raw).Warn("boolean parameter type decoded a non-numeric raw value; treating as true")
		return raw, true, nil
	}
}
func (t *BooleanParameterType) Unit() string { return t.UnitStr }

// EnumeratedParameterType looks up a raw integer value in a fixed
// enumeration list. Unlike calibration, enumeration lookups always apply to
// the raw value, never to an already-calibrated one.
type EnumeratedParameterType struct {
	Encoding DataEncoding
	Enum     map[int64]string
	UnitStr  string
}

func (t *EnumeratedParameterType) ParseValue(cur *bitstream.Cursor, values ValueSource) (interface{}, interface{}, error) {
	raw, _, err := t.Encoding.Decode(cur, values)
	if err != nil {
		return nil, nil, err
	}
	key, err := toInt64(raw)
	if err != nil {
		return nil, nil, ValidationErrorf("enumerated parameter type requires an integral raw value: %v", err)
	}
	label, ok := t.Enum[key]
	if !ok {
		return raw, nil, EnumerationErrorf("raw value %d has no enumeration label", key)
	}
	return raw, label, nil
}
func (t *EnumeratedParameterType) Unit() string { return t.UnitStr }

// AbsoluteTimeParameterType decodes an epoch-relative timestamp. The
// scale/offset calibration described by spec is folded into Encoding's
// DefaultCalibrator at definition-build time (see BuildScaleOffsetCalibrator),
// so ParseValue is otherwise identical to a plain numeric parameter.
type AbsoluteTimeParameterType struct {
	Encoding   numericEncoding
	Epoch      string
	OffsetFrom string
	UnitStr    string
}

func (t *AbsoluteTimeParameterType) ParseValue(cur *bitstream.Cursor, values ValueSource) (interface{}, interface{}, error) {
	return t.Encoding.Decode(cur, values)
}
func (t *AbsoluteTimeParameterType) Unit() string { return t.UnitStr }

// RelativeTimeParameterType decodes a duration relative to another
// parameter, with the same calibration-folding approach as
// AbsoluteTimeParameterType.
type RelativeTimeParameterType struct {
	Encoding   numericEncoding
	OffsetFrom string
	UnitStr    string
}

func (t *RelativeTimeParameterType) ParseValue(cur *bitstream.Cursor, values ValueSource) (interface{}, interface{}, error) {
	return t.Encoding.Decode(cur, values)
}
func (t *RelativeTimeParameterType) Unit() string { return t.UnitStr }

// BuildScaleOffsetCalibrator synthesizes the polynomial calibrator for an
// AbsoluteTime/RelativeTime parameter type from its optional scale/offset
// attributes: y = offset + scale·x if both are present, y = offset + x if
// only offset is, y = scale·x if only scale is, and nil (no calibration) if
// neither is present.
func BuildScaleOffsetCalibrator(scale, offset *float64) *PolynomialCalibrator {
	if scale == nil && offset == nil {
		return nil
	}
	var terms []PolynomialTerm
	if offset != nil {
		terms = append(terms, PolynomialTerm{Coefficient: *offset, Exponent: 0})
	}
	switch {
	case scale != nil:
		terms = append(terms, PolynomialTerm{Coefficient: *scale, Exponent: 1})
	case offset != nil:
		terms = append(terms, PolynomialTerm{Coefficient: 1, Exponent: 1})
	}
	return &PolynomialCalibrator{Terms: terms}
}

// Parameter names one field of a container: a type plus descriptive
// metadata.
type Parameter struct {
	Name             string
	Type             ParameterType
	ShortDescription string
	LongDescription  string
}

// Parse decodes this parameter's value from cur.
func (p *Parameter) Parse(cur *bitstream.Cursor, values ValueSource) (raw, derived interface{}, err error) {
	return p.Type.ParseValue(cur, values)
}
