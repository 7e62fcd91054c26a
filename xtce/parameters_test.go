package xtce

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yobol/go-spacepacket/bitstream"
)

func TestBooleanParameterType(t *testing.T) {
	typ := &BooleanParameterType{Encoding: &IntegerDataEncoding{SizeInBits: 1, Encoding: Unsigned}}

	cur := bitstream.NewCursor([]byte{0x80})
	raw, derived, err := typ.ParseValue(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, uint64(1), raw)
	require.Equal(t, true, derived)

	cur = bitstream.NewCursor([]byte{0x00})
	_, derived, err = typ.ParseValue(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, false, derived)
}

func TestAbsoluteTimeParameterType_AppliesScaleOffsetCalibrator(t *testing.T) {
	scale := 1e-6
	offset := 0.0
	typ := &AbsoluteTimeParameterType{
		Encoding: &IntegerDataEncoding{
			SizeInBits:        32,
			Encoding:          Unsigned,
			DefaultCalibrator: BuildScaleOffsetCalibrator(&scale, &offset),
		},
		Epoch: "1958-01-01T00:00:00Z",
	}
	cur := bitstream.NewCursor([]byte{0x34, 0x32, 0x53, 0x00}) // 875713280
	raw, derived, err := typ.ParseValue(cur, staticValueSource{})
	require.NoError(t, err)
	require.Equal(t, uint64(875713280), raw)
	require.Equal(t, 875.7132799999999, derived.(float64))
}

func TestBuildScaleOffsetCalibrator(t *testing.T) {
	scale, offset := 2.0, 3.0
	require.Equal(t, 23.0, mustCalibrate(t, BuildScaleOffsetCalibrator(&scale, &offset), 10))
	require.Equal(t, 13.0, mustCalibrate(t, BuildScaleOffsetCalibrator(nil, &offset), 10))
	require.Equal(t, 20.0, mustCalibrate(t, BuildScaleOffsetCalibrator(&scale, nil), 10))
	require.Nil(t, BuildScaleOffsetCalibrator(nil, nil))
}

func mustCalibrate(t *testing.T, cal Calibrator, raw float64) float64 {
	t.Helper()
	v, err := cal.Calibrate(raw)
	require.NoError(t, err)
	return v
}
