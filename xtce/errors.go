package xtce

import (
	"github.com/gravitational/trace"
)

// Error kinds, per the taxonomy of spec.md §7. None of these are distinct Go
// types: they are just named trace.Wrap call sites so that trace.Is*
// predicates (trace.IsBadParameter, trace.IsNotFound, trace.IsNotImplemented,
// ...) can be used by callers to distinguish them, without inventing a
// parallel error hierarchy next to trace's.

// ValidationErrorf reports a malformed definition: a missing required
// attribute, an unknown parameter type tag, an unresolvable reference, or an
// unsupported construct. Surfaced during definition build; decoding never
// starts once one of these is returned.
func ValidationErrorf(format string, args ...interface{}) error {
	return trace.BadParameter(format, args...)
}

// ComparisonErrorf reports that match criteria could not be resolved against
// the packet parsed so far (missing referenced parameter, bad coercion).
func ComparisonErrorf(format string, args ...interface{}) error {
	return trace.CompareFailed(format, args...)
}

// EnumerationErrorf reports a raw value with no corresponding label in an
// EnumeratedParameterType's enumeration list.
func EnumerationErrorf(format string, args ...interface{}) error {
	return trace.NotFound(format, args...)
}

// CalibrationErrorf reports that a spline query fell outside its domain
// without extrapolation enabled.
func CalibrationErrorf(format string, args ...interface{}) error {
	return trace.LimitExceeded(format, args...)
}

// ErrCoverage is the sentinel wrapped by every CoverageErrorf result, so
// callers that need to distinguish "no inheritor matched" from an ordinary
// NotFound (e.g. an enumeration lookup miss) can use errors.Is(err,
// ErrCoverage) instead of the broader trace.IsNotFound.
var ErrCoverage = trace.NotFound("xtce: container coverage error")

// CoverageErrorf reports that the container state machine ended at an
// abstract container with no matching inheritor.
func CoverageErrorf(format string, args ...interface{}) error {
	return trace.Wrap(ErrCoverage, format, args...)
}

// NotImplementedErrorf reports a construct this core intentionally does not
// support: MathOperationCalibrator, CustomAlgorithm match criteria,
// array/aggregate parameter types, spline orders above 1.
func NotImplementedErrorf(format string, args ...interface{}) error {
	return trace.NotImplemented(format, args...)
}
