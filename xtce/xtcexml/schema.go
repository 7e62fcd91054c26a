// Package xtcexml loads and saves xtce.PacketDefinition values as XML
// documents, using a simplified subset of the XTCE element vocabulary: one
// <SpaceSystem> root holding <ParameterTypeSet>, <ParameterSet>, and
// <ContainerSet> children.
package xtcexml

const (
	elSpaceSystem     = "SpaceSystem"
	elParameterTypeSet = "ParameterTypeSet"
	elParameterSet    = "ParameterSet"
	elContainerSet    = "ContainerSet"

	elIntegerParameterType = "IntegerParameterType"
	elFloatParameterType   = "FloatParameterType"
	elStringParameterType  = "StringParameterType"
	elBinaryParameterType  = "BinaryParameterType"
	elBooleanParameterType = "BooleanParameterType"
	elEnumeratedParameterType = "EnumeratedParameterType"
	elAbsoluteTimeParameterType = "AbsoluteTimeParameterType"
	elRelativeTimeParameterType = "RelativeTimeParameterType"

	elIntegerDataEncoding = "IntegerDataEncoding"
	elFloatDataEncoding   = "FloatDataEncoding"
	elStringDataEncoding  = "StringDataEncoding"
	elBinaryDataEncoding  = "BinaryDataEncoding"

	elDefaultCalibrator = "DefaultCalibrator"
	elContextCalibrator = "ContextCalibrator"
	elContextCalibratorList = "ContextCalibratorList"
	elPolynomialCalibrator = "PolynomialCalibrator"
	elSplineCalibrator  = "SplineCalibrator"
	elTerm              = "Term"
	elSplinePoint       = "SplinePoint"

	elSizeInBits   = "SizeInBits"
	elFixedValue   = "FixedValue"
	elLeadingSize  = "LeadingSize"
	elDynamicValue = "DynamicValue"
	elDiscreteLookupList = "DiscreteLookupList"
	elDiscreteLookup = "DiscreteLookup"
	elLinearAdjustment = "LinearAdjustment"
	elTerminationChar = "TerminationChar"

	elEnumerationList = "EnumerationList"
	elEnumeration     = "Enumeration"

	elMatchCriteria = "MatchCriteria"
	elComparison    = "Comparison"
	elComparisonList = "ComparisonList"
	elCondition     = "Condition"
	elAndedConditions = "ANDedConditions"
	elOredConditions  = "ORedConditions"

	elParameter = "Parameter"
	elSequenceContainer = "SequenceContainer"
	elEntryList = "EntryList"
	elParameterRefEntry = "ParameterRefEntry"
	elContainerRefEntry = "ContainerRefEntry"
	elBaseContainer = "BaseContainer"
	elRestrictionCriteria = "RestrictionCriteria"

	attrName          = "name"
	attrShortDesc     = "shortDescription"
	attrLongDesc      = "longDescription"
	attrUnit          = "unit"
	attrEncoding      = "encoding"
	attrSizeInBits    = "sizeInBits"
	attrByteOrder     = "byteOrder"
	attrEncodingFamily = "encodingFamily" // "IEEE754" or "MILSTD1750A"
	attrCoefficient   = "coefficient"
	attrExponent      = "exponent"
	attrRaw           = "raw"
	attrCalibrated    = "calibrated"
	attrOrder         = "order"
	attrExtrapolate   = "extrapolate"
	attrParameterRef  = "parameterRef"
	attrContainerRef  = "containerRef"
	attrContainerName = "containerName"
	attrAbstract      = "abstract"
	attrTypeRef       = "typeRef"
	attrValue         = "value"
	attrLabel         = "label"
	attrComparisonOperator = "comparisonOperator"
	attrValuePerformCalibration = "useCalibratedValue"
	attrCharacterWidth = "characterWidth" // charset name
	attrSlope          = "slope"
	attrIntercept      = "intercept"
	attrEpoch          = "epoch"
	attrOffsetFrom     = "offsetFrom"
	attrScale          = "scale"
	attrOffset         = "offset"
	attrRootContainer  = "rootContainer"
)
