package xtcexml

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/beevik/etree"
	"github.com/gravitational/trace"
	"github.com/yobol/go-spacepacket/xtce"
)

// Save serializes def to w as an XML document in the same schema Load reads.
// Parameter types are written from def.ParameterTypes; each Parameter's
// typeRef is the name under which its type value is registered there (found
// by identity), so a Parameter whose type is not registered gets an empty
// typeRef.
func Save(w io.Writer, def *xtce.PacketDefinition) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement(elSpaceSystem)
	if def.RootContainerName != "" {
		root.CreateAttr(attrRootContainer, def.RootContainerName)
	}

	typeSet := root.CreateElement(elParameterTypeSet)
	for _, name := range sortedKeys(typeNames(def)) {
		el, err := renderParameterType(typeSet, name, def.ParameterTypes[name])
		if err != nil {
			return err
		}
		el.CreateAttr(attrName, name)
	}

	paramSet := root.CreateElement(elParameterSet)
	for _, name := range sortedParamNames(def) {
		p := def.Parameters[name]
		pEl := paramSet.CreateElement(elParameter)
		pEl.CreateAttr(attrName, p.Name)
		pEl.CreateAttr(attrTypeRef, typeRefFor(def, p.Type))
		if p.ShortDescription != "" {
			pEl.CreateAttr(attrShortDesc, p.ShortDescription)
		}
		if p.LongDescription != "" {
			pEl.CreateAttr(attrLongDesc, p.LongDescription)
		}
	}

	containerSet := root.CreateElement(elContainerSet)
	for _, name := range sortedContainerNames(def) {
		c := def.Containers[name]
		renderContainer(containerSet, c)
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return trace.Wrap(err, "writing XTCE XML")
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func typeNames(def *xtce.PacketDefinition) map[string]bool {
	out := map[string]bool{}
	for name := range def.ParameterTypes {
		out[name] = true
	}
	return out
}

func sortedParamNames(def *xtce.PacketDefinition) []string {
	out := make([]string, 0, len(def.Parameters))
	for name := range def.Parameters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sortedContainerNames(def *xtce.PacketDefinition) []string {
	out := make([]string, 0, len(def.Containers))
	for name := range def.Containers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// typeRefFor finds the registered name for a ParameterType by identity scan,
// since Parameter only holds the type value, not its name.
func typeRefFor(def *xtce.PacketDefinition, t xtce.ParameterType) string {
	for name, candidate := range def.ParameterTypes {
		if candidate == t {
			return name
		}
	}
	return ""
}

func renderParameterType(parent *etree.Element, name string, t xtce.ParameterType) (*etree.Element, error) {
	switch v := t.(type) {
	case *xtce.IntegerParameterType:
		el := parent.CreateElement(elIntegerParameterType)
		renderUnit(el, v.UnitStr)
		renderIntegerEncoding(el, v.Encoding)
		return el, nil
	case *xtce.FloatParameterType:
		el := parent.CreateElement(elFloatParameterType)
		renderUnit(el, v.UnitStr)
		renderFloatEncoding(el, v.Encoding)
		return el, nil
	case *xtce.StringParameterType:
		el := parent.CreateElement(elStringParameterType)
		renderUnit(el, v.UnitStr)
		if err := renderStringEncoding(el, v.Encoding); err != nil {
			return nil, err
		}
		return el, nil
	case *xtce.BinaryParameterType:
		el := parent.CreateElement(elBinaryParameterType)
		renderUnit(el, v.UnitStr)
		if err := renderBinaryEncoding(el, v.Encoding); err != nil {
			return nil, err
		}
		return el, nil
	case *xtce.BooleanParameterType:
		el := parent.CreateElement(elBooleanParameterType)
		renderUnit(el, v.UnitStr)
		if err := renderAnyNumericEncoding(el, v.Encoding); err != nil {
			return nil, err
		}
		return el, nil
	case *xtce.EnumeratedParameterType:
		el := parent.CreateElement(elEnumeratedParameterType)
		renderUnit(el, v.UnitStr)
		if err := renderAnyNumericEncoding(el, v.Encoding); err != nil {
			return nil, err
		}
		list := el.CreateElement(elEnumerationList)
		keys := make([]int64, 0, len(v.Enum))
		for k := range v.Enum {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, k := range keys {
			e := list.CreateElement(elEnumeration)
			e.CreateAttr(attrValue, strconv.FormatInt(k, 10))
			e.CreateAttr(attrLabel, v.Enum[k])
		}
		return el, nil
	case *xtce.AbsoluteTimeParameterType:
		el := parent.CreateElement(elAbsoluteTimeParameterType)
		renderUnit(el, v.UnitStr)
		if v.Epoch != "" {
			el.CreateAttr(attrEpoch, v.Epoch)
		}
		if v.OffsetFrom != "" {
			el.CreateAttr(attrOffsetFrom, v.OffsetFrom)
		}
		if err := renderAnyNumericEncoding(el, v.Encoding); err != nil {
			return nil, err
		}
		return el, nil
	case *xtce.RelativeTimeParameterType:
		el := parent.CreateElement(elRelativeTimeParameterType)
		renderUnit(el, v.UnitStr)
		if v.OffsetFrom != "" {
			el.CreateAttr(attrOffsetFrom, v.OffsetFrom)
		}
		if err := renderAnyNumericEncoding(el, v.Encoding); err != nil {
			return nil, err
		}
		return el, nil
	default:
		return nil, trace.BadParameter("parameter type %q has an unsupported concrete type %T for serialization", name, t)
	}
}

func renderUnit(el *etree.Element, unit string) {
	if unit == "" {
		return
	}
	set := el.CreateElement("UnitSet")
	u := set.CreateElement("Unit")
	u.SetText(unit)
}

func renderIntegerEncoding(parent *etree.Element, enc *xtce.IntegerDataEncoding) *etree.Element {
	el := parent.CreateElement(elIntegerDataEncoding)
	el.CreateAttr(attrSizeInBits, strconv.Itoa(enc.SizeInBits))
	el.CreateAttr(attrEncoding, integerEncodingName(enc.Encoding))
	el.CreateAttr(attrByteOrder, byteOrderName(enc.ByteOrder))
	renderCalibrators(el, enc.DefaultCalibrator, enc.ContextCalibrators)
	return el
}

func renderFloatEncoding(parent *etree.Element, enc *xtce.FloatDataEncoding) *etree.Element {
	el := parent.CreateElement(elFloatDataEncoding)
	el.CreateAttr(attrSizeInBits, strconv.Itoa(enc.SizeInBits))
	if enc.Kind == xtce.MIL1750A {
		el.CreateAttr(attrEncodingFamily, "MILSTD1750A")
	} else {
		el.CreateAttr(attrEncodingFamily, "IEEE754")
	}
	el.CreateAttr(attrByteOrder, byteOrderName(enc.ByteOrder))
	renderCalibrators(el, enc.DefaultCalibrator, enc.ContextCalibrators)
	return el
}

func renderAnyNumericEncoding(parent *etree.Element, enc xtce.DataEncoding) error {
	switch e := enc.(type) {
	case *xtce.IntegerDataEncoding:
		renderIntegerEncoding(parent, e)
		return nil
	case *xtce.FloatDataEncoding:
		renderFloatEncoding(parent, e)
		return nil
	default:
		return trace.BadParameter("unsupported numeric encoding type %T", enc)
	}
}

func renderStringEncoding(parent *etree.Element, enc *xtce.StringDataEncoding) error {
	el := parent.CreateElement(elStringDataEncoding)
	el.CreateAttr(attrCharacterWidth, string(enc.Charset))
	if enc.Terminator != nil {
		t := el.CreateElement(elTerminationChar)
		t.SetText(bytesToHex(enc.Terminator))
		return nil
	}
	return renderSizeSpec(el, enc.Size)
}

func renderBinaryEncoding(parent *etree.Element, enc *xtce.BinaryDataEncoding) error {
	el := parent.CreateElement(elBinaryDataEncoding)
	return renderSizeSpec(el, enc.Size)
}

func renderSizeSpec(parent *etree.Element, size xtce.SizeSpec) error {
	sizeEl := parent.CreateElement(elSizeInBits)
	switch s := size.(type) {
	case xtce.FixedSize:
		sizeEl.CreateElement(elFixedValue).SetText(strconv.Itoa(s.Bits_))
	case xtce.LeadingSize:
		lv := sizeEl.CreateElement(elLeadingSize)
		lv.CreateAttr(attrSizeInBits, strconv.Itoa(s.SizeOfLengthFieldBits))
	case xtce.DynamicSize:
		dv := sizeEl.CreateElement(elDynamicValue)
		dv.CreateAttr(attrParameterRef, s.ParameterName)
		if s.Adjuster != nil {
			la := dv.CreateElement(elLinearAdjustment)
			la.CreateAttr(attrSlope, formatFloat(s.Adjuster.Slope))
			la.CreateAttr(attrIntercept, formatFloat(s.Adjuster.Intercept))
		}
	case xtce.DiscreteLookupSize:
		list := sizeEl.CreateElement(elDiscreteLookupList)
		for _, lk := range s.Lookups {
			dl := list.CreateElement(elDiscreteLookup)
			dl.CreateAttr(attrValue, strconv.FormatInt(lk.Value, 10))
			renderMatchCriteria(dl, lk.Criteria)
		}
	default:
		return trace.BadParameter("unsupported size spec type %T", size)
	}
	return nil
}

func renderCalibrators(parent *etree.Element, def xtce.Calibrator, contexts []xtce.ContextCalibrator) {
	if def != nil {
		d := parent.CreateElement(elDefaultCalibrator)
		renderCalibratorBody(d, def)
	}
	if len(contexts) > 0 {
		list := parent.CreateElement(elContextCalibratorList)
		for _, cc := range contexts {
			el := list.CreateElement(elContextCalibrator)
			renderMatchCriteria(el, cc.Criteria)
			renderCalibratorBody(el, cc.Calibrator)
		}
	}
}

// renderMatchCriteria writes criteria as a <MatchCriteria> child of parent,
// the shape Load reads back for context calibrators and discrete lookups.
func renderMatchCriteria(parent *etree.Element, criteria []xtce.MatchCriteria) {
	if len(criteria) == 0 {
		return
	}
	mc := parent.CreateElement(elMatchCriteria)
	for _, crit := range criteria {
		renderMatchCriterion(mc, crit)
	}
}

func renderCalibratorBody(parent *etree.Element, cal xtce.Calibrator) {
	switch c := cal.(type) {
	case *xtce.PolynomialCalibrator:
		p := parent.CreateElement(elPolynomialCalibrator)
		for _, term := range c.Terms {
			t := p.CreateElement(elTerm)
			t.CreateAttr(attrCoefficient, formatFloat(term.Coefficient))
			t.CreateAttr(attrExponent, formatFloat(term.Exponent))
		}
	case *xtce.SplineCalibrator:
		s := parent.CreateElement(elSplineCalibrator)
		s.CreateAttr(attrOrder, strconv.Itoa(int(c.Order)))
		s.CreateAttr(attrExtrapolate, strconv.FormatBool(c.Extrapolate))
		for _, pt := range c.Points {
			p := s.CreateElement(elSplinePoint)
			p.CreateAttr(attrRaw, formatFloat(pt.Raw))
			p.CreateAttr(attrCalibrated, formatFloat(pt.Calibrated))
		}
	}
}

func renderContainer(parent *etree.Element, c *xtce.SequenceContainer) {
	el := parent.CreateElement(elSequenceContainer)
	el.CreateAttr(attrName, c.Name)
	if c.Abstract {
		el.CreateAttr(attrAbstract, "true")
	}
	if c.ShortDescription != "" {
		el.CreateAttr(attrShortDesc, c.ShortDescription)
	}
	if c.LongDescription != "" {
		el.CreateAttr(attrLongDesc, c.LongDescription)
	}

	if c.BaseContainer != "" {
		base := el.CreateElement(elBaseContainer)
		base.CreateAttr(attrContainerRef, c.BaseContainer)
		if len(c.RestrictionCriteria) > 0 {
			rc := base.CreateElement(elRestrictionCriteria)
			for _, crit := range c.RestrictionCriteria {
				renderMatchCriterion(rc, crit)
			}
		}
	}

	entries := el.CreateElement(elEntryList)
	for _, e := range c.Entries {
		switch e.Kind {
		case xtce.EntryParameter:
			pe := entries.CreateElement(elParameterRefEntry)
			pe.CreateAttr(attrParameterRef, e.ParameterName)
		case xtce.EntryContainer:
			ce := entries.CreateElement(elContainerRefEntry)
			ce.CreateAttr(attrContainerRef, e.ContainerName)
		}
	}
}

func renderMatchCriterion(parent *etree.Element, crit xtce.MatchCriteria) {
	switch c := crit.(type) {
	case *xtce.Comparison:
		el := parent.CreateElement(elComparison)
		el.CreateAttr(attrParameterRef, c.ParameterName)
		el.CreateAttr(attrComparisonOperator, string(c.Operator))
		el.CreateAttr(attrValue, fmt.Sprintf("%v", c.RequiredValue))
		if c.UseCalibrated {
			el.CreateAttr(attrValuePerformCalibration, "true")
		}
	case *xtce.Condition:
		el := parent.CreateElement(elCondition)
		el.CreateAttr("parameterRef1", c.LeftParameterName)
		el.CreateAttr(attrComparisonOperator, string(c.Operator))
		if c.RightIsParameter {
			el.CreateAttr("parameterRef2", c.RightParameterName)
		} else {
			el.CreateAttr("value2", fmt.Sprintf("%v", c.RightValue))
		}
	case *xtce.And:
		el := parent.CreateElement(elAndedConditions)
		for _, child := range c.Criteria {
			renderMatchCriterion(el, child)
		}
	case *xtce.Or:
		el := parent.CreateElement(elOredConditions)
		for _, child := range c.Criteria {
			renderMatchCriterion(el, child)
		}
	case *xtce.BooleanExpression:
		renderMatchCriterion(parent, c.Root)
	}
}

func integerEncodingName(e xtce.IntegerEncoding) string {
	switch e {
	case xtce.TwosComplement:
		return "twosComplement"
	case xtce.SignMagnitude:
		return "signMagnitude"
	default:
		return "unsigned"
	}
}

func byteOrderName(o xtce.ByteOrder) string {
	if o == xtce.LittleEndian {
		return "leastSignificantByteFirst"
	}
	return "mostSignificantByteFirst"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func bytesToHex(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, by := range b {
		out[i*2] = hexdigits[by>>4]
		out[i*2+1] = hexdigits[by&0xF]
	}
	return string(out)
}
