package xtcexml

import (
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"
	"github.com/gravitational/trace"
	"github.com/yobol/go-spacepacket/xtce"
)

// Load parses an XML document from r into a finalized xtce.PacketDefinition.
func Load(r io.Reader) (*xtce.PacketDefinition, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, trace.Wrap(err, "parsing XTCE XML")
	}

	root := doc.SelectElement(elSpaceSystem)
	if root == nil {
		return nil, trace.BadParameter("document has no <%s> root element", elSpaceSystem)
	}

	b := xtce.NewBuilder()
	types := map[string]xtce.ParameterType{}

	if typeSet := root.SelectElement(elParameterTypeSet); typeSet != nil {
		for _, el := range typeSet.ChildElements() {
			name := el.SelectAttrValue(attrName, "")
			if name == "" {
				return nil, trace.BadParameter("<%s> element missing %q attribute", el.Tag, attrName)
			}
			pt, err := parseParameterType(el)
			if err != nil {
				return nil, trace.Wrap(err, "parameter type %q", name)
			}
			types[name] = pt
			b.AddParameterType(name, pt)
		}
	}

	if paramSet := root.SelectElement(elParameterSet); paramSet != nil {
		for _, el := range paramSet.ChildElements() {
			p, err := parseParameter(el, types)
			if err != nil {
				return nil, err
			}
			b.AddParameter(p)
		}
	}

	if containerSet := root.SelectElement(elContainerSet); containerSet != nil {
		for _, el := range containerSet.ChildElements() {
			c, err := parseContainer(el)
			if err != nil {
				return nil, err
			}
			b.AddContainer(c)
		}
	}

	if rootName := root.SelectAttrValue(attrRootContainer, ""); rootName != "" {
		b.SetRootContainer(rootName)
	}

	return b.Build()
}

func parseParameter(el *etree.Element, types map[string]xtce.ParameterType) (*xtce.Parameter, error) {
	if el.Tag != elParameter {
		return nil, trace.BadParameter("unexpected element <%s> in parameter set", el.Tag)
	}
	name := el.SelectAttrValue(attrName, "")
	if name == "" {
		return nil, trace.BadParameter("<%s> missing %q attribute", elParameter, attrName)
	}
	typeRef := el.SelectAttrValue(attrTypeRef, "")
	if typeRef == "" {
		return nil, trace.BadParameter("<%s name=%q> missing %q attribute", elParameter, name, attrTypeRef)
	}
	pt, ok := types[typeRef]
	if !ok {
		return nil, trace.BadParameter("parameter %q references undefined type %q", name, typeRef)
	}
	return &xtce.Parameter{
		Name:             name,
		Type:             pt,
		ShortDescription: el.SelectAttrValue(attrShortDesc, ""),
		LongDescription:  el.SelectAttrValue(attrLongDesc, ""),
	}, nil
}

func parseParameterType(el *etree.Element) (xtce.ParameterType, error) {
	unit := ""
	if u := el.SelectElement("UnitSet"); u != nil {
		if ue := u.SelectElement("Unit"); ue != nil {
			unit = ue.Text()
		}
	}

	switch el.Tag {
	case elIntegerParameterType:
		enc, err := parseIntegerEncoding(requireChild(el, elIntegerDataEncoding))
		if err != nil {
			return nil, err
		}
		return &xtce.IntegerParameterType{Encoding: enc, UnitStr: unit}, nil
	case elFloatParameterType:
		enc, err := parseFloatEncoding(requireChild(el, elFloatDataEncoding))
		if err != nil {
			return nil, err
		}
		return &xtce.FloatParameterType{Encoding: enc, UnitStr: unit}, nil
	case elStringParameterType:
		enc, err := parseStringEncoding(requireChild(el, elStringDataEncoding))
		if err != nil {
			return nil, err
		}
		return &xtce.StringParameterType{Encoding: enc, UnitStr: unit}, nil
	case elBinaryParameterType:
		enc, err := parseBinaryEncoding(requireChild(el, elBinaryDataEncoding))
		if err != nil {
			return nil, err
		}
		return &xtce.BinaryParameterType{Encoding: enc, UnitStr: unit}, nil
	case elBooleanParameterType:
		enc, err := parseAnyNumericEncoding(el)
		if err != nil {
			return nil, err
		}
		return &xtce.BooleanParameterType{Encoding: enc, UnitStr: unit}, nil
	case elEnumeratedParameterType:
		enc, err := parseAnyNumericEncoding(el)
		if err != nil {
			return nil, err
		}
		enumMap, err := parseEnumerationList(requireChild(el, elEnumerationList))
		if err != nil {
			return nil, err
		}
		return &xtce.EnumeratedParameterType{Encoding: enc, Enum: enumMap, UnitStr: unit}, nil
	case elAbsoluteTimeParameterType:
		enc, err := parseAnyNumericEncoding(el)
		if err != nil {
			return nil, err
		}
		applyScaleOffsetCalibrator(enc, el)
		return &xtce.AbsoluteTimeParameterType{
			Encoding:   enc,
			Epoch:      el.SelectAttrValue(attrEpoch, ""),
			OffsetFrom: el.SelectAttrValue(attrOffsetFrom, ""),
			UnitStr:    unit,
		}, nil
	case elRelativeTimeParameterType:
		enc, err := parseAnyNumericEncoding(el)
		if err != nil {
			return nil, err
		}
		applyScaleOffsetCalibrator(enc, el)
		return &xtce.RelativeTimeParameterType{Encoding: enc, OffsetFrom: el.SelectAttrValue(attrOffsetFrom, ""), UnitStr: unit}, nil
	default:
		return nil, trace.BadParameter("unrecognized parameter type element <%s>", el.Tag)
	}
}

func requireChild(el *etree.Element, tag string) *etree.Element {
	return el.SelectElement(tag)
}

func parseByteOrder(el *etree.Element) xtce.ByteOrder {
	if el.SelectAttrValue(attrByteOrder, "mostSignificantByteFirst") == "leastSignificantByteFirst" {
		return xtce.LittleEndian
	}
	return xtce.BigEndian
}

func parseIntegerEncoding(el *etree.Element) (*xtce.IntegerDataEncoding, error) {
	if el == nil {
		return nil, trace.BadParameter("missing <%s>", elIntegerDataEncoding)
	}
	sizeStr := el.SelectAttrValue(attrSizeInBits, "")
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return nil, trace.BadParameter("invalid %s %q: %v", attrSizeInBits, sizeStr, err)
	}
	enc := xtce.Unsigned
	switch el.SelectAttrValue(attrEncoding, "unsigned") {
	case "unsigned":
		enc = xtce.Unsigned
	case "twosComplement":
		enc = xtce.TwosComplement
	case "signMagnitude":
		enc = xtce.SignMagnitude
	default:
		return nil, trace.BadParameter("unrecognized integer encoding %q", el.SelectAttrValue(attrEncoding, ""))
	}

	def, contexts, err := parseCalibrators(el)
	if err != nil {
		return nil, err
	}
	return &xtce.IntegerDataEncoding{
		SizeInBits:         size,
		Encoding:           enc,
		ByteOrder:          parseByteOrder(el),
		DefaultCalibrator:  def,
		ContextCalibrators: contexts,
	}, nil
}

func parseFloatEncoding(el *etree.Element) (*xtce.FloatDataEncoding, error) {
	if el == nil {
		return nil, trace.BadParameter("missing <%s>", elFloatDataEncoding)
	}
	size, err := strconv.Atoi(el.SelectAttrValue(attrSizeInBits, "32"))
	if err != nil {
		return nil, trace.BadParameter("invalid %s: %v", attrSizeInBits, err)
	}
	kind := xtce.IEEE754
	if el.SelectAttrValue(attrEncodingFamily, "IEEE754") == "MILSTD1750A" {
		kind = xtce.MIL1750A
	}
	def, contexts, err := parseCalibrators(el)
	if err != nil {
		return nil, err
	}
	return &xtce.FloatDataEncoding{
		SizeInBits:         size,
		Kind:               kind,
		ByteOrder:          parseByteOrder(el),
		DefaultCalibrator:  def,
		ContextCalibrators: contexts,
	}, nil
}

func parseSizeSpec(el *etree.Element) (xtce.SizeSpec, error) {
	sizeEl := el.SelectElement(elSizeInBits)
	if sizeEl == nil {
		return nil, trace.BadParameter("missing <%s>", elSizeInBits)
	}
	if fv := sizeEl.SelectElement(elFixedValue); fv != nil {
		n, err := strconv.Atoi(fv.Text())
		if err != nil {
			return nil, trace.BadParameter("invalid fixed size value %q: %v", fv.Text(), err)
		}
		return xtce.FixedSize{Bits_: n}, nil
	}
	if lv := sizeEl.SelectElement(elLeadingSize); lv != nil {
		n, err := strconv.Atoi(lv.SelectAttrValue(attrSizeInBits, ""))
		if err != nil {
			return nil, trace.BadParameter("invalid leading size field width: %v", err)
		}
		return xtce.LeadingSize{SizeOfLengthFieldBits: n}, nil
	}
	if dv := sizeEl.SelectElement(elDynamicValue); dv != nil {
		ref := dv.SelectAttrValue(attrParameterRef, "")
		if ref == "" {
			return nil, trace.BadParameter("<%s> missing %q", elDynamicValue, attrParameterRef)
		}
		ds := xtce.DynamicSize{ParameterName: ref}
		if la := dv.SelectElement(elLinearAdjustment); la != nil {
			slope, _ := strconv.ParseFloat(la.SelectAttrValue(attrSlope, "1"), 64)
			intercept, _ := strconv.ParseFloat(la.SelectAttrValue(attrIntercept, "0"), 64)
			ds.Adjuster = &xtce.LinearAdjuster{Slope: slope, Intercept: intercept}
		}
		return ds, nil
	}
	if dl := sizeEl.SelectElement(elDiscreteLookupList); dl != nil {
		lookups, err := parseDiscreteLookups(dl)
		if err != nil {
			return nil, err
		}
		return xtce.DiscreteLookupSize{Lookups: lookups}, nil
	}
	return nil, trace.BadParameter("<%s> has no recognized size mode", elSizeInBits)
}

func parseStringEncoding(el *etree.Element) (*xtce.StringDataEncoding, error) {
	if el == nil {
		return nil, trace.BadParameter("missing <%s>", elStringDataEncoding)
	}
	charsetName := el.SelectAttrValue(attrCharacterWidth, "US-ASCII")
	byteOrderHint := el.SelectAttrValue(attrByteOrder, "")
	charset, err := xtce.ResolveCharacterEncoding(charsetName, byteOrderHint)
	if err != nil {
		return nil, err
	}

	if term := el.SelectElement(elTerminationChar); term != nil {
		pattern, err := hexToBytes(term.Text())
		if err != nil {
			return nil, trace.BadParameter("invalid termination char %q: %v", term.Text(), err)
		}
		return &xtce.StringDataEncoding{Terminator: pattern, Charset: charset}, nil
	}

	size, err := parseSizeSpec(el)
	if err != nil {
		return nil, err
	}
	return &xtce.StringDataEncoding{Size: size, Charset: charset}, nil
}

func parseBinaryEncoding(el *etree.Element) (*xtce.BinaryDataEncoding, error) {
	if el == nil {
		return nil, trace.BadParameter("missing <%s>", elBinaryDataEncoding)
	}
	size, err := parseSizeSpec(el)
	if err != nil {
		return nil, err
	}
	return &xtce.BinaryDataEncoding{Size: size}, nil
}

// parseAnyNumericEncoding looks for an integer or float encoding nested
// under el, for the parameter type flavors (boolean, enumerated, time) that
// layer on top of a plain numeric encoding rather than defining their own.
func parseAnyNumericEncoding(el *etree.Element) (xtce.DataEncoding, error) {
	if intEl := el.SelectElement(elIntegerDataEncoding); intEl != nil {
		return parseIntegerEncoding(intEl)
	}
	if floatEl := el.SelectElement(elFloatDataEncoding); floatEl != nil {
		return parseFloatEncoding(floatEl)
	}
	return nil, trace.BadParameter("<%s> has no recognized numeric encoding", el.Tag)
}

// applyScaleOffsetCalibrator reads the optional scale/offset attributes off
// a time parameter type element and, if either is present, overwrites enc's
// DefaultCalibrator with the synthesized polynomial (per spec, time
// parameter calibration comes from these two attributes, not from a nested
// calibrator element).
func applyScaleOffsetCalibrator(enc xtce.DataEncoding, el *etree.Element) {
	scale, hasScale := parseOptionalFloatAttr(el, attrScale)
	offset, hasOffset := parseOptionalFloatAttr(el, attrOffset)
	if !hasScale && !hasOffset {
		return
	}
	var scalePtr, offsetPtr *float64
	if hasScale {
		scalePtr = &scale
	}
	if hasOffset {
		offsetPtr = &offset
	}
	cal := xtce.BuildScaleOffsetCalibrator(scalePtr, offsetPtr)
	switch e := enc.(type) {
	case *xtce.IntegerDataEncoding:
		e.DefaultCalibrator = cal
	case *xtce.FloatDataEncoding:
		e.DefaultCalibrator = cal
	}
}

func parseOptionalFloatAttr(el *etree.Element, attr string) (float64, bool) {
	s := el.SelectAttrValue(attr, "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseEnumerationList(el *etree.Element) (map[int64]string, error) {
	if el == nil {
		return nil, trace.BadParameter("missing <%s>", elEnumerationList)
	}
	out := map[int64]string{}
	for _, e := range el.ChildElements() {
		v, err := strconv.ParseInt(e.SelectAttrValue(attrValue, ""), 10, 64)
		if err != nil {
			return nil, trace.BadParameter("invalid enumeration value: %v", err)
		}
		out[v] = e.SelectAttrValue(attrLabel, "")
	}
	return out, nil
}

func parseCalibrators(el *etree.Element) (def xtce.Calibrator, contexts []xtce.ContextCalibrator, err error) {
	if d := el.SelectElement(elDefaultCalibrator); d != nil {
		def, err = parseCalibrator(d)
		if err != nil {
			return nil, nil, err
		}
	}
	if list := el.SelectElement(elContextCalibratorList); list != nil {
		for _, cc := range list.SelectElements(elContextCalibrator) {
			crit, err := parseMatchCriteriaContainer(cc.SelectElement(elMatchCriteria))
			if err != nil {
				return nil, nil, err
			}
			var calEl *etree.Element
			if p := cc.SelectElement(elPolynomialCalibrator); p != nil {
				calEl = p
			} else if s := cc.SelectElement(elSplineCalibrator); s != nil {
				calEl = s
			} else {
				return nil, nil, trace.BadParameter("<%s> has no recognized calibrator child", elContextCalibrator)
			}
			cal, err := parseCalibrator(calEl)
			if err != nil {
				return nil, nil, err
			}
			contexts = append(contexts, xtce.ContextCalibrator{Criteria: crit, Calibrator: cal})
		}
	}
	return def, contexts, nil
}

func parseCalibrator(el *etree.Element) (xtce.Calibrator, error) {
	if el == nil {
		return nil, nil
	}
	target := el
	if el.Tag == elDefaultCalibrator {
		if p := el.SelectElement(elPolynomialCalibrator); p != nil {
			target = p
		} else if s := el.SelectElement(elSplineCalibrator); s != nil {
			target = s
		} else {
			return nil, trace.BadParameter("<%s> has no recognized calibrator child", elDefaultCalibrator)
		}
	}
	switch target.Tag {
	case elPolynomialCalibrator:
		var terms []xtce.PolynomialTerm
		for _, t := range target.SelectElements(elTerm) {
			coeff, _ := strconv.ParseFloat(t.SelectAttrValue(attrCoefficient, "0"), 64)
			exp, _ := strconv.ParseFloat(t.SelectAttrValue(attrExponent, "0"), 64)
			terms = append(terms, xtce.PolynomialTerm{Coefficient: coeff, Exponent: exp})
		}
		return &xtce.PolynomialCalibrator{Terms: terms}, nil
	case elSplineCalibrator:
		var points []xtce.SplinePoint
		for _, p := range target.SelectElements(elSplinePoint) {
			raw, _ := strconv.ParseFloat(p.SelectAttrValue(attrRaw, "0"), 64)
			cal, _ := strconv.ParseFloat(p.SelectAttrValue(attrCalibrated, "0"), 64)
			points = append(points, xtce.SplinePoint{Raw: raw, Calibrated: cal})
		}
		order := xtce.SplineOrderFirst
		if target.SelectAttrValue(attrOrder, "1") == "0" {
			order = xtce.SplineOrderZero
		}
		extrapolate := target.SelectAttrValue(attrExtrapolate, "false") == "true"
		return xtce.NewSplineCalibrator(points, order, extrapolate), nil
	default:
		return nil, trace.BadParameter("unrecognized calibrator element <%s>", target.Tag)
	}
}

func parseDiscreteLookups(el *etree.Element) ([]xtce.DiscreteLookup, error) {
	var out []xtce.DiscreteLookup
	for _, dl := range el.SelectElements(elDiscreteLookup) {
		v, err := strconv.ParseInt(dl.SelectAttrValue(attrValue, ""), 10, 64)
		if err != nil {
			return nil, trace.BadParameter("invalid discrete lookup value: %v", err)
		}
		crit, err := parseMatchCriteriaContainer(dl.SelectElement(elMatchCriteria))
		if err != nil {
			return nil, err
		}
		out = append(out, xtce.DiscreteLookup{Criteria: crit, Value: v})
	}
	return out, nil
}

func parseMatchCriteriaContainer(el *etree.Element) ([]xtce.MatchCriteria, error) {
	if el == nil {
		return nil, nil
	}
	var out []xtce.MatchCriteria
	for _, c := range el.ChildElements() {
		mc, err := parseMatchCriterion(c)
		if err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, nil
}

func parseMatchCriterion(el *etree.Element) (xtce.MatchCriteria, error) {
	switch el.Tag {
	case elComparison:
		return parseComparison(el)
	case elComparisonList:
		var crit []xtce.MatchCriteria
		for _, c := range el.SelectElements(elComparison) {
			mc, err := parseComparison(c)
			if err != nil {
				return nil, err
			}
			crit = append(crit, mc)
		}
		return &xtce.And{Criteria: crit}, nil
	case elCondition:
		return parseCondition(el)
	case elAndedConditions:
		crit, err := parseMatchCriteriaContainer(el)
		if err != nil {
			return nil, err
		}
		return &xtce.And{Criteria: crit}, nil
	case elOredConditions:
		crit, err := parseMatchCriteriaContainer(el)
		if err != nil {
			return nil, err
		}
		return &xtce.Or{Criteria: crit}, nil
	default:
		return nil, trace.BadParameter("unrecognized match criterion element <%s>", el.Tag)
	}
}

func parseComparison(el *etree.Element) (*xtce.Comparison, error) {
	ref := el.SelectAttrValue(attrParameterRef, "")
	op, err := xtce.ParseOperator(el.SelectAttrValue(attrComparisonOperator, "=="))
	if err != nil {
		return nil, err
	}
	return &xtce.Comparison{
		ParameterName: ref,
		Operator:      op,
		RequiredValue: el.SelectAttrValue(attrValue, ""),
		UseCalibrated: el.SelectAttrValue(attrValuePerformCalibration, "false") == "true",
	}, nil
}

func parseCondition(el *etree.Element) (*xtce.Condition, error) {
	op, err := xtce.ParseOperator(el.SelectAttrValue(attrComparisonOperator, "=="))
	if err != nil {
		return nil, err
	}
	cond := &xtce.Condition{
		LeftParameterName: el.SelectAttrValue("parameterRef1", ""),
		Operator:          op,
	}
	if ref2 := el.SelectAttrValue("parameterRef2", ""); ref2 != "" {
		cond.RightIsParameter = true
		cond.RightParameterName = ref2
	} else {
		cond.RightValue = el.SelectAttrValue("value2", "")
	}
	return cond, nil
}

func parseContainer(el *etree.Element) (*xtce.SequenceContainer, error) {
	if el.Tag != elSequenceContainer {
		return nil, trace.BadParameter("unexpected element <%s> in container set", el.Tag)
	}
	name := el.SelectAttrValue(attrName, "")
	c := &xtce.SequenceContainer{
		Name:             name,
		Abstract:         el.SelectAttrValue(attrAbstract, "false") == "true",
		ShortDescription: el.SelectAttrValue(attrShortDesc, ""),
		LongDescription:  el.SelectAttrValue(attrLongDesc, ""),
	}

	if base := el.SelectElement(elBaseContainer); base != nil {
		c.BaseContainer = base.SelectAttrValue(attrContainerRef, "")
		if rc := base.SelectElement(elRestrictionCriteria); rc != nil {
			crit, err := parseMatchCriteriaContainer(rc)
			if err != nil {
				return nil, err
			}
			c.RestrictionCriteria = crit
		}
	}

	if entryList := el.SelectElement(elEntryList); entryList != nil {
		for _, e := range entryList.ChildElements() {
			switch e.Tag {
			case elParameterRefEntry:
				c.Entries = append(c.Entries, xtce.ParameterEntry(e.SelectAttrValue(attrParameterRef, "")))
			case elContainerRefEntry:
				c.Entries = append(c.Entries, xtce.ContainerEntry(e.SelectAttrValue(attrContainerRef, "")))
			default:
				return nil, trace.BadParameter("unrecognized entry element <%s> in container %q", e.Tag, name)
			}
		}
	}

	return c, nil
}

func hexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string %q", s)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		var b int
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &b); err != nil {
			return nil, err
		}
		out[i] = byte(b)
	}
	return out, nil
}
