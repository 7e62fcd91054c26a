package xtce

// StandardHeaderParameterNames are the seven CCSDS primary header fields, in
// wire order.
var StandardHeaderParameterNames = []string{
	"VERSION", "TYPE", "SEC_HDR_FLG", "APID", "SEQ_FLGS", "SRC_SEQ_CTR", "PKT_LEN",
}

// StandardHeaderParameters builds the seven Parameter definitions for a
// CCSDS primary header. A definition built from a flat field list (rather
// than hand-authored XML that already includes these) can splice these in
// once instead of re-describing bit widths every caller already knows.
func StandardHeaderParameters() []*Parameter {
	uint8Type := func(bits int, name string) *Parameter {
		return &Parameter{
			Name: name,
			Type: &IntegerParameterType{Encoding: &IntegerDataEncoding{SizeInBits: bits, Encoding: Unsigned}},
		}
	}
	return []*Parameter{
		uint8Type(3, "VERSION"),
		uint8Type(1, "TYPE"),
		uint8Type(1, "SEC_HDR_FLG"),
		uint8Type(11, "APID"),
		uint8Type(2, "SEQ_FLGS"),
		uint8Type(14, "SRC_SEQ_CTR"),
		uint8Type(16, "PKT_LEN"),
	}
}

// PrependHeaderEntries inserts entries for the seven standard header
// parameters at the front of c's entry list, for use alongside
// StandardHeaderParameters when splicing a synthesized header into a
// container built from a flat field list.
func PrependHeaderEntries(c *SequenceContainer) {
	headerEntries := make([]Entry, len(StandardHeaderParameterNames))
	for i, name := range StandardHeaderParameterNames {
		headerEntries[i] = ParameterEntry(name)
	}
	c.Entries = append(headerEntries, c.Entries...)
}
