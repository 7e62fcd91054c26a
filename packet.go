// Package spacepacket decodes streams of CCSDS Space Packets against an XTCE
// packet definition: github.com/yobol/go-spacepacket/xtce builds and
// indexes the definition, github.com/yobol/go-spacepacket/bitstream supplies
// the bit-level reads and stream adapters, and this package ties the two
// together into a packet-at-a-time Generator.
package spacepacket

import "github.com/yobol/go-spacepacket/xtce"

// ParsedValue is one parameter's decoded value: its raw (wire-level) form,
// its derived (calibrated, decoded, or enumerated) form, and the
// descriptive metadata carried by its Parameter and ParameterType.
type ParsedValue struct {
	Raw              interface{}
	Derived          interface{}
	Unit             string
	ShortDescription string
	LongDescription  string
}

// ParameterValues is an insertion-ordered map of parameter name to decoded
// value: the order parameters were parsed in (wire order, following
// whatever inheritance path a packet took) is preserved for iteration,
// matching the source order a human reading a packet dump would expect.
type ParameterValues struct {
	order  []string
	index  map[string]int
	values []ParsedValue
}

// NewParameterValues returns an empty, ready-to-use ParameterValues.
func NewParameterValues() *ParameterValues {
	return &ParameterValues{index: map[string]int{}}
}

// Set records val under name, overwriting in place if name was already
// set (preserving its original position) or appending if it's new.
func (pv *ParameterValues) Set(name string, val ParsedValue) {
	if i, ok := pv.index[name]; ok {
		pv.values[i] = val
		return
	}
	pv.index[name] = len(pv.order)
	pv.order = append(pv.order, name)
	pv.values = append(pv.values, val)
}

// Get returns the decoded value for name, if present.
func (pv *ParameterValues) Get(name string) (ParsedValue, bool) {
	i, ok := pv.index[name]
	if !ok {
		return ParsedValue{}, false
	}
	return pv.values[i], true
}

// Value implements xtce.ValueSource.
func (pv *ParameterValues) Value(name string) (raw, derived interface{}, ok bool) {
	v, ok := pv.Get(name)
	if !ok {
		return nil, nil, false
	}
	return v.Raw, v.Derived, true
}

// Names returns parameter names in the order they were parsed.
func (pv *ParameterValues) Names() []string {
	return pv.order
}

// Len returns the number of parameters recorded so far.
func (pv *ParameterValues) Len() int {
	return len(pv.order)
}

var _ xtce.ValueSource = (*ParameterValues)(nil)

// Packet is one fully decoded CCSDS space packet: its raw bytes (primary
// header included), the parsed primary header fields, and every parameter
// value decoded while walking the container tree.
type Packet struct {
	Raw    []byte
	Header PrimaryHeader
	Values *ParameterValues
}
