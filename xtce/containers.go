package xtce

// EntryKind distinguishes a container's two kinds of entry.
type EntryKind int

const (
	EntryParameter EntryKind = iota
	EntryContainer
)

// Entry is one item in a SequenceContainer's ordered list: either "parse
// this parameter next" or "parse this other container's entries inline
// here" (an aggregate-by-reference, used to factor out shared header
// layouts).
type Entry struct {
	Kind          EntryKind
	ParameterName string // set when Kind == EntryParameter
	ContainerName string // set when Kind == EntryContainer
}

// ParameterEntry builds an EntryParameter entry.
func ParameterEntry(name string) Entry {
	return Entry{Kind: EntryParameter, ParameterName: name}
}

// ContainerEntry builds an EntryContainer entry.
func ContainerEntry(name string) Entry {
	return Entry{Kind: EntryContainer, ContainerName: name}
}

// SequenceContainer is an ordered list of entries, optionally inheriting
// from a base container and restricted to packets matching RestrictionCriteria.
//
// Inheritance forms a tree: a root container (no BaseContainer) has zero or
// more inheritors, each of which may itself be inherited from. Decoding a
// packet walks down from the root, and at each container with inheritors,
// evaluates each inheritor's RestrictionCriteria in declaration order,
// descending into the first one that matches. An Abstract container with no
// matching inheritor is a Coverage error; a concrete one just stops there.
type SequenceContainer struct {
	Name                 string
	Entries              []Entry
	BaseContainer         string // "" if this is a root container
	RestrictionCriteria  []MatchCriteria
	Abstract             bool
	ShortDescription     string
	LongDescription      string

	inheritors []string // populated by PacketDefinition.Finalize
}

// Inheritors returns the names of containers that declare this one as their
// BaseContainer, in declaration order. Only valid after Finalize.
func (c *SequenceContainer) Inheritors() []string {
	return c.inheritors
}

// EvaluateRestrictions evaluates every restriction criterion against
// values, short-circuiting like an implicit And. A container with no
// restriction criteria always holds.
func (c *SequenceContainer) EvaluateRestrictions(values ValueSource) (bool, error) {
	for _, crit := range c.RestrictionCriteria {
		ok, err := crit.Evaluate(values)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
