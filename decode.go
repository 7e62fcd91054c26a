package spacepacket

import (
	"github.com/yobol/go-spacepacket/bitstream"
	"github.com/yobol/go-spacepacket/xtce"
)

// decodeContainer parses containerName's entries off cur into values, then
// walks the container-inheritance state machine: if the container has
// inheritors, the first one whose restriction criteria hold (in declaration
// order) is descended into recursively. An abstract container with no
// matching inheritor is a Coverage error; a concrete one with no match is
// simply the end of decoding for this packet.
func decodeContainer(def *xtce.PacketDefinition, containerName string, cur *bitstream.Cursor, values *ParameterValues) error {
	c, ok := def.Containers[containerName]
	if !ok {
		return xtce.ValidationErrorf("container %q is not defined", containerName)
	}

	for _, e := range c.Entries {
		switch e.Kind {
		case xtce.EntryParameter:
			p, ok := def.Parameters[e.ParameterName]
			if !ok {
				return xtce.ValidationErrorf("container %q references undefined parameter %q", containerName, e.ParameterName)
			}
			raw, derived, err := p.Parse(cur, values)
			if err != nil {
				return err
			}
			values.Set(e.ParameterName, ParsedValue{
				Raw:              raw,
				Derived:          derived,
				Unit:             p.Type.Unit(),
				ShortDescription: p.ShortDescription,
				LongDescription:  p.LongDescription,
			})
		case xtce.EntryContainer:
			if err := decodeContainer(def, e.ContainerName, cur, values); err != nil {
				return err
			}
		}
	}

	inheritors := c.Inheritors()
	if len(inheritors) == 0 {
		return nil
	}

	for _, childName := range inheritors {
		child := def.Containers[childName]
		matched, err := child.EvaluateRestrictions(values)
		if err != nil {
			return err
		}
		if matched {
			return decodeContainer(def, childName, cur, values)
		}
	}

	if c.Abstract {
		return xtce.CoverageErrorf("container %q is abstract and no inheritor's restriction criteria matched", containerName)
	}
	return nil
}
