package xtce

// PacketDefinition is a fully built, cross-referenced set of parameter
// types, parameters, and containers: the in-memory equivalent of one XTCE
// SpaceSystem document, indexed for decode-time lookups.
type PacketDefinition struct {
	ParameterTypes map[string]ParameterType
	Parameters     map[string]*Parameter
	Containers     map[string]*SequenceContainer

	RootContainerName string

	// containerOrder records the order containers were added in (true XML
	// declaration order, when built via xtce/xtcexml.Load), so Finalize can
	// populate each container's inheritors in that same order rather than
	// an arbitrary map-iteration order.
	containerOrder []string

	finalized bool
}

// NewPacketDefinition returns an empty definition ready for a Builder to
// populate.
func NewPacketDefinition() *PacketDefinition {
	return &PacketDefinition{
		ParameterTypes: map[string]ParameterType{},
		Parameters:     map[string]*Parameter{},
		Containers:     map[string]*SequenceContainer{},
	}
}

// Finalize cross-checks every reference in the definition (entries that
// name parameters or containers, containers that name a base container, a
// configured root container) and computes each container's inheritor list.
// Once Finalize succeeds, the definition is safe to decode packets against
// concurrently from multiple goroutines (it is never mutated again).
func (d *PacketDefinition) Finalize() error {
	if d.RootContainerName == "" {
		return ValidationErrorf("packet definition has no root container set")
	}
	if _, ok := d.Containers[d.RootContainerName]; !ok {
		return ValidationErrorf("root container %q is not defined", d.RootContainerName)
	}

	for name, c := range d.Containers {
		for _, e := range c.Entries {
			switch e.Kind {
			case EntryParameter:
				if _, ok := d.Parameters[e.ParameterName]; !ok {
					return ValidationErrorf("container %q references undefined parameter %q", name, e.ParameterName)
				}
			case EntryContainer:
				if _, ok := d.Containers[e.ContainerName]; !ok {
					return ValidationErrorf("container %q references undefined container %q", name, e.ContainerName)
				}
			}
		}
		if c.BaseContainer != "" {
			if _, ok := d.Containers[c.BaseContainer]; !ok {
				return ValidationErrorf("container %q declares undefined base container %q", name, c.BaseContainer)
			}
		}
	}

	for name, p := range d.Parameters {
		if p.Type == nil {
			return ValidationErrorf("parameter %q has no type", name)
		}
	}

	if err := detectContainerCycles(d.Containers); err != nil {
		return err
	}

	// Populate inheritors in true declaration order (containerOrder), not
	// map-iteration order: when more than one inheritor's restriction
	// criteria could match the same packet, the first one declared wins,
	// and that tie-break has to be reproducible from the source document's
	// actual container order, not an incidental sort of container names.
	for _, name := range d.containerOrder {
		c := d.Containers[name]
		if c.BaseContainer == "" {
			continue
		}
		base := d.Containers[c.BaseContainer]
		base.inheritors = append(base.inheritors, name)
	}

	d.finalized = true
	return nil
}

func detectContainerCycles(containers map[string]*SequenceContainer) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(containers))
	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return ValidationErrorf("container %q participates in a base-container cycle", name)
		}
		color[name] = gray
		if c, ok := containers[name]; ok && c.BaseContainer != "" {
			if err := visit(c.BaseContainer); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}
	for name := range containers {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Builder incrementally assembles a PacketDefinition, the way a hand-rolled
// definition or an XML loader both do: add every parameter type, parameter,
// and container, set the root, then Build.
type Builder struct {
	def *PacketDefinition
}

// NewBuilder starts a new, empty definition.
func NewBuilder() *Builder {
	return &Builder{def: NewPacketDefinition()}
}

func (b *Builder) AddParameterType(name string, t ParameterType) *Builder {
	b.def.ParameterTypes[name] = t
	return b
}

func (b *Builder) AddParameter(p *Parameter) *Builder {
	b.def.Parameters[p.Name] = p
	return b
}

func (b *Builder) AddContainer(c *SequenceContainer) *Builder {
	if _, exists := b.def.Containers[c.Name]; !exists {
		b.def.containerOrder = append(b.def.containerOrder, c.Name)
	}
	b.def.Containers[c.Name] = c
	return b
}

func (b *Builder) SetRootContainer(name string) *Builder {
	b.def.RootContainerName = name
	return b
}

// Build finalizes and returns the definition, or the first validation error
// encountered.
func (b *Builder) Build() (*PacketDefinition, error) {
	if err := b.def.Finalize(); err != nil {
		return nil, err
	}
	return b.def, nil
}
