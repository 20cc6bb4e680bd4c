package mib

// Module is one parsed MIB module: its dependencies, the OID value
// assignments it makes and the types it defines. Modules are produced by
// the parser and consumed by the loader; callers normally work with the
// resolved tree through MIB and Resolver instead.
type Module struct {
	Name string

	// Depends lists the modules named in IMPORTS, in source order.
	Depends []string

	imports     map[string]string // symbol -> module it is imported from
	definitions []*definition
	types       map[string]string // type name -> referenced type name
}

func newModule(name string) *Module {
	return &Module{
		Name:    name,
		imports: make(map[string]string),
		types:   make(map[string]string),
	}
}

// Definitions returns the names of the OID assignments in source order.
func (m *Module) Definitions() []string {
	names := make([]string, len(m.definitions))
	for i, d := range m.definitions {
		names[i] = d.name
	}
	return names
}

// definition is an unresolved OID assignment: { parent arc arc ... }.
type definition struct {
	name   string
	parent string // symbolic first component, empty when it was numeric
	arcs   []uint32
	macro  string

	syntax  string // SYNTAX type name for OBJECT-TYPE
	access  Access
	indexed bool // INDEX or AUGMENTS present
	line    int
}
