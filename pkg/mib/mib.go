package mib

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrModuleNotFound is returned when a requested or imported module is
	// not present in any source.
	ErrModuleNotFound = errors.New("MIB module not found")

	// ErrUnresolvedParent is returned when an OID assignment names a parent
	// that no loaded module defines.
	ErrUnresolvedParent = errors.New("unresolved OID parent")
)

// roots are the top-level arcs every OID tree starts from.
var roots = map[string]uint32{
	"ccitt":           0,
	"iso":             1,
	"joint-iso-ccitt": 2,
}

// Node is one named point in the OID tree.
type Node struct {
	Name     string
	Module   string
	OID      OID
	Kind     Kind
	Syntax   BaseType
	TypeName string // SYNTAX as written, before textual conventions are followed
	Access   Access
}

// Qualified returns the MODULE::name form.
func (n *Node) Qualified() string {
	if n.Module == "" {
		return n.Name
	}
	return n.Module + "::" + n.Name
}

// MIB is an immutable OID tree built from a set of loaded modules.
type MIB struct {
	modules []*Module
	byName  map[string]*Module

	scoped map[string]map[string]*Node // module -> name -> node
	global map[string]*Node            // first definition of each name
	byOID  map[string]*Node
}

// Modules returns the names of the loaded modules in load order.
func (m *MIB) Modules() []string {
	names := make([]string, len(m.modules))
	for i, mod := range m.modules {
		names[i] = mod.Name
	}
	return names
}

// Len returns the number of named nodes in the tree.
func (m *MIB) Len() int { return len(m.byOID) }

// Node returns the node called name, optionally restricted to a module.
func (m *MIB) Node(module, name string) (*Node, bool) {
	if module == "" {
		n, ok := m.global[name]
		return n, ok
	}
	n, ok := m.scoped[module][name]
	return n, ok
}

// Longest returns the deepest named node that is oid or an ancestor of it.
func (m *MIB) Longest(oid OID) (*Node, bool) {
	for i := len(oid); i > 0; i-- {
		if n, ok := m.byOID[oid[:i].String()]; ok {
			return n, true
		}
	}
	return nil, false
}

// build resolves every definition of every module into the tree. Parents
// are looked up in the defining module first, then in the module the
// symbol is imported from, then by global name and finally among the roots.
func build(modules []*Module) (*MIB, error) {
	m := &MIB{
		modules: modules,
		byName:  make(map[string]*Module, len(modules)),
		scoped:  make(map[string]map[string]*Node, len(modules)),
		global:  make(map[string]*Node),
		byOID:   make(map[string]*Node),
	}
	for _, mod := range modules {
		m.byName[mod.Name] = mod
		m.scoped[mod.Name] = make(map[string]*Node)
	}
	for name, arc := range roots {
		n := &Node{Name: name, OID: OID{arc}}
		m.global[name] = n
		m.byOID[n.OID.String()] = n
	}

	type pendingDef struct {
		mod *Module
		def *definition
	}
	var pending []pendingDef
	for _, mod := range modules {
		for _, d := range mod.definitions {
			pending = append(pending, pendingDef{mod, d})
		}
	}

	for len(pending) > 0 {
		var rest []pendingDef
		for _, p := range pending {
			parent, ok := m.parentOf(p.mod, p.def)
			if !ok {
				rest = append(rest, p)
				continue
			}
			m.add(p.mod, p.def, parent)
		}
		if len(rest) == len(pending) {
			return nil, unresolvedError(rest[0].mod, rest[0].def, len(rest))
		}
		pending = rest
	}

	// Unqualified names and OIDs belong to the first module, in load
	// order, that defines them.
	for _, mod := range modules {
		for _, d := range mod.definitions {
			n := m.scoped[mod.Name][d.name]
			if _, dup := m.global[d.name]; !dup {
				m.global[d.name] = n
			}
			if _, dup := m.byOID[n.OID.String()]; !dup {
				m.byOID[n.OID.String()] = n
			}
		}
	}
	return m, nil
}

func unresolvedError(mod *Module, d *definition, count int) error {
	msg := fmt.Sprintf("%s::%s (line %d) names parent %q", mod.Name, d.name, d.line, d.parent)
	if count > 1 {
		msg += fmt.Sprintf(" and %d more", count-1)
	}
	return fmt.Errorf("%w: %s", ErrUnresolvedParent, msg)
}

// parentOf returns the parent node of d, or nil with ok=true when the value
// starts with a numeric arc.
func (m *MIB) parentOf(mod *Module, d *definition) (*Node, bool) {
	if d.parent == "" {
		return nil, true
	}
	if n, ok := m.scoped[mod.Name][d.parent]; ok {
		return n, true
	}
	if defines(mod, d.parent) {
		// Defined locally but not resolved yet.
		return nil, false
	}
	if from, ok := mod.imports[d.parent]; ok {
		if n, ok := m.scoped[from][d.parent]; ok {
			return n, true
		}
		if src, ok := m.byName[from]; ok && defines(src, d.parent) {
			return nil, false
		}
	}
	for _, other := range m.modules {
		if n, ok := m.scoped[other.Name][d.parent]; ok {
			return n, true
		}
		if defines(other, d.parent) {
			return nil, false
		}
	}
	n, ok := m.global[d.parent]
	return n, ok
}

func defines(mod *Module, name string) bool {
	for _, d := range mod.definitions {
		if d.name == name {
			return true
		}
	}
	return false
}

func (m *MIB) add(mod *Module, d *definition, parent *Node) {
	var oid OID
	if parent != nil {
		oid = parent.OID.Append(d.arcs...)
	} else {
		oid = OID(d.arcs).Append()
	}

	n := &Node{
		Name:     d.name,
		Module:   mod.Name,
		OID:      oid,
		TypeName: d.syntax,
		Access:   d.access,
	}
	if d.macro == "OBJECT-TYPE" {
		switch {
		case d.syntax == "SEQUENCE OF":
			n.Kind = KindTable
		case d.indexed:
			n.Kind = KindRow
		case parent != nil && parent.Kind == KindRow:
			n.Kind = KindColumn
		default:
			n.Kind = KindScalar
		}
		n.Syntax = m.baseType(mod, d.syntax)
	}

	m.scoped[mod.Name][d.name] = n
}

// baseType follows textual conventions and type assignments down to a
// primitive. Primitive names win over any module's own definition of them.
func (m *MIB) baseType(mod *Module, name string) BaseType {
	for depth := 0; depth < 16 && name != ""; depth++ {
		if b, ok := primitiveTypes[name]; ok {
			return b
		}
		next, owner, ok := m.lookupType(mod, name)
		if !ok {
			return BaseUnknown
		}
		name, mod = next, owner
	}
	return BaseUnknown
}

func (m *MIB) lookupType(mod *Module, name string) (string, *Module, bool) {
	if t, ok := mod.types[name]; ok {
		return t, mod, true
	}
	if from, ok := mod.imports[name]; ok {
		if src, ok := m.byName[from]; ok {
			if t, ok := src.types[name]; ok {
				return t, src, true
			}
		}
	}
	for _, other := range m.modules {
		if t, ok := other.types[name]; ok {
			return t, other, true
		}
	}
	return "", nil, false
}

// Names returns every node name that starts with prefix, sorted.
func (m *MIB) Names(prefix string) []string {
	var names []string
	for name := range m.global {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
