package mib

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownObject is returned when a name is not defined by any loaded module.
	ErrUnknownObject = errors.New("unknown MIB object")

	// ErrInvalidReference is returned for references that are not a name,
	// MODULE::name or dotted OID, optionally followed by a numeric suffix.
	ErrInvalidReference = errors.New("invalid object reference")
)

// ResolveError reports the reference that failed to resolve.
type ResolveError struct {
	Ref string
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Ref, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Resolver translates between object references and OIDs over a loaded MIB.
// It is safe for concurrent use.
type Resolver struct {
	mib *MIB

	mu    sync.RWMutex
	cache map[string]*Node
}

// NewResolver returns a Resolver over m.
func NewResolver(m *MIB) *Resolver {
	return &Resolver{
		mib:   m,
		cache: make(map[string]*Node),
	}
}

// MIB returns the tree the resolver reads from.
func (r *Resolver) MIB() *MIB { return r.mib }

// Resolve returns the OID for ref. Accepted forms are "name", "name.1.2",
// "MODULE::name", "MODULE::name.1.2" and numeric "1.3.6.1..." with or
// without a leading dot.
func (r *Resolver) Resolve(ref string) (OID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &ResolveError{Ref: ref, Err: ErrInvalidReference}
	}

	if ref[0] == '.' || isDigit(ref[0]) {
		oid, err := ParseOID(ref)
		if err != nil {
			return nil, &ResolveError{Ref: ref, Err: fmt.Errorf("%w: %v", ErrInvalidReference, err)}
		}
		return oid, nil
	}

	module, name, suffix, err := splitRef(ref)
	if err != nil {
		return nil, &ResolveError{Ref: ref, Err: err}
	}
	n, err := r.node(module, name)
	if err != nil {
		return nil, &ResolveError{Ref: ref, Err: err}
	}
	return n.OID.Append(suffix...), nil
}

// ResolveName returns the OID of the named object followed by index.
func (r *Resolver) ResolveName(name string, index ...uint32) (OID, error) {
	oid, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return oid.Append(index...), nil
}

// Lookup returns the node for a name or MODULE::name.
func (r *Resolver) Lookup(name string) (*Node, error) {
	module, base, suffix, err := splitRef(name)
	if err != nil {
		return nil, &ResolveError{Ref: name, Err: err}
	}
	if len(suffix) > 0 {
		return nil, &ResolveError{Ref: name, Err: fmt.Errorf("%w: instance suffix not allowed", ErrInvalidReference)}
	}
	n, err := r.node(module, base)
	if err != nil {
		return nil, &ResolveError{Ref: name, Err: err}
	}
	return n, nil
}

// Translate labels oid with the deepest named node above it and returns the
// remaining arcs as the instance index.
func (r *Resolver) Translate(oid OID) (string, OID, bool) {
	n, ok := r.mib.Longest(oid)
	if !ok {
		return "", nil, false
	}
	return n.Name, oid.TrimPrefix(n.OID), true
}

// NodeAt returns the deepest named node that is oid or an ancestor of it.
func (r *Resolver) NodeAt(oid OID) (*Node, bool) {
	return r.mib.Longest(oid)
}

// Syntax returns the base type of the object oid is an instance of.
func (r *Resolver) Syntax(oid OID) BaseType {
	n, ok := r.mib.Longest(oid)
	if !ok {
		return BaseUnknown
	}
	return n.Syntax
}

func (r *Resolver) node(module, name string) (*Node, error) {
	key := module + "::" + name

	r.mu.RLock()
	n, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return n, nil
	}

	n, ok = r.mib.Node(module, name)
	if !ok {
		if module != "" {
			return nil, fmt.Errorf("%w: %s::%s", ErrUnknownObject, module, name)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}

	r.mu.Lock()
	r.cache[key] = n
	r.mu.Unlock()
	return n, nil
}

// splitRef breaks "MODULE::name.1.2" into its parts.
func splitRef(ref string) (module, name string, suffix OID, err error) {
	rest := ref
	if i := strings.Index(rest, "::"); i >= 0 {
		module, rest = rest[:i], rest[i+2:]
		if module == "" {
			return "", "", nil, fmt.Errorf("%w: empty module name", ErrInvalidReference)
		}
	}

	name = rest
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		name = rest[:i]
		suffix, err = ParseOID(rest[i+1:])
		if err != nil {
			return "", "", nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		if len(suffix) == 0 {
			return "", "", nil, fmt.Errorf("%w: empty instance suffix", ErrInvalidReference)
		}
	}
	if name == "" || !isLetter(name[0]) {
		return "", "", nil, fmt.Errorf("%w: %q is not an object name", ErrInvalidReference, name)
	}
	return module, name, suffix, nil
}
