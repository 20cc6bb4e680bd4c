package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/gosnmp/gosnmp"

	"github.com/HerbHall/hpswitch/pkg/mib"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// Object is one value held by an Agent.
type Object struct {
	Type  gosnmp.Asn1BER
	Value any
}

// Request records one PDU the Agent received.
type Request struct {
	Op   string // "get", "getnext", "getbulk", "set"
	OIDs []string
	PDUs []gosnmp.SnmpPDU
}

// SetHook inspects a SET before it is applied. A non-zero status rejects
// the whole PDU with that status and 1-based index.
type SetHook func(a *Agent, pdus []gosnmp.SnmpPDU) (gosnmp.SNMPError, int)

// Agent is an in-memory SNMP agent implementing snmp.Transport. It keeps
// its objects in lexicographic OID order and answers GET, GETNEXT, GETBULK
// and SET the way a v2c agent would.
type Agent struct {
	mu      sync.Mutex
	objects map[string]Object
	order   []mib.OID

	requests    []Request
	connects    int
	closes      int
	retries     int
	attempts    int
	unreachable bool
	stuck       bool
	setHook     SetHook
}

// NewAgent returns an empty Agent. Options run in order.
func NewAgent(opts ...func(*Agent)) *Agent {
	a := &Agent{objects: make(map[string]Object)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Unreachable makes every request time out as if no agent answered.
func Unreachable() func(*Agent) {
	return func(a *Agent) { a.unreachable = true }
}

// WithSetHook installs a hook run before each SET is applied.
func WithSetHook(h SetHook) func(*Agent) {
	return func(a *Agent) { a.setHook = h }
}

// RejectSets makes every SET fail with status at index.
func RejectSets(status gosnmp.SNMPError, index int) func(*Agent) {
	return WithSetHook(func(*Agent, []gosnmp.SnmpPDU) (gosnmp.SNMPError, int) {
		return status, index
	})
}

// NonIncreasing makes GETNEXT and GETBULK answer with the requested OID
// itself, as a broken agent might.
func NonIncreasing() func(*Agent) {
	return func(a *Agent) { a.stuck = true }
}

// Dialer returns an snmp.Dialer that hands out this Agent.
func (a *Agent) Dialer() snmp.Dialer {
	return func(cfg snmp.Config) (snmp.Transport, error) {
		a.mu.Lock()
		a.retries = cfg.Retries
		a.mu.Unlock()
		return a, nil
	}
}

// Put stores value at oid, replacing any previous value.
func (a *Agent) Put(oid string, typ gosnmp.Asn1BER, value any) *Agent {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store(mib.MustParseOID(oid), Object{Type: typ, Value: value})
	return a
}

// Delete removes the object at oid.
func (a *Agent) Delete(oid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.remove(mib.MustParseOID(oid))
}

// Object returns the value stored at oid.
func (a *Agent) Object(oid string) (Object, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.objects[mib.MustParseOID(oid).String()]
	return o, ok
}

// Len returns the number of stored objects.
func (a *Agent) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.objects)
}

// Requests returns every PDU received so far.
func (a *Agent) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.requests)
}

// Attempts returns how many datagrams an unreachable agent would have
// seen: Retries+1 per request.
func (a *Agent) Attempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts
}

// Connects returns how many times Connect was called.
func (a *Agent) Connects() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connects
}

// Connect implements snmp.Transport.
func (a *Agent) Connect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connects++
	return nil
}

// Closes returns how many times Close was called.
func (a *Agent) Closes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closes
}

// Close implements snmp.Transport.
func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closes++
	return nil
}

// Get implements snmp.Transport.
func (a *Agent) Get(ctx context.Context, oids []string) (*gosnmp.SnmpPacket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, Request{Op: "get", OIDs: oids}); err != nil {
		return nil, err
	}

	pkt := &gosnmp.SnmpPacket{Version: gosnmp.Version2c, PDUType: gosnmp.GetResponse}
	for _, s := range oids {
		oid, err := mib.ParseOID(s)
		if err != nil {
			return nil, err
		}
		o, ok := a.objects[oid.String()]
		switch {
		case ok:
			pkt.Variables = append(pkt.Variables, pdu(oid, o))
		case a.hasSibling(oid):
			pkt.Variables = append(pkt.Variables, pdu(oid, Object{Type: gosnmp.NoSuchInstance}))
		default:
			pkt.Variables = append(pkt.Variables, pdu(oid, Object{Type: gosnmp.NoSuchObject}))
		}
	}
	return pkt, nil
}

// GetNext implements snmp.Transport.
func (a *Agent) GetNext(ctx context.Context, oids []string) (*gosnmp.SnmpPacket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, Request{Op: "getnext", OIDs: oids}); err != nil {
		return nil, err
	}

	pkt := &gosnmp.SnmpPacket{Version: gosnmp.Version2c, PDUType: gosnmp.GetResponse}
	for _, s := range oids {
		oid, err := mib.ParseOID(s)
		if err != nil {
			return nil, err
		}
		pkt.Variables = append(pkt.Variables, a.next(oid))
	}
	return pkt, nil
}

// GetBulk implements snmp.Transport with zero non-repeaters.
func (a *Agent) GetBulk(ctx context.Context, oids []string, maxRepetitions uint32) (*gosnmp.SnmpPacket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, Request{Op: "getbulk", OIDs: oids}); err != nil {
		return nil, err
	}

	pkt := &gosnmp.SnmpPacket{Version: gosnmp.Version2c, PDUType: gosnmp.GetResponse}
	for _, s := range oids {
		oid, err := mib.ParseOID(s)
		if err != nil {
			return nil, err
		}
		for range maxRepetitions {
			v := a.next(oid)
			pkt.Variables = append(pkt.Variables, v)
			if v.Type == gosnmp.EndOfMibView || a.stuck {
				break
			}
			oid = mib.MustParseOID(v.Name)
		}
	}
	return pkt, nil
}

// Set implements snmp.Transport. Either every binding is applied or none.
func (a *Agent) Set(ctx context.Context, pdus []gosnmp.SnmpPDU) (*gosnmp.SnmpPacket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, Request{Op: "set", PDUs: slices.Clone(pdus)}); err != nil {
		return nil, err
	}

	pkt := &gosnmp.SnmpPacket{Version: gosnmp.Version2c, PDUType: gosnmp.GetResponse, Variables: pdus}
	if a.setHook != nil {
		if status, index := a.setHook(a, pdus); status != gosnmp.NoError {
			pkt.Error = status
			pkt.ErrorIndex = uint8(index) //nolint:gosec // G115: test PDUs are small
			return pkt, nil
		}
	}

	for _, p := range pdus {
		oid, err := mib.ParseOID(p.Name)
		if err != nil {
			return nil, err
		}
		a.store(oid, Object{Type: p.Type, Value: decoded(p.Type, p.Value)})
	}
	return pkt, nil
}

// begin records req and fails it when the agent is unreachable. Callers
// hold a.mu.
func (a *Agent) begin(ctx context.Context, req Request) error {
	a.requests = append(a.requests, req)
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.unreachable {
		a.attempts += a.retries + 1
		return fmt.Errorf("request timeout (after %d retries)", a.retries)
	}
	return nil
}

// PutLocked is Put for use inside a SetHook, where the lock is held.
func (a *Agent) PutLocked(oid string, typ gosnmp.Asn1BER, value any) {
	a.store(mib.MustParseOID(oid), Object{Type: typ, Value: value})
}

// DeleteLocked is Delete for use inside a SetHook.
func (a *Agent) DeleteLocked(oid string) {
	a.remove(mib.MustParseOID(oid))
}

func (a *Agent) store(oid mib.OID, o Object) {
	key := oid.String()
	if _, ok := a.objects[key]; !ok {
		i, _ := slices.BinarySearchFunc(a.order, oid, mib.OID.Compare)
		a.order = slices.Insert(a.order, i, oid)
	}
	a.objects[key] = o
}

func (a *Agent) remove(oid mib.OID) {
	key := oid.String()
	if _, ok := a.objects[key]; !ok {
		return
	}
	delete(a.objects, key)
	if i, found := slices.BinarySearchFunc(a.order, oid, mib.OID.Compare); found {
		a.order = slices.Delete(a.order, i, i+1)
	}
}

func (a *Agent) next(oid mib.OID) gosnmp.SnmpPDU {
	if a.stuck {
		return pdu(oid, Object{Type: gosnmp.Integer, Value: 0})
	}
	i, found := slices.BinarySearchFunc(a.order, oid, mib.OID.Compare)
	if found {
		i++
	}
	if i >= len(a.order) {
		return pdu(oid, Object{Type: gosnmp.EndOfMibView})
	}
	next := a.order[i]
	return pdu(next, a.objects[next.String()])
}

// hasSibling reports whether an object exists under the same column,
// which makes a missing OID noSuchInstance rather than noSuchObject. For
// the tables the fixtures know, the column is the entry OID plus one arc
// and the instance may span several arcs; elsewhere the column is the OID
// without its last arc.
func (a *Agent) hasSibling(oid mib.OID) bool {
	if len(oid) < 2 {
		return false
	}
	column := oid[:len(oid)-1]
	for _, entry := range tableEntries {
		if oid.HasPrefix(entry) && len(oid) > len(entry)+1 {
			column = oid[:len(entry)+1]
			break
		}
	}
	for _, o := range a.order {
		if o.HasPrefix(column) {
			return true
		}
	}
	return false
}

func pdu(oid mib.OID, o Object) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: "." + oid.String(), Type: o.Type, Value: o.Value}
}

// decoded converts a value as the client encodes it into the form gosnmp
// hands back after decoding a response.
func decoded(t gosnmp.Asn1BER, v any) any {
	switch x := v.(type) {
	case string:
		if t == gosnmp.OctetString {
			return []byte(x)
		}
	case uint32:
		return uint(x)
	}
	return v
}
