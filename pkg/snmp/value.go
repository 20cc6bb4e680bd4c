package snmp

import (
	"fmt"
	"math"
	"math/big"
	"net/netip"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/HerbHall/hpswitch/pkg/mib"
)

// Variable is one (OID, value) pair returned by the agent.
type Variable struct {
	OID   mib.OID
	Type  gosnmp.Asn1BER
	Value any
}

// Int returns an integer value as int64.
func (v Variable) Int() (int64, error) {
	switch x := v.Value.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil //nolint:gosec // G115: SNMP integers fit in int64
	case uint32:
		return int64(x), nil
	case uint64:
		if x > 1<<63-1 {
			return 0, fmt.Errorf("%s: value %d overflows int64", v.OID, x)
		}
		return int64(x), nil
	case *big.Int:
		if !x.IsInt64() {
			return 0, fmt.Errorf("%s: value %s overflows int64", v.OID, x)
		}
		return x.Int64(), nil
	default:
		return 0, fmt.Errorf("%s: %v is not an integer", v.OID, v.Type)
	}
}

// Uint returns a counter, gauge, timeticks or non-negative integer value.
func (v Variable) Uint() (uint64, error) {
	switch x := v.Value.(type) {
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	case int, int64, *big.Int:
		n, err := v.Int()
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, fmt.Errorf("%s: negative value %d", v.OID, n)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("%s: %v is not an unsigned integer", v.OID, v.Type)
	}
}

// String renders the value for display. OCTET STRING values are returned
// as text; use Bytes for binary data.
func (v Variable) String() string {
	switch x := v.Value.(type) {
	case []byte:
		return string(x)
	case string:
		if v.Type == gosnmp.ObjectIdentifier {
			return strings.TrimPrefix(x, ".")
		}
		return x
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Bytes returns an OCTET STRING value.
func (v Variable) Bytes() ([]byte, error) {
	switch x := v.Value.(type) {
	case []byte:
		return x, nil
	case string:
		if v.Type == gosnmp.OctetString {
			return []byte(x), nil
		}
	}
	return nil, fmt.Errorf("%s: %v is not an octet string", v.OID, v.Type)
}

// IP returns an IpAddress value.
func (v Variable) IP() (netip.Addr, error) {
	switch x := v.Value.(type) {
	case string:
		addr, err := netip.ParseAddr(x)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("%s: %w", v.OID, err)
		}
		return addr, nil
	case []byte:
		if addr, ok := netip.AddrFromSlice(x); ok {
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%s: %v is not an IP address", v.OID, v.Type)
}

// OIDValue returns an OBJECT IDENTIFIER value.
func (v Variable) OIDValue() (mib.OID, error) {
	s, ok := v.Value.(string)
	if !ok || v.Type != gosnmp.ObjectIdentifier {
		return nil, fmt.Errorf("%s: %v is not an object identifier", v.OID, v.Type)
	}
	return mib.ParseOID(s)
}

// Duration returns a TimeTicks value.
func (v Variable) Duration() (time.Duration, error) {
	ticks, err := v.Uint()
	if err != nil {
		return 0, err
	}
	return time.Duration(ticks) * 10 * time.Millisecond, nil //nolint:gosec // G115: TimeTicks is 32-bit
}

func newVariable(pdu gosnmp.SnmpPDU) (Variable, error) {
	oid, err := mib.ParseOID(pdu.Name)
	if err != nil {
		return Variable{}, fmt.Errorf("agent returned malformed OID %q: %w", pdu.Name, err)
	}
	return Variable{OID: oid, Type: pdu.Type, Value: pdu.Value}, nil
}

// Binding is one name/value pair for a SET. Name is any reference the
// resolver accepts. When Type is zero the wire type comes from the object's
// MIB syntax.
type Binding struct {
	Name  string
	Type  gosnmp.Asn1BER
	Value any
}

// wireType maps a MIB base type to the BER type gosnmp encodes.
func wireType(b mib.BaseType) (gosnmp.Asn1BER, bool) {
	switch b {
	case mib.BaseInteger:
		return gosnmp.Integer, true
	case mib.BaseOctetString, mib.BaseBits:
		return gosnmp.OctetString, true
	case mib.BaseObjectIdentifier:
		return gosnmp.ObjectIdentifier, true
	case mib.BaseIpAddress:
		return gosnmp.IPAddress, true
	case mib.BaseCounter32:
		return gosnmp.Counter32, true
	case mib.BaseGauge32, mib.BaseUnsigned32:
		return gosnmp.Gauge32, true
	case mib.BaseTimeTicks:
		return gosnmp.TimeTicks, true
	case mib.BaseCounter64:
		return gosnmp.Counter64, true
	case mib.BaseOpaque:
		return gosnmp.Opaque, true
	default:
		return 0, false
	}
}

// inferType guesses a wire type from the Go value when the MIB has none.
func inferType(value any) (gosnmp.Asn1BER, bool) {
	switch value.(type) {
	case int, int8, int16, int32, int64:
		return gosnmp.Integer, true
	case string, []byte:
		return gosnmp.OctetString, true
	case uint, uint8, uint16, uint32:
		return gosnmp.Gauge32, true
	case uint64:
		return gosnmp.Counter64, true
	case netip.Addr:
		return gosnmp.IPAddress, true
	case mib.OID:
		return gosnmp.ObjectIdentifier, true
	default:
		return 0, false
	}
}

// encodeValue converts value into the Go type gosnmp expects for t.
func encodeValue(t gosnmp.Asn1BER, value any) (any, error) {
	switch t {
	case gosnmp.Integer:
		n, ok := signedValue(value)
		if !ok {
			break
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("value %d out of range for %v", n, t)
		}
		return int(n), nil
	case gosnmp.OctetString:
		switch x := value.(type) {
		case string:
			return x, nil
		case []byte:
			return x, nil
		}
	case gosnmp.ObjectIdentifier:
		switch x := value.(type) {
		case string:
			oid, err := mib.ParseOID(x)
			if err != nil {
				return nil, err
			}
			return oid.String(), nil
		case mib.OID:
			return x.String(), nil
		}
	case gosnmp.IPAddress:
		switch x := value.(type) {
		case string:
			addr, err := netip.ParseAddr(x)
			if err != nil || !addr.Is4() {
				return nil, fmt.Errorf("%q is not an IPv4 address", x)
			}
			return addr.String(), nil
		case netip.Addr:
			if !x.Is4() {
				return nil, fmt.Errorf("%s is not an IPv4 address", x)
			}
			return x.String(), nil
		}
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Uinteger32:
		switch x := value.(type) {
		case uint:
			if uint64(x) > math.MaxUint32 {
				return nil, fmt.Errorf("value %d out of range for %v", x, t)
			}
			return uint32(x), nil
		case uint32:
			return x, nil
		case int:
			if x < 0 || uint64(x) > math.MaxUint32 {
				return nil, fmt.Errorf("value %d out of range for %v", x, t)
			}
			return uint32(x), nil
		}
	case gosnmp.Counter64:
		switch x := value.(type) {
		case uint64:
			return x, nil
		case int:
			if x < 0 {
				return nil, fmt.Errorf("negative value %d for %v", x, t)
			}
			return uint64(x), nil
		}
	case gosnmp.Opaque:
		if b, ok := value.([]byte); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("cannot encode %T as %v", value, t)
}

// signedValue widens the integer kinds INTEGER bindings accept.
func signedValue(value any) (int64, bool) {
	switch x := value.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}
