package mib

// BaseType is the SMI primitive a MIB object's SYNTAX reduces to once
// textual conventions are followed.
type BaseType int

const (
	BaseUnknown BaseType = iota
	BaseInteger
	BaseOctetString
	BaseObjectIdentifier
	BaseIpAddress
	BaseCounter32
	BaseGauge32
	BaseTimeTicks
	BaseCounter64
	BaseUnsigned32
	BaseBits
	BaseOpaque
)

var baseTypeNames = map[BaseType]string{
	BaseUnknown:          "unknown",
	BaseInteger:          "INTEGER",
	BaseOctetString:      "OCTET STRING",
	BaseObjectIdentifier: "OBJECT IDENTIFIER",
	BaseIpAddress:        "IpAddress",
	BaseCounter32:        "Counter32",
	BaseGauge32:          "Gauge32",
	BaseTimeTicks:        "TimeTicks",
	BaseCounter64:        "Counter64",
	BaseUnsigned32:       "Unsigned32",
	BaseBits:             "BITS",
	BaseOpaque:           "Opaque",
}

func (b BaseType) String() string {
	if s, ok := baseTypeNames[b]; ok {
		return s
	}
	return "unknown"
}

// primitiveTypes maps type names that are primitive for our purposes,
// including SMI application types that SNMPv2-SMI and RFC1155-SMI define
// in terms of tagged INTEGER or OCTET STRING.
var primitiveTypes = map[string]BaseType{
	"INTEGER":           BaseInteger,
	"Integer32":         BaseInteger,
	"OCTET STRING":      BaseOctetString,
	"OBJECT IDENTIFIER": BaseObjectIdentifier,
	"IpAddress":         BaseIpAddress,
	"NetworkAddress":    BaseIpAddress,
	"Counter":           BaseCounter32,
	"Counter32":         BaseCounter32,
	"Gauge":             BaseGauge32,
	"Gauge32":           BaseGauge32,
	"TimeTicks":         BaseTimeTicks,
	"Counter64":         BaseCounter64,
	"Unsigned32":        BaseUnsigned32,
	"BITS":              BaseBits,
	"Opaque":            BaseOpaque,
}

// Kind classifies a node in the OID tree.
type Kind int

const (
	KindNode Kind = iota
	KindScalar
	KindTable
	KindRow
	KindColumn
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindTable:
		return "table"
	case KindRow:
		return "row"
	case KindColumn:
		return "column"
	default:
		return "node"
	}
}

// Access is the MAX-ACCESS (SMIv2) or ACCESS (SMIv1) clause of an object.
type Access string

const (
	AccessNone          Access = ""
	AccessNotAccessible Access = "not-accessible"
	AccessNotify        Access = "accessible-for-notify"
	AccessReadOnly      Access = "read-only"
	AccessReadWrite     Access = "read-write"
	AccessReadCreate    Access = "read-create"
	AccessWriteOnly     Access = "write-only"
)

// Writable reports whether a SET on the object can succeed.
func (a Access) Writable() bool {
	return a == AccessReadWrite || a == AccessReadCreate || a == AccessWriteOnly
}
