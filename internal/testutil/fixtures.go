package testutil

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/HerbHall/hpswitch/pkg/mib"
	"github.com/HerbHall/hpswitch/pkg/models"
)

// Numeric roots of the tables the fixtures populate.
const (
	OIDSystem          = "1.3.6.1.2.1.1"
	OIDIfTable         = "1.3.6.1.2.1.2.2.1"
	OIDIfXTable        = "1.3.6.1.2.1.31.1.1.1"
	OIDIPAddrTable     = "1.3.6.1.2.1.4.20.1"
	OIDBasePortTable   = "1.3.6.1.2.1.17.1.4.1"
	OIDTpFdbTable      = "1.3.6.1.2.1.17.4.3.1"
	OIDVlanStaticTable = "1.3.6.1.2.1.17.7.1.4.3.1"
	OIDPortVlanTable   = "1.3.6.1.2.1.17.7.1.4.5.1"
	OIDCidrRouteTable  = "1.3.6.1.2.1.4.24.7.1"
)

// tableEntries are the conceptual rows of the tables above. Their columns
// are one arc deeper and every arc after that is the instance index.
var tableEntries = []mib.OID{
	mib.MustParseOID(OIDIfTable),
	mib.MustParseOID(OIDIfXTable),
	mib.MustParseOID(OIDIPAddrTable),
	mib.MustParseOID(OIDBasePortTable),
	mib.MustParseOID(OIDTpFdbTable),
	mib.MustParseOID(OIDVlanStaticTable),
	mib.MustParseOID(OIDPortVlanTable),
	mib.MustParseOID(OIDCidrRouteTable),
}

// ProtoNetmgmt and ProtoLocal are IANAipRouteProtocol values.
const (
	ProtoLocal   = 2
	ProtoNetmgmt = 3
)

// SwitchAgent returns an Agent populated like a small HP switch: system
// group, three ports, two VLANs, one learned MAC, one address and a static
// route next to a local one.
// Options run after the defaults.
func SwitchAgent(opts ...func(*Agent)) *Agent {
	a := NewAgent()
	a.System(models.SystemInfo{
		Description: "HP J9773A 2530-24G-PoEP Switch, revision YA.16.02",
		ObjectID:    "1.3.6.1.4.1.11.2.3.7.11.181",
		Uptime:      1234567 * 10_000_000,
		Contact:     "noc@example.net",
		Name:        "sw-test-01",
		Location:    "Rack A3",
	})
	for _, p := range []models.PortInfo{
		{Port: 1, IfIndex: 1, Name: "1", AdminStatus: models.PortStatusUp, OperStatus: models.PortStatusUp, PVID: 1},
		{Port: 2, IfIndex: 2, Name: "2", AdminStatus: models.PortStatusUp, OperStatus: models.PortStatusDown, PVID: 10},
		{Port: 3, IfIndex: 3, Name: "3", AdminStatus: models.PortStatusDown, OperStatus: models.PortStatusDown, PVID: 1},
	} {
		a.Port(p)
	}
	a.VLAN(models.VLANInfo{ID: 1, Name: "DEFAULT_VLAN", EgressPorts: []int{1, 2, 3}, UntaggedPorts: []int{1, 3}})
	a.VLAN(models.VLANInfo{ID: 10, Name: "servers", EgressPorts: []int{2}, UntaggedPorts: []int{2}})
	a.FDBEntry("00:11:22:33:44:55", 2)
	a.Route(netip.MustParsePrefix("10.20.0.0/16"), netip.MustParseAddr("192.168.1.254"), 1, 1, ProtoNetmgmt)
	a.Route(netip.MustParsePrefix("192.168.1.0/24"), netip.MustParseAddr("0.0.0.0"), 1, 0, ProtoLocal)
	a.IPAddress(netip.MustParsePrefix("192.168.1.10/24"), 1)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// System stores the RFC1213 system group.
func (a *Agent) System(info models.SystemInfo) *Agent {
	a.Put(OIDSystem+".1.0", gosnmp.OctetString, []byte(info.Description))
	a.Put(OIDSystem+".2.0", gosnmp.ObjectIdentifier, "."+info.ObjectID)
	a.Put(OIDSystem+".3.0", gosnmp.TimeTicks, uint32(info.Uptime.Milliseconds()/10)) //nolint:gosec // G115: fixture values are small
	a.Put(OIDSystem+".4.0", gosnmp.OctetString, []byte(info.Contact))
	a.Put(OIDSystem+".5.0", gosnmp.OctetString, []byte(info.Name))
	a.Put(OIDSystem+".6.0", gosnmp.OctetString, []byte(info.Location))
	return a
}

// Port stores a bridge port, its interface row and, when PVID is set, its
// Q-BRIDGE port VLAN.
func (a *Agent) Port(p models.PortInfo) *Agent {
	port := fmt.Sprint(p.Port)
	ifIndex := fmt.Sprint(p.IfIndex)
	a.Put(OIDBasePortTable+".1."+port, gosnmp.Integer, p.Port)
	a.Put(OIDBasePortTable+".2."+port, gosnmp.Integer, p.IfIndex)
	a.Put(OIDIfTable+".1."+ifIndex, gosnmp.Integer, p.IfIndex)
	a.Put(OIDIfTable+".2."+ifIndex, gosnmp.OctetString, []byte("Port "+p.Name))
	a.Put(OIDIfTable+".7."+ifIndex, gosnmp.Integer, int(p.AdminStatus))
	a.Put(OIDIfTable+".8."+ifIndex, gosnmp.Integer, int(p.OperStatus))
	a.Put(OIDIfXTable+".1."+ifIndex, gosnmp.OctetString, []byte(p.Name))
	if p.PVID != 0 {
		a.Put(OIDPortVlanTable+".1."+port, gosnmp.Gauge32, uint(p.PVID)) //nolint:gosec // G115: VLAN IDs are small
	}
	return a
}

// VLAN stores a static VLAN row with active row status.
func (a *Agent) VLAN(v models.VLANInfo) *Agent {
	id := fmt.Sprint(v.ID)
	a.Put(OIDVlanStaticTable+".1."+id, gosnmp.OctetString, []byte(v.Name))
	a.Put(OIDVlanStaticTable+".2."+id, gosnmp.OctetString, PortList(v.EgressPorts...))
	a.Put(OIDVlanStaticTable+".4."+id, gosnmp.OctetString, PortList(v.UntaggedPorts...))
	a.Put(OIDVlanStaticTable+".5."+id, gosnmp.Integer, int(models.RowStatusActive))
	return a
}

// FDBEntry stores a learned MAC address on a bridge port.
func (a *Agent) FDBEntry(mac string, port int) *Agent {
	suffix := MACSuffix(mac)
	a.Put(OIDTpFdbTable+".1."+suffix, gosnmp.OctetString, macBytes(mac))
	a.Put(OIDTpFdbTable+".2."+suffix, gosnmp.Integer, port)
	a.Put(OIDTpFdbTable+".3."+suffix, gosnmp.Integer, 3) // learned
	return a
}

// IPAddress stores an ipAddrTable row.
func (a *Agent) IPAddress(addr netip.Prefix, ifIndex int) *Agent {
	ip := addr.Addr().String()
	mask := netip.AddrFrom4(prefixMask(addr.Bits()))
	a.Put(OIDIPAddrTable+".1."+ip, gosnmp.IPAddress, ip)
	a.Put(OIDIPAddrTable+".2."+ip, gosnmp.Integer, ifIndex)
	a.Put(OIDIPAddrTable+".3."+ip, gosnmp.IPAddress, mask.String())
	return a
}

// Route stores an inetCidrRouteTable row with the default policy.
func (a *Agent) Route(dest netip.Prefix, nextHop netip.Addr, ifIndex, metric, proto int) *Agent {
	index := RouteIndex(dest, nextHop)
	a.Put(OIDCidrRouteTable+".7."+index, gosnmp.Integer, ifIndex)
	a.Put(OIDCidrRouteTable+".8."+index, gosnmp.Integer, 4) // remote
	a.Put(OIDCidrRouteTable+".9."+index, gosnmp.Integer, proto)
	a.Put(OIDCidrRouteTable+".12."+index, gosnmp.Integer, metric)
	a.Put(OIDCidrRouteTable+".17."+index, gosnmp.Integer, int(models.RowStatusActive))
	return a
}

// RouteIndex renders the inetCidrRouteTable instance suffix for a route
// with the zeroDotZero policy.
func RouteIndex(dest netip.Prefix, nextHop netip.Addr) string {
	parts := []string{addrType(dest.Addr())}
	parts = append(parts, lenPrefixed(dest.Addr().AsSlice())...)
	parts = append(parts, fmt.Sprint(dest.Bits()), "2", "0", "0")
	parts = append(parts, addrType(nextHop))
	parts = append(parts, lenPrefixed(nextHop.AsSlice())...)
	return strings.Join(parts, ".")
}

// PortList encodes port numbers as a Q-BRIDGE PortList: port 1 is the most
// significant bit of the first octet.
func PortList(ports ...int) []byte {
	size := 0
	for _, p := range ports {
		size = max(size, (p+7)/8)
	}
	b := make([]byte, size)
	for _, p := range ports {
		b[(p-1)/8] |= 0x80 >> ((p - 1) % 8)
	}
	return b
}

// MACSuffix returns the six decimal OID arcs for a colon-separated MAC.
func MACSuffix(mac string) string {
	octets := macBytes(mac)
	parts := make([]string, len(octets))
	for i, o := range octets {
		parts[i] = fmt.Sprint(o)
	}
	return strings.Join(parts, ".")
}

func macBytes(mac string) []byte {
	var b []byte
	for _, part := range strings.Split(mac, ":") {
		var v byte
		fmt.Sscanf(part, "%x", &v) //nolint:errcheck // fixture input is well formed
		b = append(b, v)
	}
	return b
}

func addrType(a netip.Addr) string {
	if a.Is4() {
		return "1"
	}
	return "2"
}

func lenPrefixed(b []byte) []string {
	parts := []string{fmt.Sprint(len(b))}
	for _, o := range b {
		parts = append(parts, fmt.Sprint(o))
	}
	return parts
}

func prefixMask(bits int) [4]byte {
	var m [4]byte
	for i := range bits {
		m[i/8] |= 0x80 >> (i % 8)
	}
	return m
}
