package models

import "net/netip"

// IPAddress is one address configured on the switch (IP-MIB ipAddrTable).
type IPAddress struct {
	Address netip.Addr   `json:"address" yaml:"address"`
	Netmask netip.Addr   `json:"netmask" yaml:"netmask"`
	Prefix  netip.Prefix `json:"prefix" yaml:"prefix"`
	IfIndex int          `json:"if_index" yaml:"if_index"`
}

// StaticRoute is one manually configured route (IP-FORWARD-MIB
// inetCidrRouteTable, proto netmgmt).
type StaticRoute struct {
	Destination netip.Prefix `json:"destination" yaml:"destination"`
	NextHop     netip.Addr   `json:"next_hop" yaml:"next_hop"`
	IfIndex     int          `json:"if_index" yaml:"if_index"`
	Metric      int          `json:"metric" yaml:"metric"`
}

// Is6 reports whether the route is an IPv6 route.
func (r StaticRoute) Is6() bool {
	return r.Destination.Addr().Is6()
}

// Variable is one walked or fetched object, labelled for display.
type Variable struct {
	OID   string `json:"oid" yaml:"oid"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"` // e.g. "ifDescr.3"
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}
