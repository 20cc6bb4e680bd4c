package models

import "time"

// SystemInfo is the RFC1213-MIB system group of a switch.
type SystemInfo struct {
	Hostname    string        `json:"hostname" yaml:"hostname"`
	Description string        `json:"description" yaml:"description"`
	ObjectID    string        `json:"object_id" yaml:"object_id"`
	Uptime      time.Duration `json:"uptime" yaml:"uptime"`
	Contact     string        `json:"contact,omitempty" yaml:"contact,omitempty"`
	Name        string        `json:"name" yaml:"name"`
	Location    string        `json:"location,omitempty" yaml:"location,omitempty"`
}

// PortInfo is a snapshot of one bridge port.
type PortInfo struct {
	Port        int        `json:"port" yaml:"port"`
	IfIndex     int        `json:"if_index" yaml:"if_index"`
	Name        string     `json:"name" yaml:"name"`
	AdminStatus PortStatus `json:"admin_status" yaml:"admin_status"`
	OperStatus  PortStatus `json:"oper_status" yaml:"oper_status"`
	PVID        int        `json:"pvid,omitempty" yaml:"pvid,omitempty"` // 0 when the switch has no Q-BRIDGE port table
}

// VLANInfo is a snapshot of one static VLAN.
type VLANInfo struct {
	ID            int    `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	EgressPorts   []int  `json:"egress_ports" yaml:"egress_ports"`
	UntaggedPorts []int  `json:"untagged_ports" yaml:"untagged_ports"`
}

// PortMapping is the result of a forwarding database lookup.
type PortMapping struct {
	MAC  string `json:"mac" yaml:"mac"`
	Port int    `json:"port" yaml:"port"`
}
