package models

import (
	"fmt"
	"strconv"
)

// PortStatus is an IF-MIB ifAdminStatus or ifOperStatus value.
type PortStatus int

const (
	PortStatusUp             PortStatus = 1
	PortStatusDown           PortStatus = 2
	PortStatusTesting        PortStatus = 3
	PortStatusUnknown        PortStatus = 4
	PortStatusDormant        PortStatus = 5
	PortStatusNotPresent     PortStatus = 6
	PortStatusLowerLayerDown PortStatus = 7
)

// PortStatusName maps a PortStatus to its IF-MIB enumeration label.
var PortStatusName = map[PortStatus]string{
	PortStatusUp:             "up",
	PortStatusDown:           "down",
	PortStatusTesting:        "testing",
	PortStatusUnknown:        "unknown",
	PortStatusDormant:        "dormant",
	PortStatusNotPresent:     "notPresent",
	PortStatusLowerLayerDown: "lowerLayerDown",
}

// String returns the enumeration label, or "unknown" for values the MIB
// does not define.
func (s PortStatus) String() string {
	if name, ok := PortStatusName[s]; ok {
		return name
	}
	return PortStatusName[PortStatusUnknown]
}

// MarshalText renders the label in JSON and YAML output.
func (s PortStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParsePortStatus accepts a label ("up") or its number ("1").
func ParsePortStatus(s string) (PortStatus, error) {
	for status, name := range PortStatusName {
		if name == s {
			return status, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := PortStatusName[PortStatus(n)]; ok {
			return PortStatus(n), nil
		}
	}
	return 0, fmt.Errorf("unknown port status %q", s)
}

// RowStatus is the SNMPv2-TC RowStatus textual convention.
type RowStatus int

const (
	RowStatusActive        RowStatus = 1
	RowStatusNotInService  RowStatus = 2
	RowStatusNotReady      RowStatus = 3
	RowStatusCreateAndGo   RowStatus = 4
	RowStatusCreateAndWait RowStatus = 5
	RowStatusDestroy       RowStatus = 6
)
