package hpswitch

import (
	"errors"

	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// Input errors. They reach callers wrapped in an *snmp.Error of kind
// snmp.KindValidation, so both errors.Is and snmp.IsValidationError work.
var (
	ErrCommunityRequired = errors.New("SNMP community is required")
	ErrHostnameRequired  = errors.New("hostname is required")
	ErrInvalidMAC        = errors.New("invalid MAC address")
	ErrInvalidVLAN       = errors.New("invalid VLAN ID")
	ErrInvalidPortStatus = errors.New("invalid port admin status")
	ErrAddressFamily     = errors.New("address family mismatch")
	ErrInvalidRoute      = errors.New("invalid route")
	ErrResolverOptions   = errors.New("WithResolver cannot be combined with WithMIBDirs or WithModules")
)

func validationError(op, target string, err error) error {
	return snmp.NewError(snmp.KindValidation, op, target, err)
}
