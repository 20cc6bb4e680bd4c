package hpswitch

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/hpswitch/pkg/models"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// VLAN ID range for IEEE 802.1Q.
const (
	MinVLANID = 1
	MaxVLANID = 4094

	maxVLANNameLen = 32
)

func checkVLANID(id int) error {
	if id < MinVLANID || id > MaxVLANID {
		return fmt.Errorf("%w: %d not in %d..%d", ErrInvalidVLAN, id, MinVLANID, MaxVLANID)
	}
	return nil
}

// VLAN is one static VLAN of a Switch.
type VLAN struct {
	sw *Switch
	id int
}

// VLAN returns the VLAN with the given ID without querying the switch.
func (s *Switch) VLAN(id int) (VLAN, error) {
	if err := checkVLANID(id); err != nil {
		return VLAN{}, validationError("vlan", s.hostname, err)
	}
	return VLAN{sw: s, id: id}, nil
}

// VLANs walks dot1qVlanStaticRowStatus and returns one VLAN per row. The
// VLAN ID is the last arc of each row's OID.
func (s *Switch) VLANs(ctx context.Context) ([]VLAN, error) {
	vars, err := s.client.Walk(ctx, "dot1qVlanStaticRowStatus")
	if err != nil {
		return nil, fmt.Errorf("vlans: %w", err)
	}

	vlans := make([]VLAN, 0, len(vars))
	for _, v := range vars {
		vlans = append(vlans, VLAN{sw: s, id: int(v.OID.Last())})
	}
	s.logger.Debug("listed VLANs", zap.Int("count", len(vlans)))
	return vlans, nil
}

// CreateVLAN creates a static VLAN and names it in one request.
func (s *Switch) CreateVLAN(ctx context.Context, id int, name string) (VLAN, error) {
	if err := checkVLANID(id); err != nil {
		return VLAN{}, validationError("create-vlan", s.hostname, err)
	}
	if len(name) > maxVLANNameLen {
		return VLAN{}, validationError("create-vlan", s.hostname, fmt.Errorf("VLAN name longer than %d octets", maxVLANNameLen))
	}

	v := VLAN{sw: s, id: id}
	bindings := []snmp.Binding{
		{Name: v.instance("dot1qVlanStaticRowStatus"), Value: int(models.RowStatusCreateAndGo)},
	}
	if name != "" {
		bindings = append(bindings, snmp.Binding{Name: v.instance("dot1qVlanStaticName"), Value: name})
	}
	if err := s.client.Set(ctx, bindings...); err != nil {
		return VLAN{}, fmt.Errorf("create vlan %d: %w", id, err)
	}
	s.logger.Info("VLAN created", zap.Int("vlan", id), zap.String("name", name))
	return v, nil
}

// DeleteVLAN destroys a static VLAN.
func (s *Switch) DeleteVLAN(ctx context.Context, id int) error {
	if err := checkVLANID(id); err != nil {
		return validationError("delete-vlan", s.hostname, err)
	}
	v := VLAN{sw: s, id: id}
	err := s.client.Set(ctx, snmp.Binding{Name: v.instance("dot1qVlanStaticRowStatus"), Value: int(models.RowStatusDestroy)})
	if err != nil {
		return fmt.Errorf("delete vlan %d: %w", id, err)
	}
	s.logger.Info("VLAN deleted", zap.Int("vlan", id))
	return nil
}

// ID returns the VLAN ID.
func (v VLAN) ID() int { return v.id }

// Switch returns the switch the VLAN belongs to.
func (v VLAN) Switch() *Switch { return v.sw }

func (v VLAN) String() string { return strconv.Itoa(v.id) }

func (v VLAN) instance(column string) string {
	return column + "." + strconv.Itoa(v.id)
}

// Name returns the VLAN's administrative name.
func (v VLAN) Name(ctx context.Context) (string, error) {
	val, err := v.sw.client.Get(ctx, v.instance("dot1qVlanStaticName"))
	if err != nil {
		return "", fmt.Errorf("vlan %d: %w", v.id, err)
	}
	return val.String(), nil
}

// SetName renames the VLAN.
func (v VLAN) SetName(ctx context.Context, name string) error {
	if len(name) > maxVLANNameLen {
		return validationError("set-vlan-name", v.sw.hostname, fmt.Errorf("VLAN name longer than %d octets", maxVLANNameLen))
	}
	if err := v.sw.client.Set(ctx, snmp.Binding{Name: v.instance("dot1qVlanStaticName"), Value: name}); err != nil {
		return fmt.Errorf("vlan %d: %w", v.id, err)
	}
	return nil
}

// EgressPorts returns the ports the VLAN is tagged or untagged on.
func (v VLAN) EgressPorts(ctx context.Context) ([]int, error) {
	return v.portList(ctx, "dot1qVlanStaticEgressPorts")
}

// UntaggedPorts returns the ports that transmit the VLAN untagged.
func (v VLAN) UntaggedPorts(ctx context.Context) ([]int, error) {
	return v.portList(ctx, "dot1qVlanStaticUntaggedPorts")
}

func (v VLAN) portList(ctx context.Context, column string) ([]int, error) {
	val, err := v.sw.client.Get(ctx, v.instance(column))
	if err != nil {
		return nil, fmt.Errorf("vlan %d: %w", v.id, err)
	}
	b, err := val.Bytes()
	if err != nil {
		return nil, fmt.Errorf("vlan %d: %w", v.id, err)
	}
	return DecodePortList(b), nil
}

// SetPorts replaces the VLAN's membership in one request. Every untagged
// port must also be an egress port.
func (v VLAN) SetPorts(ctx context.Context, egress, untagged []int) error {
	member := make(map[int]bool, len(egress))
	for _, p := range egress {
		member[p] = true
	}
	for _, p := range untagged {
		if !member[p] {
			return validationError("set-vlan-ports", v.sw.hostname, fmt.Errorf("untagged port %d is not an egress port of vlan %d", p, v.id))
		}
	}

	egressList, err := EncodePortList(egress)
	if err != nil {
		return validationError("set-vlan-ports", v.sw.hostname, err)
	}
	untaggedList, err := EncodePortList(untagged)
	if err != nil {
		return validationError("set-vlan-ports", v.sw.hostname, err)
	}

	err = v.sw.client.Set(ctx,
		snmp.Binding{Name: v.instance("dot1qVlanStaticEgressPorts"), Value: egressList},
		snmp.Binding{Name: v.instance("dot1qVlanStaticUntaggedPorts"), Value: untaggedList},
	)
	if err != nil {
		return fmt.Errorf("vlan %d: %w", v.id, err)
	}
	v.sw.logger.Info("VLAN membership changed",
		zap.Int("vlan", v.id),
		zap.Ints("egress", egress),
		zap.Ints("untagged", untagged),
	)
	return nil
}

// Info reads a snapshot of the VLAN.
func (v VLAN) Info(ctx context.Context) (models.VLANInfo, error) {
	info := models.VLANInfo{ID: v.id}
	var err error
	if info.Name, err = v.Name(ctx); err != nil {
		return models.VLANInfo{}, err
	}
	if info.EgressPorts, err = v.EgressPorts(ctx); err != nil {
		return models.VLANInfo{}, err
	}
	if info.UntaggedPorts, err = v.UntaggedPorts(ctx); err != nil {
		return models.VLANInfo{}, err
	}
	return info, nil
}

// DecodePortList returns the port numbers set in a Q-BRIDGE PortList. The
// most significant bit of the first octet is port 1.
func DecodePortList(b []byte) []int {
	ports := []int{}
	for i, octet := range b {
		for bit := 0; bit < 8; bit++ {
			if octet&(0x80>>bit) != 0 {
				ports = append(ports, i*8+bit+1)
			}
		}
	}
	return ports
}

// EncodePortList is the inverse of DecodePortList. The result is just long
// enough to hold the highest port.
func EncodePortList(ports []int) ([]byte, error) {
	size := 0
	for _, p := range ports {
		if p < 1 {
			return nil, fmt.Errorf("port number %d out of range", p)
		}
		size = max(size, (p+7)/8)
	}
	b := make([]byte, size)
	for _, p := range ports {
		b[(p-1)/8] |= 0x80 >> ((p - 1) % 8)
	}
	return b, nil
}
