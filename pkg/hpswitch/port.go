package hpswitch

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/hpswitch/pkg/models"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// Port is one bridge port of a Switch, identified by its dot1dBasePort
// number. Ports are obtained from Switch.Ports, Switch.Port or
// Switch.GetPortForMAC.
type Port struct {
	sw     *Switch
	number int
}

// Port returns the bridge port with the given number without querying the
// switch.
func (s *Switch) Port(number int) (Port, error) {
	if number < 1 || number > 65535 {
		return Port{}, validationError("port", s.hostname, fmt.Errorf("port number %d out of range", number))
	}
	return Port{sw: s, number: number}, nil
}

// Ports walks dot1dBasePort and returns one Port per bridge port, in
// agent order.
func (s *Switch) Ports(ctx context.Context) ([]Port, error) {
	vars, err := s.client.Walk(ctx, "dot1dBasePort")
	if err != nil {
		return nil, fmt.Errorf("ports: %w", err)
	}

	ports := make([]Port, 0, len(vars))
	for _, v := range vars {
		n, err := v.Int()
		if err != nil {
			return nil, fmt.Errorf("ports: %w", err)
		}
		ports = append(ports, Port{sw: s, number: int(n)})
	}
	s.logger.Debug("listed ports", zap.Int("count", len(ports)))
	return ports, nil
}

// Number returns the bridge port number.
func (p Port) Number() int { return p.number }

// Switch returns the switch the port belongs to.
func (p Port) Switch() *Switch { return p.sw }

func (p Port) String() string { return strconv.Itoa(p.number) }

func (p Port) instance(column string) string {
	return column + "." + strconv.Itoa(p.number)
}

// IfIndex returns the interface index the bridge port maps to.
func (p Port) IfIndex(ctx context.Context) (int, error) {
	v, err := p.sw.client.Get(ctx, p.instance("dot1dBasePortIfIndex"))
	if err != nil {
		return 0, fmt.Errorf("port %d: %w", p.number, err)
	}
	n, err := v.Int()
	if err != nil {
		return 0, fmt.Errorf("port %d: %w", p.number, err)
	}
	return int(n), nil
}

// Name returns ifName, falling back to ifDescr for agents without IF-MIB's
// extension table.
func (p Port) Name(ctx context.Context) (string, error) {
	ifIndex, err := p.IfIndex(ctx)
	if err != nil {
		return "", err
	}
	return p.name(ctx, ifIndex)
}

func (p Port) name(ctx context.Context, ifIndex int) (string, error) {
	suffix := "." + strconv.Itoa(ifIndex)
	v, err := p.sw.client.Get(ctx, "ifName"+suffix)
	if err == nil && v.String() != "" {
		return v.String(), nil
	}
	if err != nil && !snmp.IsAgentError(err) {
		return "", fmt.Errorf("port %d: %w", p.number, err)
	}

	v, err = p.sw.client.Get(ctx, "ifDescr"+suffix)
	if err != nil {
		return "", fmt.Errorf("port %d: %w", p.number, err)
	}
	return v.String(), nil
}

// AdminStatus returns the configured state of the port's interface.
func (p Port) AdminStatus(ctx context.Context) (models.PortStatus, error) {
	return p.status(ctx, "ifAdminStatus")
}

// OperStatus returns the operational state of the port's interface.
func (p Port) OperStatus(ctx context.Context) (models.PortStatus, error) {
	return p.status(ctx, "ifOperStatus")
}

func (p Port) status(ctx context.Context, column string) (models.PortStatus, error) {
	ifIndex, err := p.IfIndex(ctx)
	if err != nil {
		return 0, err
	}
	return p.statusAt(ctx, column, ifIndex)
}

func (p Port) statusAt(ctx context.Context, column string, ifIndex int) (models.PortStatus, error) {
	v, err := p.sw.client.Get(ctx, column+"."+strconv.Itoa(ifIndex))
	if err != nil {
		return 0, fmt.Errorf("port %d: %w", p.number, err)
	}
	n, err := v.Int()
	if err != nil {
		return 0, fmt.Errorf("port %d: %w", p.number, err)
	}
	return models.PortStatus(n), nil
}

// SetAdminStatus enables (up) or disables (down) the port. Only up, down
// and testing are writable.
func (p Port) SetAdminStatus(ctx context.Context, status models.PortStatus) error {
	if status < models.PortStatusUp || status > models.PortStatusTesting {
		return validationError("set-admin-status", p.sw.hostname, fmt.Errorf("%w: %s", ErrInvalidPortStatus, status))
	}
	ifIndex, err := p.IfIndex(ctx)
	if err != nil {
		return err
	}

	err = p.sw.client.Set(ctx, snmp.Binding{Name: "ifAdminStatus." + strconv.Itoa(ifIndex), Value: int(status)})
	if err != nil {
		return fmt.Errorf("port %d: %w", p.number, err)
	}
	p.sw.logger.Info("port admin status changed", zap.Int("port", p.number), zap.Stringer("status", status))
	return nil
}

// PVID returns the port's native (untagged ingress) VLAN.
func (p Port) PVID(ctx context.Context) (int, error) {
	v, err := p.sw.client.Get(ctx, p.instance("dot1qPvid"))
	if err != nil {
		return 0, fmt.Errorf("port %d: %w", p.number, err)
	}
	n, err := v.Uint()
	if err != nil {
		return 0, fmt.Errorf("port %d: %w", p.number, err)
	}
	return int(n), nil //nolint:gosec // G115: VLAN IDs fit in int
}

// SetPVID sets the port's native VLAN.
func (p Port) SetPVID(ctx context.Context, vlan int) error {
	if err := checkVLANID(vlan); err != nil {
		return validationError("set-pvid", p.sw.hostname, err)
	}
	if err := p.sw.client.Set(ctx, snmp.Binding{Name: p.instance("dot1qPvid"), Value: vlan}); err != nil {
		return fmt.Errorf("port %d: %w", p.number, err)
	}
	p.sw.logger.Info("port PVID changed", zap.Int("port", p.number), zap.Int("vlan", vlan))
	return nil
}

// Info reads a snapshot of the port. PVID is left at zero when the switch
// has no Q-BRIDGE port table entry for the port.
func (p Port) Info(ctx context.Context) (models.PortInfo, error) {
	info := models.PortInfo{Port: p.number}

	ifIndex, err := p.IfIndex(ctx)
	if err != nil {
		return models.PortInfo{}, err
	}
	info.IfIndex = ifIndex

	if info.Name, err = p.name(ctx, ifIndex); err != nil {
		return models.PortInfo{}, err
	}
	if info.AdminStatus, err = p.statusAt(ctx, "ifAdminStatus", ifIndex); err != nil {
		return models.PortInfo{}, err
	}
	if info.OperStatus, err = p.statusAt(ctx, "ifOperStatus", ifIndex); err != nil {
		return models.PortInfo{}, err
	}

	info.PVID, err = p.PVID(ctx)
	if err != nil {
		if !snmp.IsAgentError(err) {
			return models.PortInfo{}, err
		}
		info.PVID = 0
	}
	return info, nil
}
