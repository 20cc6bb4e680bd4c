package hpswitch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/hpswitch/pkg/models"
)

// ParseMAC parses six colon-separated hexadecimal octets of one or two
// digits each, such as "00:1a:2b:3c:4d:5e" or "0:1a:2b:3c:4d:5e".
func ParseMAC(s string) ([6]byte, error) {
	var mac [6]byte
	parts := strings.Split(s, ":")
	if len(parts) != len(mac) {
		return mac, fmt.Errorf("%w: %q: want 6 octets, got %d", ErrInvalidMAC, s, len(parts))
	}
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return mac, fmt.Errorf("%w: %q: octet %d is %q", ErrInvalidMAC, s, i+1, p)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return mac, fmt.Errorf("%w: %q: octet %d is %q", ErrInvalidMAC, s, i+1, p)
		}
		mac[i] = byte(v)
	}
	return mac, nil
}

// macSuffix renders the MAC as the six decimal arcs that index
// dot1dTpFdbTable.
func macSuffix(mac [6]byte) string {
	parts := make([]string, len(mac))
	for i, b := range mac {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ".")
}

// GetPortForMAC looks mac up in the bridge forwarding database and returns
// the port it was learned on. The address is validated before any request
// is sent.
func (s *Switch) GetPortForMAC(ctx context.Context, mac string) (Port, error) {
	octets, err := ParseMAC(mac)
	if err != nil {
		return Port{}, validationError("mac", s.hostname, err)
	}

	v, err := s.client.Get(ctx, "dot1dTpFdbPort."+macSuffix(octets))
	if err != nil {
		return Port{}, fmt.Errorf("port for %s: %w", mac, err)
	}
	n, err := v.Int()
	if err != nil {
		return Port{}, fmt.Errorf("port for %s: %w", mac, err)
	}

	s.logger.Debug("resolved MAC to port", zap.String("mac", mac), zap.Int64("port", n))
	return Port{sw: s, number: int(n)}, nil
}

// MACAddresses walks the forwarding database and returns every learned
// address with its port, in table order.
func (s *Switch) MACAddresses(ctx context.Context) ([]models.PortMapping, error) {
	vars, err := s.client.Walk(ctx, "dot1dTpFdbPort")
	if err != nil {
		return nil, fmt.Errorf("mac table: %w", err)
	}

	out := make([]models.PortMapping, 0, len(vars))
	for _, v := range vars {
		b, ok := arcBytes(lastArcs(v.OID, 6))
		if !ok {
			s.logger.Debug("skipping malformed dot1dTpFdbTable index", zap.String("oid", v.OID.String()))
			continue
		}
		port, err := v.Int()
		if err != nil {
			return nil, fmt.Errorf("mac table: %w", err)
		}
		out = append(out, models.PortMapping{MAC: formatHex(b), Port: int(port)})
	}
	return out, nil
}
