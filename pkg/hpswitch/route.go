package hpswitch

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"go.uber.org/zap"

	"github.com/HerbHall/hpswitch/pkg/mib"
	"github.com/HerbHall/hpswitch/pkg/models"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// InetAddressType values (INET-ADDRESS-MIB).
const (
	inetAddressUnknown = 0
	inetAddressIPv4    = 1
	inetAddressIPv6    = 2
)

// IANAipRouteProtocol and inetCidrRouteType values used for static routes.
const (
	routeProtoNetmgmt = 3
	routeTypeRemote   = 4
)

// zeroDotZero is the default inetCidrRoutePolicy.
var zeroDotZero = mib.OID{0, 0}

// StaticIPv4Routes lists the switch's manually configured IPv4 routes.
func (s *Switch) StaticIPv4Routes(ctx context.Context) ([]models.StaticRoute, error) {
	return s.staticRoutes(ctx, false)
}

// StaticIPv6Routes lists the switch's manually configured IPv6 routes.
func (s *Switch) StaticIPv6Routes(ctx context.Context) ([]models.StaticRoute, error) {
	return s.staticRoutes(ctx, true)
}

func (s *Switch) staticRoutes(ctx context.Context, v6 bool) ([]models.StaticRoute, error) {
	protos, err := s.client.Walk(ctx, "inetCidrRouteProto")
	if err != nil {
		return nil, fmt.Errorf("static routes: %w", err)
	}
	ifIndexes, err := s.columnByIndex(ctx, "inetCidrRouteIfIndex")
	if err != nil {
		return nil, fmt.Errorf("static routes: %w", err)
	}
	metrics, err := s.columnByIndex(ctx, "inetCidrRouteMetric1")
	if err != nil {
		return nil, fmt.Errorf("static routes: %w", err)
	}

	protoCol, err := s.resolver.Resolve("inetCidrRouteProto")
	if err != nil {
		return nil, snmp.NewError(snmp.KindResolution, "routes", s.hostname, err)
	}

	var routes []models.StaticRoute
	for _, v := range protos {
		proto, err := v.Int()
		if err != nil || proto != routeProtoNetmgmt {
			continue
		}
		index := v.OID.TrimPrefix(protoCol)
		route, err := decodeRouteIndex(index)
		if err != nil {
			s.logger.Debug("skipping route with unsupported index",
				zap.String("oid", v.OID.String()),
				zap.Error(err),
			)
			continue
		}
		if route.Is6() != v6 {
			continue
		}

		key := index.String()
		if iv, ok := ifIndexes[key]; ok {
			if n, err := iv.Int(); err == nil {
				route.IfIndex = int(n)
			}
		}
		if mv, ok := metrics[key]; ok {
			if n, err := mv.Int(); err == nil {
				route.Metric = int(n)
			}
		}
		routes = append(routes, route)
	}

	s.logger.Debug("listed static routes", zap.Bool("ipv6", v6), zap.Int("count", len(routes)))
	return routes, nil
}

// columnByIndex walks a table column and keys its values by instance index.
func (s *Switch) columnByIndex(ctx context.Context, column string) (map[string]snmp.Variable, error) {
	col, err := s.resolver.Resolve(column)
	if err != nil {
		return nil, snmp.NewError(snmp.KindResolution, "walk", s.hostname, err)
	}
	vars, err := s.client.Walk(ctx, column)
	if err != nil {
		return nil, err
	}
	out := make(map[string]snmp.Variable, len(vars))
	for _, v := range vars {
		out[v.OID.TrimPrefix(col).String()] = v
	}
	return out, nil
}

// AddStaticIPv4Route creates an IPv4 static route.
func (s *Switch) AddStaticIPv4Route(ctx context.Context, route models.StaticRoute) error {
	return s.addStaticRoute(ctx, route, false)
}

// AddStaticIPv6Route creates an IPv6 static route.
func (s *Switch) AddStaticIPv6Route(ctx context.Context, route models.StaticRoute) error {
	return s.addStaticRoute(ctx, route, true)
}

func (s *Switch) addStaticRoute(ctx context.Context, route models.StaticRoute, v6 bool) error {
	index, err := routeIndexFor(route, v6)
	if err != nil {
		return validationError("add-route", s.hostname, err)
	}

	suffix := "." + index.String()
	err = s.client.Set(ctx,
		snmp.Binding{Name: "inetCidrRouteStatus" + suffix, Value: int(models.RowStatusCreateAndGo)},
		snmp.Binding{Name: "inetCidrRouteType" + suffix, Value: routeTypeRemote},
		snmp.Binding{Name: "inetCidrRouteIfIndex" + suffix, Value: route.IfIndex},
		snmp.Binding{Name: "inetCidrRouteMetric1" + suffix, Value: route.Metric},
	)
	if err != nil {
		return fmt.Errorf("add route %s via %s: %w", route.Destination, route.NextHop, err)
	}
	s.logger.Info("static route added",
		zap.Stringer("destination", route.Destination),
		zap.Stringer("next_hop", route.NextHop),
	)
	return nil
}

// RemoveStaticIPv4Route destroys the IPv4 route with the route's
// destination and next hop.
func (s *Switch) RemoveStaticIPv4Route(ctx context.Context, route models.StaticRoute) error {
	return s.removeStaticRoute(ctx, route, false)
}

// RemoveStaticIPv6Route destroys the IPv6 route with the route's
// destination and next hop.
func (s *Switch) RemoveStaticIPv6Route(ctx context.Context, route models.StaticRoute) error {
	return s.removeStaticRoute(ctx, route, true)
}

func (s *Switch) removeStaticRoute(ctx context.Context, route models.StaticRoute, v6 bool) error {
	index, err := routeIndexFor(route, v6)
	if err != nil {
		return validationError("remove-route", s.hostname, err)
	}

	err = s.client.Set(ctx, snmp.Binding{Name: "inetCidrRouteStatus." + index.String(), Value: int(models.RowStatusDestroy)})
	if err != nil {
		return fmt.Errorf("remove route %s via %s: %w", route.Destination, route.NextHop, err)
	}
	s.logger.Info("static route removed",
		zap.Stringer("destination", route.Destination),
		zap.Stringer("next_hop", route.NextHop),
	)
	return nil
}

// routeIndexFor checks the route against the requested family and returns
// its table index.
func routeIndexFor(route models.StaticRoute, v6 bool) (mib.OID, error) {
	if !route.Destination.IsValid() || !route.NextHop.IsValid() {
		return nil, fmt.Errorf("%w: destination and next hop are required", ErrInvalidRoute)
	}
	dest, hop := route.Destination.Addr(), route.NextHop
	if dest.Is4() == v6 || hop.Is4() == v6 || dest.Is4In6() || hop.Is4In6() {
		family := "IPv4"
		if v6 {
			family = "IPv6"
		}
		return nil, fmt.Errorf("%w: %s via %s is not an %s route", ErrAddressFamily, route.Destination, route.NextHop, family)
	}
	if dest.Zone() != "" || hop.Zone() != "" {
		return nil, fmt.Errorf("%w: zoned addresses are not supported", ErrInvalidRoute)
	}
	if route.Destination != route.Destination.Masked() {
		return nil, fmt.Errorf("%w: %s has host bits set", ErrInvalidRoute, route.Destination)
	}
	return encodeRouteIndex(route.Destination, route.NextHop), nil
}

// encodeRouteIndex builds the inetCidrRouteTable index: destination type,
// length-prefixed destination, prefix length, length-prefixed policy,
// next-hop type and length-prefixed next hop.
func encodeRouteIndex(dest netip.Prefix, nextHop netip.Addr) mib.OID {
	var index mib.OID
	index = appendInetAddress(index, dest.Addr())
	index = append(index, uint32(dest.Bits())) //nolint:gosec // G115: prefix length is at most 128
	index = append(index, uint32(len(zeroDotZero)))
	index = append(index, zeroDotZero...)
	return appendInetAddress(index, nextHop)
}

func appendInetAddress(index mib.OID, addr netip.Addr) mib.OID {
	if !addr.IsValid() {
		return append(index, inetAddressUnknown, 0)
	}
	typ := uint32(inetAddressIPv6)
	if addr.Is4() {
		typ = inetAddressIPv4
	}
	b := addr.AsSlice()
	index = append(index, typ, uint32(len(b)))
	for _, octet := range b {
		index = append(index, uint32(octet))
	}
	return index
}

var errShortIndex = errors.New("index too short")

// decodeRouteIndex is the inverse of encodeRouteIndex. Any policy is
// accepted; zoned address types are rejected.
func decodeRouteIndex(index mib.OID) (models.StaticRoute, error) {
	rest := index

	destType, dest, rest, err := takeInetAddress(rest)
	if err != nil {
		return models.StaticRoute{}, fmt.Errorf("destination: %w", err)
	}
	if destType == inetAddressUnknown {
		return models.StaticRoute{}, errors.New("destination has unknown address type")
	}
	if len(rest) < 2 {
		return models.StaticRoute{}, errShortIndex
	}
	bits := int(rest[0])
	policyLen := int(rest[1])
	rest = rest[2:]
	if len(rest) < policyLen {
		return models.StaticRoute{}, errShortIndex
	}
	rest = rest[policyLen:]

	_, nextHop, rest, err := takeInetAddress(rest)
	if err != nil {
		return models.StaticRoute{}, fmt.Errorf("next hop: %w", err)
	}
	if len(rest) != 0 {
		return models.StaticRoute{}, fmt.Errorf("%d trailing arcs", len(rest))
	}

	prefix, err := dest.Prefix(bits)
	if err != nil {
		return models.StaticRoute{}, err
	}
	return models.StaticRoute{Destination: prefix, NextHop: nextHop}, nil
}

func takeInetAddress(arcs mib.OID) (uint32, netip.Addr, mib.OID, error) {
	if len(arcs) < 2 {
		return 0, netip.Addr{}, nil, errShortIndex
	}
	typ, n := arcs[0], int(arcs[1])
	arcs = arcs[2:]
	if len(arcs) < n {
		return 0, netip.Addr{}, nil, errShortIndex
	}

	switch {
	case typ == inetAddressUnknown && n == 0:
		return typ, netip.Addr{}, arcs, nil
	case typ == inetAddressIPv4 && n == 4, typ == inetAddressIPv6 && n == 16:
	default:
		return 0, netip.Addr{}, nil, fmt.Errorf("unsupported address type %d with length %d", typ, n)
	}

	b, ok := arcBytes(arcs[:n])
	if !ok {
		return 0, netip.Addr{}, nil, errors.New("address octet out of range")
	}
	addr, _ := netip.AddrFromSlice(b)
	return typ, addr, arcs[n:], nil
}
