// Package hpswitch queries and configures HP Networking switches over SNMP.
//
// A Switch owns its own MIB resolver and SNMP client. Port and VLAN values
// are obtained from a Switch and issue their requests through it; they hold
// no state beyond their number.
package hpswitch

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosnmp/gosnmp"
	"go.uber.org/zap"

	"github.com/HerbHall/hpswitch/pkg/mib"
	"github.com/HerbHall/hpswitch/pkg/models"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// DefaultCommunity is the well-known read community most switches ship
// with. It is never applied implicitly; passing it to New logs a warning.
const DefaultCommunity = "public"

type options struct {
	config   *snmp.Config
	logger   *zap.Logger
	dialer   snmp.Dialer
	mibDirs  []string
	modules  []string
	resolver *mib.Resolver
	tweaks   []func(*snmp.Config)
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSNMPConfig replaces the default client configuration. Target and
// Community are always taken from New's arguments.
func WithSNMPConfig(cfg snmp.Config) Option {
	return func(o *options) { o.config = &cfg }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.tweaks = append(o.tweaks, func(c *snmp.Config) { c.Timeout = d })
	}
}

// WithRetries sets how many times a request is resent after a timeout.
func WithRetries(n int) Option {
	return func(o *options) {
		o.tweaks = append(o.tweaks, func(c *snmp.Config) { c.Retries = n })
	}
}

// WithDialer replaces the UDP transport, typically with a test agent.
func WithDialer(d snmp.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithMIBDirs adds directories searched for MIB files before the built-in
// set.
func WithMIBDirs(dirs ...string) Option {
	return func(o *options) { o.mibDirs = append(o.mibDirs, dirs...) }
}

// WithModules loads these modules in addition to mib.DefaultModules.
func WithModules(names ...string) Option {
	return func(o *options) { o.modules = append(o.modules, names...) }
}

// WithResolver uses an already loaded resolver instead of loading the
// module set. Resolvers are safe to share between switches. New rejects
// it together with WithMIBDirs or WithModules, which only apply when New
// loads the modules itself.
func WithResolver(r *mib.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// Switch is one HP switch reached over SNMP.
type Switch struct {
	hostname string
	id       string
	client   *snmp.Client
	resolver *mib.Resolver
	logger   *zap.Logger
}

// New loads the switch MIB set and prepares a client for hostname. No
// request is sent until the first operation.
func New(hostname, community string, opts ...Option) (*Switch, error) {
	if hostname == "" {
		return nil, validationError("new", hostname, ErrHostnameRequired)
	}
	if community == "" {
		return nil, validationError("new", hostname, ErrCommunityRequired)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.resolver != nil && (len(o.mibDirs) > 0 || len(o.modules) > 0) {
		return nil, validationError("new", hostname, ErrResolverOptions)
	}

	id := uuid.NewString()
	logger := o.logger.With(zap.String("switch", hostname), zap.String("instance", id))
	if community == DefaultCommunity {
		logger.Warn("using the default SNMP community; configure a site-specific one")
	}

	resolver := o.resolver
	if resolver == nil {
		modules := append(append([]string(nil), mib.DefaultModules...), o.modules...)
		m, err := mib.LoadModules(modules, mib.WithDirs(o.mibDirs...), mib.WithLogger(logger))
		if err != nil {
			return nil, snmp.NewError(snmp.KindResolution, "new", hostname, fmt.Errorf("load MIB modules: %w", err))
		}
		resolver = mib.NewResolver(m)
	}

	cfg := snmp.DefaultConfig(hostname, community)
	if o.config != nil {
		cfg = *o.config
		cfg.Target = hostname
		cfg.Community = community
	}
	for _, tweak := range o.tweaks {
		tweak(&cfg)
	}

	clientOpts := []snmp.Option{snmp.WithLogger(logger)}
	if o.dialer != nil {
		clientOpts = append(clientOpts, snmp.WithDialer(o.dialer))
	}
	client, err := snmp.NewClient(cfg, resolver, clientOpts...)
	if err != nil {
		return nil, err
	}

	logger.Debug("switch ready",
		zap.Int("modules", len(resolver.MIB().Modules())),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("retries", cfg.Retries),
	)
	return &Switch{
		hostname: hostname,
		id:       id,
		client:   client,
		resolver: resolver,
		logger:   logger,
	}, nil
}

// Hostname returns the address the switch was created with.
func (s *Switch) Hostname() string { return s.hostname }

// ID returns the random instance ID attached to this Switch's log lines.
func (s *Switch) ID() string { return s.id }

// Resolver returns the switch's MIB resolver.
func (s *Switch) Resolver() *mib.Resolver { return s.resolver }

// Close releases the UDP socket.
func (s *Switch) Close() error { return s.client.Close() }

// Get fetches one object instance by name, e.g. "sysName.0".
func (s *Switch) Get(ctx context.Context, name string) (snmp.Variable, error) {
	return s.client.Get(ctx, name)
}

// Set writes all bindings in a single request.
func (s *Switch) Set(ctx context.Context, bindings ...snmp.Binding) error {
	return s.client.Set(ctx, bindings...)
}

// Walk returns every instance under name in agent order.
func (s *Switch) Walk(ctx context.Context, name string) ([]snmp.Variable, error) {
	return s.client.Walk(ctx, name)
}

// Label turns a variable into its display form, naming the OID by the
// deepest MIB object above it.
func (s *Switch) Label(v snmp.Variable) models.Variable {
	out := models.Variable{
		OID:   v.OID.String(),
		Type:  fmt.Sprint(v.Type),
		Value: displayValue(v),
	}
	if name, index, ok := s.resolver.Translate(v.OID); ok {
		out.Name = name
		if len(index) > 0 {
			out.Name += "." + index.String()
		}
	}
	return out
}

// SystemInfo reads the RFC1213 system group.
func (s *Switch) SystemInfo(ctx context.Context) (models.SystemInfo, error) {
	info := models.SystemInfo{Hostname: s.hostname}

	strs := []struct {
		name string
		dst  *string
	}{
		{"sysDescr.0", &info.Description},
		{"sysContact.0", &info.Contact},
		{"sysName.0", &info.Name},
		{"sysLocation.0", &info.Location},
	}
	for _, f := range strs {
		v, err := s.client.Get(ctx, f.name)
		if err != nil {
			return models.SystemInfo{}, fmt.Errorf("system info: %w", err)
		}
		*f.dst = v.String()
	}

	v, err := s.client.Get(ctx, "sysObjectID.0")
	if err != nil {
		return models.SystemInfo{}, fmt.Errorf("system info: %w", err)
	}
	info.ObjectID = v.String()

	v, err = s.client.Get(ctx, "sysUpTime.0")
	if err != nil {
		return models.SystemInfo{}, fmt.Errorf("system info: %w", err)
	}
	if info.Uptime, err = v.Duration(); err != nil {
		return models.SystemInfo{}, fmt.Errorf("system info: sysUpTime: %w", err)
	}

	s.logger.Debug("read system info", zap.String("sys_name", info.Name))
	return info, nil
}

// IPAddresses lists the addresses configured on the switch from the
// IP-MIB address table.
func (s *Switch) IPAddresses(ctx context.Context) ([]models.IPAddress, error) {
	ifIndexes, err := s.client.Walk(ctx, "ipAdEntIfIndex")
	if err != nil {
		return nil, fmt.Errorf("ip addresses: %w", err)
	}
	masks, err := s.client.Walk(ctx, "ipAdEntNetMask")
	if err != nil {
		return nil, fmt.Errorf("ip addresses: %w", err)
	}

	maskByAddr := make(map[string]snmp.Variable, len(masks))
	for _, v := range masks {
		maskByAddr[lastArcs(v.OID, 4).String()] = v
	}

	addrs := make([]models.IPAddress, 0, len(ifIndexes))
	for _, v := range ifIndexes {
		key := lastArcs(v.OID, 4)
		addr, ok := addrFromArcs(key)
		if !ok {
			s.logger.Debug("skipping malformed ipAddrTable index", zap.String("oid", v.OID.String()))
			continue
		}
		ifIndex, err := v.Int()
		if err != nil {
			return nil, fmt.Errorf("ip addresses: %w", err)
		}

		entry := models.IPAddress{Address: addr, IfIndex: int(ifIndex)}
		if mv, ok := maskByAddr[key.String()]; ok {
			if mask, err := mv.IP(); err == nil {
				entry.Netmask = mask
				if bits, ok := maskBits(mask); ok {
					entry.Prefix = netip.PrefixFrom(addr, bits).Masked()
				}
			}
		}
		addrs = append(addrs, entry)
	}

	s.logger.Debug("listed IP addresses", zap.Int("count", len(addrs)))
	return addrs, nil
}

func lastArcs(oid mib.OID, n int) mib.OID {
	if len(oid) < n {
		return nil
	}
	return oid[len(oid)-n:]
}

func addrFromArcs(arcs mib.OID) (netip.Addr, bool) {
	b, ok := arcBytes(arcs)
	if !ok {
		return netip.Addr{}, false
	}
	return netip.AddrFromSlice(b)
}

// arcBytes converts OID arcs that each encode one octet.
func arcBytes(arcs mib.OID) ([]byte, bool) {
	if len(arcs) == 0 {
		return nil, false
	}
	b := make([]byte, len(arcs))
	for i, a := range arcs {
		if a > 255 {
			return nil, false
		}
		b[i] = byte(a)
	}
	return b, true
}

// maskBits returns the prefix length of a contiguous netmask.
func maskBits(mask netip.Addr) (int, bool) {
	b := mask.AsSlice()
	bits := 0
	seenZero := false
	for _, octet := range b {
		for i := 7; i >= 0; i-- {
			if octet&(1<<i) != 0 {
				if seenZero {
					return 0, false
				}
				bits++
			} else {
				seenZero = true
			}
		}
	}
	return bits, true
}

// displayValue renders a variable for JSON or YAML output.
func displayValue(v snmp.Variable) any {
	switch v.Type {
	case gosnmp.OctetString:
		b, err := v.Bytes()
		if err != nil {
			return v.String()
		}
		if printable(b) {
			return string(b)
		}
		return formatHex(b)
	case gosnmp.ObjectIdentifier, gosnmp.IPAddress:
		return v.String()
	case gosnmp.Integer:
		if n, err := v.Int(); err == nil {
			return n
		}
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Counter64, gosnmp.Uinteger32:
		if n, err := v.Uint(); err == nil {
			return n
		}
	case gosnmp.Null, gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
		return nil
	}
	return v.String()
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// formatHex renders binary octets as colon-separated hex pairs.
func formatHex(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}
