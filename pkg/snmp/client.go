package snmp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/hpswitch/pkg/mib"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDialer replaces the gosnmp transport, typically with a test agent.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// Client performs GET, SET and WALK against one agent, resolving object
// names through a MIB resolver. A Client has at most one request in flight;
// concurrent callers are serialised.
type Client struct {
	cfg      Config
	resolver *mib.Resolver
	dialer   Dialer
	logger   *zap.Logger
	limiter  *rate.Limiter

	mu        sync.Mutex
	transport Transport
}

// NewClient validates cfg and returns a Client. The transport is opened on
// first use.
func NewClient(cfg Config, resolver *mib.Resolver, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewError(KindValidation, "connect", cfg.Target, err)
	}
	if resolver == nil {
		return nil, NewError(KindValidation, "connect", cfg.Target, errors.New("resolver is required"))
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.WalkMode == "" {
		cfg.WalkMode = WalkGetNext
	}
	if cfg.MaxRepetitions == 0 {
		cfg.MaxRepetitions = DefaultMaxRepetitions
	}

	c := &Client{
		cfg:      cfg,
		resolver: resolver,
		dialer:   DialGoSNMP,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}
	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config { return c.cfg }

// Resolver returns the resolver used for object names.
func (c *Client) Resolver() *mib.Resolver { return c.resolver }

// Close releases the transport. The client reconnects on next use.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport == nil {
		return nil
	}
	err := c.transport.Close()
	c.transport = nil
	return err
}

// Get fetches a single object instance, e.g. "sysName.0".
func (c *Client) Get(ctx context.Context, name string) (Variable, error) {
	start := time.Now()
	v, err := c.get(ctx, name)
	c.observe("get", start, err)
	return v, err
}

func (c *Client) get(ctx context.Context, name string) (Variable, error) {
	oid, err := c.resolver.Resolve(name)
	if err != nil {
		return Variable{}, c.newError(KindResolution, "get", err)
	}

	pkt, err := c.roundTrip(ctx, "get", func(t Transport) (*gosnmp.SnmpPacket, error) {
		return t.Get(ctx, []string{oid.String()})
	})
	if err != nil {
		return Variable{}, err
	}
	if err := c.checkPacket("get", pkt, 1); err != nil {
		return Variable{}, err
	}

	pdu := pkt.Variables[0]
	if exc := exceptionError(pdu.Type); exc != nil {
		return Variable{}, &Error{Kind: KindAgent, Op: "get", Target: c.cfg.Target, Index: 1, Err: fmt.Errorf("%s: %w", oid, exc)}
	}
	v, err := newVariable(pdu)
	if err != nil {
		return Variable{}, c.newError(KindTransport, "get", err)
	}

	c.logger.Debug("SNMP get",
		zap.String("target", c.cfg.Target),
		zap.String("name", name),
		zap.String("oid", oid.String()),
	)
	return v, nil
}

// Set writes every binding in a single SET PDU. All names are resolved
// before anything is sent; the agent applies all bindings or none.
func (c *Client) Set(ctx context.Context, bindings ...Binding) error {
	start := time.Now()
	err := c.set(ctx, bindings)
	c.observe("set", start, err)
	return err
}

func (c *Client) set(ctx context.Context, bindings []Binding) error {
	if len(bindings) == 0 {
		return c.newError(KindValidation, "set", errors.New("no bindings"))
	}

	pdus := make([]gosnmp.SnmpPDU, 0, len(bindings))
	for _, b := range bindings {
		oid, err := c.resolver.Resolve(b.Name)
		if err != nil {
			return c.newError(KindResolution, "set", err)
		}

		typ := b.Type
		if typ == 0 {
			var ok bool
			if typ, ok = wireType(c.resolver.Syntax(oid)); !ok {
				if typ, ok = inferType(b.Value); !ok {
					return c.newError(KindValidation, "set", fmt.Errorf("%s: cannot determine type for %T", b.Name, b.Value))
				}
			}
		}

		value, err := encodeValue(typ, b.Value)
		if err != nil {
			return c.newError(KindValidation, "set", fmt.Errorf("%s: %w", b.Name, err))
		}
		pdus = append(pdus, gosnmp.SnmpPDU{Name: oid.String(), Type: typ, Value: value})
	}

	pkt, err := c.roundTrip(ctx, "set", func(t Transport) (*gosnmp.SnmpPacket, error) {
		return t.Set(ctx, pdus)
	})
	if err != nil {
		return err
	}
	if err := c.checkPacket("set", pkt, 0); err != nil {
		return err
	}

	c.logger.Debug("SNMP set",
		zap.String("target", c.cfg.Target),
		zap.Int("bindings", len(pdus)),
		zap.String("first", bindings[0].Name),
	)
	return nil
}

// Walk returns every instance under name in agent order. The walk ends at
// the first OID outside the subtree or at endOfMibView.
func (c *Client) Walk(ctx context.Context, name string) ([]Variable, error) {
	start := time.Now()
	vars, err := c.walk(ctx, name)
	c.observe("walk", start, err)
	return vars, err
}

func (c *Client) walk(ctx context.Context, name string) ([]Variable, error) {
	root, err := c.resolver.Resolve(name)
	if err != nil {
		return nil, c.newError(KindResolution, "walk", err)
	}

	var (
		results []Variable
		current = root
		steps   int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, c.newError(KindTransport, "walk", err)
		}

		from := current.String()
		pkt, err := c.roundTrip(ctx, "walk", func(t Transport) (*gosnmp.SnmpPacket, error) {
			if c.cfg.WalkMode == WalkBulk {
				return t.GetBulk(ctx, []string{from}, c.cfg.MaxRepetitions)
			}
			return t.GetNext(ctx, []string{from})
		})
		if err != nil {
			return nil, err
		}
		steps++

		// SNMPv1 agents signal the end of the MIB with noSuchName.
		if pkt != nil && pkt.Error == gosnmp.NoSuchName {
			break
		}
		if err := c.checkPacket("walk", pkt, 1); err != nil {
			return nil, err
		}

		done := false
		for _, pdu := range pkt.Variables {
			if pdu.Type == gosnmp.EndOfMibView {
				done = true
				break
			}
			v, err := newVariable(pdu)
			if err != nil {
				return nil, c.newError(KindTransport, "walk", err)
			}
			if v.OID.Compare(current) <= 0 {
				return nil, c.newError(KindAgent, "walk", fmt.Errorf("%w: %s after %s", ErrNonIncreasingOID, v.OID, current))
			}
			if !v.OID.HasPrefix(root) {
				done = true
				break
			}
			results = append(results, v)
			current = v.OID
		}
		if done {
			break
		}
	}

	c.logger.Debug("SNMP walk",
		zap.String("target", c.cfg.Target),
		zap.String("name", name),
		zap.String("oid", root.String()),
		zap.Int("variables", len(results)),
		zap.Int("requests", steps),
	)
	return results, nil
}

// roundTrip sends one request under the client lock, connecting and
// waiting for a rate-limit token first.
func (c *Client) roundTrip(ctx context.Context, op string, send func(Transport) (*gosnmp.SnmpPacket, error)) (*gosnmp.SnmpPacket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.newError(KindTransport, op, err)
		}
	}

	if c.transport == nil {
		t, err := c.dialer(c.cfg)
		if err != nil {
			return nil, c.newError(KindTransport, op, fmt.Errorf("configure SNMP: %w", err))
		}
		if err := t.Connect(); err != nil {
			return nil, c.newError(KindTransport, op, fmt.Errorf("connect to %s: %w", c.cfg.Target, err))
		}
		c.transport = t
	}

	pkt, err := send(c.transport)
	if err != nil {
		return nil, c.newError(KindTransport, op, err)
	}
	return pkt, nil
}

// checkPacket turns a PDU error status into an agent error and makes sure
// at least want variables came back.
func (c *Client) checkPacket(op string, pkt *gosnmp.SnmpPacket, want int) error {
	if pkt == nil {
		return c.newError(KindTransport, op, errors.New("empty response"))
	}
	if pkt.Error != gosnmp.NoError {
		return &Error{
			Kind:   KindAgent,
			Op:     op,
			Target: c.cfg.Target,
			Status: pkt.Error,
			Index:  int(pkt.ErrorIndex),
		}
	}
	if len(pkt.Variables) < want {
		return c.newError(KindAgent, op, ErrShortResponse)
	}
	return nil
}

func (c *Client) newError(kind Kind, op string, err error) *Error {
	return NewError(kind, op, c.cfg.Target, err)
}

func (c *Client) observe(op string, start time.Time, err error) {
	requestsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Debug("SNMP request failed",
			zap.String("op", op),
			zap.String("target", c.cfg.Target),
			zap.Error(err),
		)
	}
}
