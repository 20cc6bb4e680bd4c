package snmp

import (
	"context"
	"fmt"

	"github.com/gosnmp/gosnmp"
)

// Transport sends single SNMP PDUs and returns the agent's response packet.
// Retries and per-attempt timeouts are the transport's concern.
type Transport interface {
	Connect() error
	Close() error
	Get(ctx context.Context, oids []string) (*gosnmp.SnmpPacket, error)
	GetNext(ctx context.Context, oids []string) (*gosnmp.SnmpPacket, error)
	GetBulk(ctx context.Context, oids []string, maxRepetitions uint32) (*gosnmp.SnmpPacket, error)
	Set(ctx context.Context, pdus []gosnmp.SnmpPDU) (*gosnmp.SnmpPacket, error)
}

// Dialer builds a Transport for a validated Config. Tests swap in an
// in-memory agent here.
type Dialer func(cfg Config) (Transport, error)

// DialGoSNMP is the default Dialer, backed by gosnmp over UDP.
func DialGoSNMP(cfg Config) (Transport, error) {
	g, err := newGoSNMP(cfg)
	if err != nil {
		return nil, err
	}
	return &goSNMPTransport{g: g}, nil
}

// newGoSNMP creates a configured GoSNMP instance. The returned GoSNMP is
// not yet connected.
func newGoSNMP(cfg Config) (*gosnmp.GoSNMP, error) {
	host, port, err := cfg.hostPort()
	if err != nil {
		return nil, err
	}

	g := &gosnmp.GoSNMP{
		Target:             host,
		Port:               port,
		Transport:          "udp",
		Community:          cfg.Community,
		Timeout:            cfg.Timeout,
		Retries:            cfg.Retries,
		ExponentialTimeout: cfg.ExponentialTimeout,
		MaxOids:            gosnmp.MaxOids,
		MaxRepetitions:     cfg.MaxRepetitions,
		Context:            context.Background(),
	}

	switch cfg.Version {
	case "", "2c":
		g.Version = gosnmp.Version2c
	case "1":
		g.Version = gosnmp.Version1
	default:
		return nil, fmt.Errorf("unsupported SNMP version %q", cfg.Version)
	}
	return g, nil
}

// goSNMPTransport adapts *gosnmp.GoSNMP. It is not safe for concurrent use;
// Client serialises access.
type goSNMPTransport struct {
	g *gosnmp.GoSNMP
}

func (t *goSNMPTransport) Connect() error {
	return t.g.Connect()
}

func (t *goSNMPTransport) Close() error {
	if t.g.Conn == nil {
		return nil
	}
	return t.g.Conn.Close()
}

func (t *goSNMPTransport) Get(ctx context.Context, oids []string) (*gosnmp.SnmpPacket, error) {
	t.g.Context = ctx
	return t.g.Get(oids)
}

func (t *goSNMPTransport) GetNext(ctx context.Context, oids []string) (*gosnmp.SnmpPacket, error) {
	t.g.Context = ctx
	return t.g.GetNext(oids)
}

func (t *goSNMPTransport) GetBulk(ctx context.Context, oids []string, maxRepetitions uint32) (*gosnmp.SnmpPacket, error) {
	t.g.Context = ctx
	return t.g.GetBulk(oids, 0, maxRepetitions)
}

func (t *goSNMPTransport) Set(ctx context.Context, pdus []gosnmp.SnmpPDU) (*gosnmp.SnmpPacket, error) {
	t.g.Context = ctx
	return t.g.Set(pdus)
}
