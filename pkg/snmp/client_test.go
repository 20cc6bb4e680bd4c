package snmp_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	fake "github.com/HerbHall/hpswitch/internal/testutil"
	"github.com/HerbHall/hpswitch/pkg/mib"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

var (
	loadOnce sync.Once
	resolver *mib.Resolver
	loadErr  error
)

func testResolver(t *testing.T) *mib.Resolver {
	t.Helper()
	loadOnce.Do(func() {
		var m *mib.MIB
		m, loadErr = mib.LoadModules(mib.DefaultModules)
		if loadErr == nil {
			resolver = mib.NewResolver(m)
		}
	})
	require.NoError(t, loadErr)
	return resolver
}

func newClient(t *testing.T, agent *fake.Agent, mutate ...func(*snmp.Config)) *snmp.Client {
	t.Helper()
	cfg := snmp.DefaultConfig("192.0.2.10", "public")
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := snmp.NewClient(cfg, testResolver(t),
		snmp.WithDialer(agent.Dialer()),
		snmp.WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Get(t *testing.T) {
	agent := fake.SwitchAgent()
	c := newClient(t, agent)

	v, err := c.Get(context.Background(), "sysName.0")
	require.NoError(t, err)
	assert.Equal(t, "1.3.6.1.2.1.1.5.0", v.OID.String())
	assert.Equal(t, "sw-test-01", v.String())

	reqs := agent.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "get", reqs[0].Op)
	assert.Equal(t, []string{"1.3.6.1.2.1.1.5.0"}, reqs[0].OIDs)
}

func TestClient_GetExactOID(t *testing.T) {
	agent := fake.SwitchAgent()
	c := newClient(t, agent)

	_, err := c.Get(context.Background(), "dot1dTpFdbPort.0.17.34.51.68.85")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "BRIDGE-MIB::dot1dBasePortIfIndex.2")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), ".1.3.6.1.2.1.1.1.0")
	require.NoError(t, err)

	reqs := agent.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, []string{"1.3.6.1.2.1.17.4.3.1.2.0.17.34.51.68.85"}, reqs[0].OIDs)
	assert.Equal(t, []string{"1.3.6.1.2.1.17.1.4.1.2.2"}, reqs[1].OIDs)
	assert.Equal(t, []string{"1.3.6.1.2.1.1.1.0"}, reqs[2].OIDs)
}

func TestClient_GetExceptions(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want error
	}{
		{"missing instance", "ifDescr.99", snmp.ErrNoSuchInstance},
		{"missing object", "sysServices.0", snmp.ErrNoSuchObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, fake.SwitchAgent())
			_, err := c.Get(context.Background(), tt.ref)
			require.Error(t, err)
			assert.True(t, snmp.IsAgentError(err), "got %v", err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_UnknownNameNoNetwork(t *testing.T) {
	agent := fake.SwitchAgent()
	c := newClient(t, agent)
	ctx := context.Background()

	_, err := c.Get(ctx, "noSuchThing.0")
	require.Error(t, err)
	assert.True(t, snmp.IsResolutionError(err))
	assert.ErrorIs(t, err, mib.ErrUnknownObject)

	_, err = c.Walk(ctx, "noSuchTable")
	assert.True(t, snmp.IsResolutionError(err))

	err = c.Set(ctx,
		snmp.Binding{Name: "sysName.0", Value: "x"},
		snmp.Binding{Name: "noSuchThing.0", Value: 1},
	)
	assert.True(t, snmp.IsResolutionError(err))

	assert.Empty(t, agent.Requests())
	assert.Zero(t, agent.Connects())
}

func TestClient_Set(t *testing.T) {
	agent := fake.SwitchAgent()
	c := newClient(t, agent)

	err := c.Set(context.Background(),
		snmp.Binding{Name: "sysName.0", Value: "core-1"},
		snmp.Binding{Name: "ifAdminStatus.3", Value: 1},
		snmp.Binding{Name: "dot1qPvid.2", Value: 20},
	)
	require.NoError(t, err)

	reqs := agent.Requests()
	require.Len(t, reqs, 1, "all bindings travel in one PDU")
	require.Len(t, reqs[0].PDUs, 3)
	assert.Equal(t, gosnmp.OctetString, reqs[0].PDUs[0].Type)
	assert.Equal(t, gosnmp.Integer, reqs[0].PDUs[1].Type)
	assert.Equal(t, gosnmp.Gauge32, reqs[0].PDUs[2].Type)

	o, ok := agent.Object(fake.OIDSystem + ".5.0")
	require.True(t, ok)
	assert.Equal(t, []byte("core-1"), o.Value)
	o, _ = agent.Object(fake.OIDIfTable + ".7.3")
	assert.Equal(t, 1, o.Value)
}

func TestClient_SetExplicitType(t *testing.T) {
	agent := fake.SwitchAgent()
	c := newClient(t, agent)

	err := c.Set(context.Background(), snmp.Binding{Name: "1.3.6.1.4.1.11.99.0", Type: gosnmp.IPAddress, Value: "10.0.0.1"})
	require.NoError(t, err)
	reqs := agent.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, gosnmp.IPAddress, reqs[0].PDUs[0].Type)
	assert.Equal(t, "10.0.0.1", reqs[0].PDUs[0].Value)
}

func TestClient_SetAllOrNothing(t *testing.T) {
	agent := fake.SwitchAgent(fake.RejectSets(gosnmp.NotWritable, 2))
	c := newClient(t, agent)

	err := c.Set(context.Background(),
		snmp.Binding{Name: "sysName.0", Value: "core-1"},
		snmp.Binding{Name: "sysDescr.0", Value: "nope"},
	)
	require.Error(t, err)
	assert.True(t, snmp.IsAgentError(err))

	var se *snmp.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, gosnmp.NotWritable, se.Status)
	assert.Equal(t, 2, se.Index)

	o, _ := agent.Object(fake.OIDSystem + ".5.0")
	assert.Equal(t, []byte("sw-test-01"), o.Value)
}

func TestClient_SetValidation(t *testing.T) {
	agent := fake.SwitchAgent()
	c := newClient(t, agent)
	ctx := context.Background()

	err := c.Set(ctx)
	assert.True(t, snmp.IsValidationError(err))

	err = c.Set(ctx, snmp.Binding{Name: "ifAdminStatus.1", Value: "up"})
	assert.True(t, snmp.IsValidationError(err), "string for INTEGER column: %v", err)

	err = c.Set(ctx, snmp.Binding{Name: "1.3.6.1.4.1.11.99.0", Value: struct{}{}})
	assert.True(t, snmp.IsValidationError(err))

	err = c.Set(ctx, snmp.Binding{Name: "dot1qPvid.3", Type: gosnmp.Gauge32, Value: 1 << 32})
	assert.True(t, snmp.IsValidationError(err), "Gauge32 overflow: %v", err)

	err = c.Set(ctx, snmp.Binding{Name: "ifAdminStatus.2", Value: int64(1) << 40})
	assert.True(t, snmp.IsValidationError(err), "INTEGER overflow: %v", err)

	assert.Empty(t, agent.Requests())
}

func TestClient_Walk(t *testing.T) {
	for _, mode := range []snmp.WalkMode{snmp.WalkGetNext, snmp.WalkBulk} {
		t.Run(string(mode), func(t *testing.T) {
			agent := fake.SwitchAgent()
			c := newClient(t, agent, func(cfg *snmp.Config) {
				cfg.WalkMode = mode
				cfg.MaxRepetitions = 2
			})

			vars, err := c.Walk(context.Background(), "ifDescr")
			require.NoError(t, err)
			require.Len(t, vars, 3)

			root := mib.MustParseOID(fake.OIDIfTable + ".2")
			for i, v := range vars {
				assert.True(t, v.OID.HasPrefix(root), "%s outside ifDescr", v.OID)
				if i > 0 {
					assert.Positive(t, v.OID.Compare(vars[i-1].OID), "walk order")
				}
			}
			assert.Equal(t, "Port 1", vars[0].String())
			assert.Equal(t, uint32(3), vars[2].OID.Last())
		})
	}
}

func TestClient_WalkEndOfMibView(t *testing.T) {
	agent := fake.NewAgent()
	agent.Put("1.3.6.1.2.1.1.1.0", gosnmp.OctetString, []byte("descr"))
	agent.Put("1.3.6.1.2.1.1.5.0", gosnmp.OctetString, []byte("name"))
	c := newClient(t, agent)

	vars, err := c.Walk(context.Background(), "system")
	require.NoError(t, err)
	assert.Len(t, vars, 2)

	vars, err = c.Walk(context.Background(), "interfaces")
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestClient_WalkNonIncreasing(t *testing.T) {
	agent := fake.SwitchAgent(fake.NonIncreasing())
	c := newClient(t, agent)

	_, err := c.Walk(context.Background(), "ifDescr")
	require.Error(t, err)
	assert.True(t, snmp.IsAgentError(err))
	assert.ErrorIs(t, err, snmp.ErrNonIncreasingOID)
	assert.Len(t, agent.Requests(), 1)
}

func TestClient_WalkCancelled(t *testing.T) {
	c := newClient(t, fake.SwitchAgent())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Walk(ctx, "ifTable")
	require.Error(t, err)
	assert.True(t, snmp.IsTransportError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Unreachable(t *testing.T) {
	agent := fake.NewAgent(fake.Unreachable())
	c := newClient(t, agent, func(cfg *snmp.Config) { cfg.Retries = 2 })

	_, err := c.Get(context.Background(), "sysName.0")
	require.Error(t, err)
	assert.True(t, snmp.IsTransportError(err))
	assert.Equal(t, 3, agent.Attempts())
}

// TestClient_SilentAgent sends real datagrams to a socket that never
// answers and counts them.
func TestClient_SilentAgent(t *testing.T) {
	if testing.Short() {
		t.Skip("uses a UDP socket")
	}

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	var received atomic.Int32
	go func() {
		buf := make([]byte, 2048)
		for {
			if _, _, err := conn.ReadFrom(buf); err != nil {
				return
			}
			received.Add(1)
		}
	}()

	cfg := snmp.DefaultConfig(conn.LocalAddr().String(), "public")
	cfg.Timeout = 50 * time.Millisecond
	cfg.Retries = 2
	c, err := snmp.NewClient(cfg, testResolver(t), snmp.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), "sysName.0")
	require.Error(t, err)
	assert.True(t, snmp.IsTransportError(err))
	assert.Eventually(t, func() bool { return received.Load() == int32(cfg.Retries+1) },
		time.Second, 10*time.Millisecond, "datagrams received: %d", received.Load())
}

func TestClient_ConcurrentUse(t *testing.T) {
	agent := fake.SwitchAgent()
	c := newClient(t, agent)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "sysName.0")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := c.Walk(context.Background(), "dot1dBasePort")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, agent.Connects())
}

func TestClient_RateLimit(t *testing.T) {
	agent := fake.SwitchAgent()
	c := newClient(t, agent, func(cfg *snmp.Config) {
		cfg.RateLimit = 20
		cfg.RateBurst = 1
	})

	start := time.Now()
	for range 3 {
		_, err := c.Get(context.Background(), "sysName.0")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestClient_Metrics(t *testing.T) {
	c := newClient(t, fake.SwitchAgent())
	ctx := context.Background()

	before := testutil.ToFloat64(snmp.RequestsTotal().WithLabelValues("get", "ok"))
	beforeRes := testutil.ToFloat64(snmp.RequestsTotal().WithLabelValues("get", "resolution"))

	_, err := c.Get(ctx, "sysName.0")
	require.NoError(t, err)
	_, err = c.Get(ctx, "bogus.0")
	require.Error(t, err)

	assert.InDelta(t, before+1, testutil.ToFloat64(snmp.RequestsTotal().WithLabelValues("get", "ok")), 0)
	assert.InDelta(t, beforeRes+1, testutil.ToFloat64(snmp.RequestsTotal().WithLabelValues("get", "resolution")), 0)
}

func TestNewClient_Validation(t *testing.T) {
	cfg := snmp.DefaultConfig("192.0.2.10", "")
	_, err := snmp.NewClient(cfg, testResolver(t))
	require.Error(t, err)
	assert.True(t, snmp.IsValidationError(err))

	_, err = snmp.NewClient(snmp.DefaultConfig("192.0.2.10", "public"), nil)
	assert.True(t, snmp.IsValidationError(err))

	var se *snmp.Error
	assert.True(t, errors.As(err, &se))
}
