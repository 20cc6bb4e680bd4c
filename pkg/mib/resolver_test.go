package mib

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	m, err := LoadModules(DefaultModules)
	require.NoError(t, err)
	return NewResolver(m)
}

func TestResolver_Resolve(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		ref  string
		want string
	}{
		{"sysDescr", "1.3.6.1.2.1.1.1"},
		{"sysDescr.0", "1.3.6.1.2.1.1.1.0"},
		{"dot1dBasePort", "1.3.6.1.2.1.17.1.4.1.1"},
		{"dot1dBasePortIfIndex", "1.3.6.1.2.1.17.1.4.1.2"},
		{"dot1dTpFdbPort", "1.3.6.1.2.1.17.4.3.1.2"},
		{"dot1dTpFdbPort.0.17.34.51.68.85", "1.3.6.1.2.1.17.4.3.1.2.0.17.34.51.68.85"},
		{"dot1qVlanStaticRowStatus", "1.3.6.1.2.1.17.7.1.4.3.1.5"},
		{"dot1qVlanStaticName.10", "1.3.6.1.2.1.17.7.1.4.3.1.1.10"},
		{"dot1qPvid", "1.3.6.1.2.1.17.7.1.4.5.1.1"},
		{"ifName", "1.3.6.1.2.1.31.1.1.1.1"},
		{"ifAdminStatus.3", "1.3.6.1.2.1.2.2.1.7.3"},
		{"ipAdEntIfIndex", "1.3.6.1.2.1.4.20.1.2"},
		{"inetCidrRouteProto", "1.3.6.1.2.1.4.24.7.1.9"},
		{"inetCidrRouteStatus", "1.3.6.1.2.1.4.24.7.1.17"},
		{"hpicfIpConfig", "1.3.6.1.4.1.11.2.14.11.1.4"},
		{"IF-MIB::ifIndex", "1.3.6.1.2.1.2.2.1.1"},
		{"BRIDGE-MIB::dot1dTpFdbPort.0.1.2.3.4.5", "1.3.6.1.2.1.17.4.3.1.2.0.1.2.3.4.5"},
		{"zeroDotZero", "0.0"},
		{"1.3.6.1.2.1.1.5.0", "1.3.6.1.2.1.1.5.0"},
		{".1.3.6.1.2.1.1.5.0", "1.3.6.1.2.1.1.5.0"},
		{"  sysName.0 ", "1.3.6.1.2.1.1.5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := r.Resolve(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolver_ResolveErrors(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		ref     string
		wantErr error
	}{
		{"noSuchObject", ErrUnknownObject},
		{"Q-BRIDGE-MIB::sysDescr", ErrUnknownObject},
		{"NO-SUCH-MIB::sysDescr", ErrUnknownObject},
		{"", ErrInvalidReference},
		{"sysDescr.", ErrInvalidReference},
		{"sysDescr.0.x", ErrInvalidReference},
		{"::sysDescr", ErrInvalidReference},
		{"1.3..6", ErrInvalidReference},
		{"-sysDescr", ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			_, err := r.Resolve(tt.ref)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var resErr *ResolveError
			require.True(t, errors.As(err, &resErr))
			assert.Equal(t, tt.ref, resErr.Ref)
		})
	}
}

func TestResolver_ResolveName(t *testing.T) {
	r := newTestResolver(t)

	oid, err := r.ResolveName("dot1dTpFdbPort", 0, 17, 34, 51, 68, 85)
	require.NoError(t, err)
	assert.Equal(t, "1.3.6.1.2.1.17.4.3.1.2.0.17.34.51.68.85", oid.String())

	_, err = r.ResolveName("dot1dTpFdbNope", 1)
	assert.ErrorIs(t, err, ErrUnknownObject)
}

func TestResolver_Lookup(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name   string
		kind   Kind
		syntax BaseType
		access Access
		module string
	}{
		{"dot1dBridge", KindNode, BaseUnknown, AccessNone, "BRIDGE-MIB"},
		{"sysDescr", KindScalar, BaseOctetString, AccessReadOnly, "RFC1213-MIB"},
		{"sysObjectID", KindScalar, BaseObjectIdentifier, AccessReadOnly, "RFC1213-MIB"},
		{"sysUpTime", KindScalar, BaseTimeTicks, AccessReadOnly, "RFC1213-MIB"},
		{"dot1dTpFdbTable", KindTable, BaseUnknown, AccessNotAccessible, "BRIDGE-MIB"},
		{"dot1dTpFdbEntry", KindRow, BaseUnknown, AccessNotAccessible, "BRIDGE-MIB"},
		{"dot1dTpFdbPort", KindColumn, BaseInteger, AccessReadOnly, "BRIDGE-MIB"},
		{"dot1qVlanStaticRowStatus", KindColumn, BaseInteger, AccessReadCreate, "Q-BRIDGE-MIB"},
		{"dot1qVlanStaticName", KindColumn, BaseOctetString, AccessReadCreate, "Q-BRIDGE-MIB"},
		{"dot1qVlanStaticEgressPorts", KindColumn, BaseOctetString, AccessReadCreate, "Q-BRIDGE-MIB"},
		{"dot1qPvid", KindColumn, BaseUnsigned32, AccessReadWrite, "Q-BRIDGE-MIB"},
		{"ifHCInOctets", KindColumn, BaseCounter64, AccessReadOnly, "IF-MIB"},
		{"ifSpeed", KindColumn, BaseGauge32, AccessReadOnly, "RFC1213-MIB"},
		{"ipAdEntNetMask", KindColumn, BaseIpAddress, AccessReadOnly, "RFC1213-MIB"},
		{"inetCidrRouteProto", KindColumn, BaseInteger, AccessReadOnly, "IP-FORWARD-MIB"},
		{"inetCidrRouteDest", KindColumn, BaseOctetString, AccessNotAccessible, "IP-FORWARD-MIB"},
		{"inetCidrRouteNextHopAS", KindColumn, BaseUnsigned32, AccessReadCreate, "IP-FORWARD-MIB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := r.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, n.Kind, "kind")
			assert.Equal(t, tt.syntax, n.Syntax, "syntax")
			assert.Equal(t, tt.access, n.Access, "access")
			assert.Equal(t, tt.module, n.Module, "module")
		})
	}

	_, err := r.Lookup("sysDescr.0")
	assert.ErrorIs(t, err, ErrInvalidReference)

	n, err := r.Lookup("IF-MIB::ifIndex")
	require.NoError(t, err)
	assert.Equal(t, "IF-MIB::ifIndex", n.Qualified())
	assert.Equal(t, "InterfaceIndex", n.TypeName)
	assert.Equal(t, BaseInteger, n.Syntax)
}

func TestResolver_Translate(t *testing.T) {
	r := newTestResolver(t)

	name, index, ok := r.Translate(MustParseOID("1.3.6.1.2.1.17.4.3.1.2.0.17.34.51.68.85"))
	require.True(t, ok)
	assert.Equal(t, "dot1dTpFdbPort", name)
	assert.Equal(t, "0.17.34.51.68.85", index.String())

	name, index, ok = r.Translate(MustParseOID("1.3.6.1.2.1.1.5"))
	require.True(t, ok)
	assert.Equal(t, "sysName", name)
	assert.Empty(t, index)

	// Unregistered enterprise arcs fall back to the deepest known node.
	name, index, ok = r.Translate(MustParseOID("1.3.6.1.4.1.9.9.46"))
	require.True(t, ok)
	assert.Equal(t, "enterprises", name)
	assert.Equal(t, "9.9.46", index.String())

	_, _, ok = r.Translate(MustParseOID("3.1"))
	assert.False(t, ok)
}

func TestResolver_Syntax(t *testing.T) {
	r := newTestResolver(t)

	assert.Equal(t, BaseInteger, r.Syntax(MustParseOID("1.3.6.1.2.1.17.7.1.4.3.1.5.10")))
	assert.Equal(t, BaseOctetString, r.Syntax(MustParseOID("1.3.6.1.2.1.1.5.0")))
	assert.Equal(t, BaseUnknown, r.Syntax(MustParseOID("1.3.6.1.4.1.9.9")))
}

func TestResolver_ConcurrentUse(t *testing.T) {
	r := newTestResolver(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				oid, err := r.ResolveName("dot1qPvid", uint32(j))
				if err != nil {
					t.Error(err)
					return
				}
				if oid.Last() != uint32(j) {
					t.Errorf("ResolveName index = %d, want %d", oid.Last(), j)
					return
				}
			}
		}()
	}
	wg.Wait()
}
