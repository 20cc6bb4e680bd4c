package hpswitch

import (
	"context"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/hpswitch/internal/testutil"
	"github.com/HerbHall/hpswitch/pkg/models"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

func TestSwitch_VLANs(t *testing.T) {
	agent := testutil.SwitchAgent()
	agent.VLAN(models.VLANInfo{ID: 4094, Name: "last"})
	sw := newTestSwitch(t, agent)

	vlans, err := sw.VLANs(context.Background())
	require.NoError(t, err)

	ids := make([]int, len(vlans))
	for i, v := range vlans {
		ids[i] = v.ID()
		assert.Same(t, sw, v.Switch())
	}
	assert.Equal(t, []int{1, 10, 4094}, ids)
}

func TestVLAN_Info(t *testing.T) {
	sw := newTestSwitch(t, testutil.SwitchAgent())
	v, err := sw.VLAN(1)
	require.NoError(t, err)

	info, err := v.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.VLANInfo{
		ID:            1,
		Name:          "DEFAULT_VLAN",
		EgressPorts:   []int{1, 2, 3},
		UntaggedPorts: []int{1, 3},
	}, info)
}

func TestSwitch_CreateVLAN(t *testing.T) {
	agent := testutil.SwitchAgent()
	sw := newTestSwitch(t, agent)
	ctx := context.Background()

	v, err := sw.CreateVLAN(ctx, 20, "voice")
	require.NoError(t, err)
	assert.Equal(t, 20, v.ID())

	reqs := agent.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].PDUs, 2)
	assert.Equal(t, "1.3.6.1.2.1.17.7.1.4.3.1.5.20", reqs[0].PDUs[0].Name)
	assert.Equal(t, int(models.RowStatusCreateAndGo), reqs[0].PDUs[0].Value)
	assert.Equal(t, gosnmp.OctetString, reqs[0].PDUs[1].Type)

	name, err := v.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "voice", name)
}

func TestSwitch_DeleteVLAN(t *testing.T) {
	agent := testutil.SwitchAgent()
	sw := newTestSwitch(t, agent)

	require.NoError(t, sw.DeleteVLAN(context.Background(), 10))
	reqs := agent.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "1.3.6.1.2.1.17.7.1.4.3.1.5.10", reqs[0].PDUs[0].Name)
	assert.Equal(t, int(models.RowStatusDestroy), reqs[0].PDUs[0].Value)
}

func TestVLAN_IDValidation(t *testing.T) {
	agent := testutil.SwitchAgent()
	sw := newTestSwitch(t, agent)
	ctx := context.Background()

	for _, id := range []int{0, -1, 4095} {
		_, err := sw.VLAN(id)
		assert.ErrorIs(t, err, ErrInvalidVLAN, "VLAN(%d)", id)
		_, err = sw.CreateVLAN(ctx, id, "x")
		assert.True(t, snmp.IsValidationError(err), "CreateVLAN(%d)", id)
		err = sw.DeleteVLAN(ctx, id)
		assert.True(t, snmp.IsValidationError(err), "DeleteVLAN(%d)", id)
	}
	_, err := sw.CreateVLAN(ctx, 30, "a-name-that-is-much-longer-than-32-octets")
	assert.True(t, snmp.IsValidationError(err))
	assert.Empty(t, agent.Requests())
}

func TestVLAN_SetPorts(t *testing.T) {
	agent := testutil.SwitchAgent()
	sw := newTestSwitch(t, agent)
	v, _ := sw.VLAN(10)
	ctx := context.Background()

	require.NoError(t, v.SetPorts(ctx, []int{2, 3, 9}, []int{2}))
	egress, err := v.EgressPorts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 9}, egress)
	untagged, err := v.UntaggedPorts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, untagged)

	err = v.SetPorts(ctx, []int{2}, []int{4})
	assert.True(t, snmp.IsValidationError(err))
}

func TestVLAN_SetName(t *testing.T) {
	sw := newTestSwitch(t, testutil.SwitchAgent())
	v, _ := sw.VLAN(10)
	ctx := context.Background()

	require.NoError(t, v.SetName(ctx, "srv"))
	name, err := v.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "srv", name)
}

func TestPortList(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		ports []int
	}{
		{"empty", nil, []int{}},
		{"port 1", []byte{0x80}, []int{1}},
		{"port 8", []byte{0x01}, []int{8}},
		{"ports 1 3 16", []byte{0xa0, 0x01}, []int{1, 3, 16}},
		{"second octet", []byte{0x00, 0x40}, []int{10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ports, DecodePortList(tt.bytes))
		})
	}

	b, err := EncodePortList([]int{1, 3, 16})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa0, 0x01}, b)

	_, err = EncodePortList([]int{0})
	assert.Error(t, err)
}
