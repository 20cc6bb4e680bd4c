package hpswitch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/hpswitch/internal/testutil"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

func TestParseMAC(t *testing.T) {
	tests := []struct {
		in      string
		want    [6]byte
		wantErr bool
	}{
		{"00:11:22:33:44:55", [6]byte{0, 17, 34, 51, 68, 85}, false},
		{"0:1a:2B:3c:4d:5e", [6]byte{0, 0x1a, 0x2b, 0x3c, 0x4d, 0x5e}, false},
		{"ff:ff:ff:ff:ff:ff", [6]byte{255, 255, 255, 255, 255, 255}, false},
		{"", [6]byte{}, true},
		{"00:11:22:33:44", [6]byte{}, true},
		{"00:11:22:33:44:55:66", [6]byte{}, true},
		{"00:11:22:33:44:555", [6]byte{}, true},
		{"00:11:22:33::55", [6]byte{}, true},
		{"00-11-22-33-44-55", [6]byte{}, true},
		{"zz:11:22:33:44:55", [6]byte{}, true},
		{"+1:11:22:33:44:55", [6]byte{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMAC(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMAC)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPortForMAC(t *testing.T) {
	agent := testutil.SwitchAgent()
	sw := newTestSwitch(t, agent)

	port, err := sw.GetPortForMAC(context.Background(), "00:11:22:33:44:55")
	require.NoError(t, err)
	assert.Equal(t, 2, port.Number())
	assert.Same(t, sw, port.Switch())

	reqs := agent.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"1.3.6.1.2.1.17.4.3.1.2.0.17.34.51.68.85"}, reqs[0].OIDs)
}

func TestGetPortForMAC_Malformed(t *testing.T) {
	agent := testutil.SwitchAgent()
	sw := newTestSwitch(t, agent)

	for _, mac := range []string{"00:11:22:33:44", "00:11:22:33:44:gg", "0011.2233.4455"} {
		_, err := sw.GetPortForMAC(context.Background(), mac)
		require.Error(t, err, mac)
		assert.True(t, snmp.IsValidationError(err), mac)
		assert.ErrorIs(t, err, ErrInvalidMAC)
	}
	assert.Empty(t, agent.Requests(), "no request for a malformed MAC")
}

func TestGetPortForMAC_NotLearned(t *testing.T) {
	sw := newTestSwitch(t, testutil.SwitchAgent())

	_, err := sw.GetPortForMAC(context.Background(), "de:ad:be:ef:00:01")
	require.Error(t, err)
	assert.True(t, snmp.IsAgentError(err))
	assert.ErrorIs(t, err, snmp.ErrNoSuchInstance)
}

func TestMACAddresses(t *testing.T) {
	agent := testutil.SwitchAgent()
	agent.FDBEntry("00:1a:2b:3c:4d:5e", 3)
	sw := newTestSwitch(t, agent)

	got, err := sw.MACAddresses(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "00:11:22:33:44:55", got[0].MAC)
	assert.Equal(t, 2, got[0].Port)
	assert.Equal(t, "00:1A:2B:3C:4D:5E", got[1].MAC)
	assert.Equal(t, 3, got[1].Port)
}
