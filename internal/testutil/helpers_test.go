package testutil

import (
	"net/netip"
	"testing"

	"github.com/HerbHall/hpswitch/pkg/snmp"
)

func defaultConfig(retries int) snmp.Config {
	cfg := snmp.DefaultConfig("192.0.2.1", "public")
	cfg.Retries = retries
	return cfg
}

func mustPrefix(t *testing.T, s string) netip.Prefix {
	t.Helper()
	p, err := netip.ParsePrefix(s)
	if err != nil {
		t.Fatalf("ParsePrefix(%q): %v", s, err)
	}
	return p
}

func mustAddr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("ParseAddr(%q): %v", s, err)
	}
	return a
}
