package snmp

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Defaults for a switch session.
const (
	DefaultPort           = 161
	DefaultTimeout        = 8 * time.Second
	DefaultRetries        = 5
	DefaultVersion        = "2c"
	DefaultMaxRepetitions = 25
)

// WalkMode selects the PDU used to step through a subtree.
type WalkMode string

const (
	WalkGetNext WalkMode = "getnext"
	WalkBulk    WalkMode = "bulk"
)

// Config describes one SNMP agent and how to talk to it.
type Config struct {
	// Target is a hostname or address, optionally with ":port".
	Target    string
	Port      uint16
	Community string
	Version   string // "2c" or "1"

	// Timeout applies to each attempt; gosnmp makes Retries+1 attempts.
	Timeout            time.Duration
	Retries            int
	ExponentialTimeout bool

	WalkMode       WalkMode
	MaxRepetitions uint32

	// RateLimit caps requests per second; 0 disables pacing.
	RateLimit float64
	RateBurst int
}

// DefaultConfig returns a Config for target with every default applied.
func DefaultConfig(target, community string) Config {
	return Config{
		Target:         target,
		Port:           DefaultPort,
		Community:      community,
		Version:        DefaultVersion,
		Timeout:        DefaultTimeout,
		Retries:        DefaultRetries,
		WalkMode:       WalkGetNext,
		MaxRepetitions: DefaultMaxRepetitions,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Target == "" {
		return errors.New("target is required")
	}
	if _, _, err := c.hostPort(); err != nil {
		return err
	}
	if c.Community == "" {
		return errors.New("community is required")
	}
	switch c.Version {
	case "", "1", "2c":
	default:
		return fmt.Errorf("unsupported SNMP version %q (want 1 or 2c)", c.Version)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	switch c.WalkMode {
	case "", WalkGetNext:
	case WalkBulk:
		if c.Version == "1" {
			return errors.New("bulk walks need SNMP v2c")
		}
	default:
		return fmt.Errorf("unknown walk mode %q", c.WalkMode)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	return nil
}

// RequestBudget is the longest a single request can block before gosnmp
// gives up: one timeout per attempt, doubling each time when
// ExponentialTimeout is set.
func (c Config) RequestBudget() time.Duration {
	if !c.ExponentialTimeout {
		return c.Timeout * time.Duration(c.Retries+1)
	}
	var total time.Duration
	step := c.Timeout
	for i := 0; i <= c.Retries; i++ {
		total += step
		step *= 2
	}
	return total
}

// hostPort splits Target, falling back to Port and then DefaultPort.
func (c Config) hostPort() (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(c.Target)
	if err != nil {
		// No port in the target.
		port := c.Port
		if port == 0 {
			port = DefaultPort
		}
		return c.Target, port, nil
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, uint16(port), nil
}
