package snmp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindAgent, Op: "set", Target: "sw1", Status: gosnmp.NotWritable, Index: 2}
	assert.Contains(t, err.Error(), "snmp set sw1: agent error")
	assert.Contains(t, err.Error(), "at index 2")

	err = NewError(KindTransport, "get", "sw1", errors.New("request timeout"))
	assert.Equal(t, "snmp get sw1: transport error: request timeout", err.Error())
}

func TestError_Classification(t *testing.T) {
	base := NewError(KindResolution, "get", "sw1", errors.New("unknown"))
	wrapped := fmt.Errorf("ports: %w", base)

	assert.True(t, IsResolutionError(wrapped))
	assert.False(t, IsTransportError(wrapped))
	assert.False(t, IsAgentError(wrapped))
	assert.False(t, IsValidationError(wrapped))
	assert.False(t, IsAgentError(errors.New("plain")))
}

func TestExceptionError(t *testing.T) {
	assert.ErrorIs(t, exceptionError(gosnmp.NoSuchObject), ErrNoSuchObject)
	assert.ErrorIs(t, exceptionError(gosnmp.NoSuchInstance), ErrNoSuchInstance)
	assert.ErrorIs(t, exceptionError(gosnmp.EndOfMibView), ErrEndOfMibView)
	assert.NoError(t, exceptionError(gosnmp.Integer))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", resultLabel(nil))
	assert.Equal(t, "agent", resultLabel(fmt.Errorf("x: %w", NewError(KindAgent, "get", "sw1", nil))))
	assert.Equal(t, "error", resultLabel(errors.New("x")))
}
