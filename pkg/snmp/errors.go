package snmp

import (
	"errors"
	"fmt"

	"github.com/gosnmp/gosnmp"
)

// Kind classifies a failed operation.
type Kind string

// Error kinds. Every error returned by Client is an *Error with one of these.
const (
	KindResolution Kind = "resolution" // object name could not be turned into an OID
	KindTransport  Kind = "transport"  // no usable response: timeout, socket or decode failure
	KindAgent      Kind = "agent"      // the agent answered with an error status or exception
	KindValidation Kind = "validation" // caller input rejected before any network I/O
)

// Sentinel causes wrapped by agent errors.
var (
	ErrNoSuchObject     = errors.New("no such object")
	ErrNoSuchInstance   = errors.New("no such instance")
	ErrEndOfMibView     = errors.New("end of MIB view")
	ErrNonIncreasingOID = errors.New("agent returned a non-increasing OID")
	ErrShortResponse    = errors.New("response carried fewer variables than requested")
)

// Error is the typed error returned by Client operations and by the device
// facade. Use the IsXxx helpers to classify without inspecting fields.
type Error struct {
	Kind   Kind
	Op     string // "get", "set", "walk", or a facade operation name
	Target string

	// Status and Index are set for agent errors carried in the PDU header.
	// Index is 1-based; 0 means the error is not tied to a variable.
	Status gosnmp.SNMPError
	Index  int

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("snmp %s %s: %s error", e.Op, e.Target, e.Kind)
	if e.Status != gosnmp.NoError {
		msg += fmt.Sprintf(" %v", e.Status)
		if e.Index > 0 {
			msg += fmt.Sprintf(" at index %d", e.Index)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed error.
func NewError(kind Kind, op, target string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Err: err}
}

// IsResolutionError reports whether err is a name resolution failure.
func IsResolutionError(err error) bool {
	return hasKind(err, KindResolution)
}

// IsTransportError reports whether err is a timeout or other transport failure.
func IsTransportError(err error) bool {
	return hasKind(err, KindTransport)
}

// IsAgentError reports whether err was reported by the agent.
func IsAgentError(err error) bool {
	return hasKind(err, KindAgent)
}

// IsValidationError reports whether err rejected caller input.
func IsValidationError(err error) bool {
	return hasKind(err, KindValidation)
}

func hasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// exceptionError maps an exception varbind type to its sentinel, or nil.
func exceptionError(t gosnmp.Asn1BER) error {
	switch t {
	case gosnmp.NoSuchObject:
		return ErrNoSuchObject
	case gosnmp.NoSuchInstance:
		return ErrNoSuchInstance
	case gosnmp.EndOfMibView:
		return ErrEndOfMibView
	default:
		return nil
	}
}
