package loader

import (
	"fmt"

	"ttxload/ttx"
)

// VerificationError indicates that a read-back after a chunk write did
// not match the written data.
type VerificationError struct {
	// Core is the physical core whose read-back mismatched
	Core ttx.CoreId

	// Address is the chunk address that failed
	Address uint64
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("load verification failed on core %v at address 0x%X", e.Core, e.Address)
}

// Transport operation names used in TransportError.
const (
	OpWrite     = "noc write"
	OpRead      = "noc read"
	OpBroadcast = "noc broadcast"
)

// TransportError attributes an opaque device failure to the operation
// that raised it. The device's error is wrapped unmodified and
// reachable through errors.Unwrap.
type TransportError struct {
	// Op is one of the Op* constants
	Op string

	// Core is the addressed core; meaningless when Broadcast is set
	Core ttx.CoreId

	// Broadcast is set for broadcast writes, which address every core
	Broadcast bool

	// Address is the device address of the failed operation
	Address uint64

	// Err is the device's error, unmodified
	Err error
}

func (e *TransportError) Error() string {
	if e.Broadcast {
		return fmt.Sprintf("%s at address 0x%X: %v", e.Op, e.Address, e.Err)
	}
	return fmt.Sprintf("%s on core %v at address 0x%X: %v", e.Op, e.Core, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
