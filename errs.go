package relay

import "github.com/arcflow/relay/internal/errs"

// Error kinds from the error handling design, re-exported from the
// internal errs package so callers can `errors.Is(err, relay.ErrExpired)`
// without reaching into an internal package themselves. queue, observable,
// and statemachine return the same sentinels directly.
var (
	ErrInvalidArgument     = errs.InvalidArgument
	ErrExpired             = errs.Expired
	ErrNoInput             = errs.NoInput
	ErrUnregisteredType    = errs.UnregisteredType
	ErrWorkerLaunchFailure = errs.WorkerLaunchFailure
)

// CallbackFault wraps a value recovered from a panicking user callback.
type CallbackFault = errs.CallbackFault
