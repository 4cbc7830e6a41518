package resources

import "errors"

var (
	// ErrUnsupportedEnvironment indicates the embedded database cannot run on
	// this host (driver unavailable, data directory not writable). Fatal to
	// the embedded backend, not retried.
	ErrUnsupportedEnvironment = errors.New("embedded storage is not available in this environment")

	// ErrInvalidPayload indicates a wrong media type or a missing required
	// field. Caller-correctable, surfaced immediately.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrQuotaExceeded indicates the backing medium cannot hold the payload.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrTransportFailure indicates the remote backend is unreachable. The
	// caller may re-invoke manually, the store never retries on its own.
	ErrTransportFailure = errors.New("remote storage unreachable")
)
