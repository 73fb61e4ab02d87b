package sign

import "errors"

// State-machine violations (C5 Signer State Machine).
var (
	// ErrAlreadyClosed is returned when a signing operation is attempted on
	// a SignContext that has already produced its output.
	ErrAlreadyClosed = errors.New("sign: signer already closed")

	// ErrAlreadyPreClosed is returned by a second call to preClose on the
	// same SignContext.
	ErrAlreadyPreClosed = errors.New("sign: signer already pre-closed")

	// ErrMustBePreClosed is returned when close is called before preClose.
	ErrMustBePreClosed = errors.New("sign: signer must be pre-closed first")

	// ErrNoCryptoDictionary is returned when preClose runs without a
	// signature dictionary having been assembled first.
	ErrNoCryptoDictionary = errors.New("sign: no signature dictionary to close over")
)

// Field validation (C4 Field Binder).
var (
	ErrFieldNameContainsDot  = errors.New("sign: field name must not contain '.'")
	ErrFieldTypeNotSignature = errors.New("sign: existing field is not a signature field")
	ErrFieldAlreadySigned    = errors.New("sign: field already has a value")
)

// Space/layout errors, including the Deferred Signer (C8).
var (
	ErrNotEnoughSpace        = errors.New("sign: signature exceeds reserved /Contents space")
	ErrInsufficientSpace     = errors.New("sign: signed bytes exceed reserved gap capacity")
	ErrGapNotEven            = errors.New("sign: reserved /Contents gap has an odd length")
	ErrSingleExclusionOnly   = errors.New("sign: signer only supports a single reserved placeholder besides /ByteRange")
	ErrOverlappingExclusions = errors.New("sign: placeholder exclusion regions overlap")
)

// Close-phase dictionary mismatches.
var (
	ErrKeyNotReserved    = errors.New("sign: update key has no reserved placeholder")
	ErrValueTooLarge     = errors.New("sign: update value exceeds reserved placeholder length")
	ErrUpdateKeysMissing = errors.New("sign: update is missing a required placeholder key")
)

// ErrNotLastSignature is returned when deferred signing targets a signature
// whose /ByteRange does not reach the end of the file, i.e. it is not the
// most recent signature applied to the document.
var ErrNotLastSignature = errors.New("sign: deferred signing target is not the last signature in the document")
