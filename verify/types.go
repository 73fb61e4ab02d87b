package verify

// This file contains the type definitions shared across the verify package:
// the public Response/Signer/Certificate/DocumentInfo result shapes and the
// VerifyOptions policy knobs that every verification entry point accepts.

import (
	"crypto/x509"
	"net/http"
	"time"

	"github.com/digitorus/timestamp"
	"golang.org/x/crypto/ocsp"
)

// VerifyOptions controls how strictly a PDF signature is checked: which
// certificate policies are enforced, whether external revocation lookups
// are allowed, and how a signing time is derived for revocation-timing
// decisions.
type VerifyOptions struct {
	// RequiredEKUs specifies the Extended Key Usages that must be present.
	// Default: Document Signing EKU (1.3.6.1.5.5.7.3.36) per RFC 9336.
	RequiredEKUs []x509.ExtKeyUsage

	// AllowedEKUs specifies additional Extended Key Usages that are acceptable
	// but not preferred (e.g. Email Protection, Client Auth).
	AllowedEKUs []x509.ExtKeyUsage

	// RequireDigitalSignatureKU requires the Digital Signature bit in Key Usage.
	RequireDigitalSignatureKU bool

	// RequireNonRepudiation requires the Non-Repudiation bit in Key Usage
	// (mandatory for the highest assurance level).
	RequireNonRepudiation bool

	// AllowNonRepudiationKU, when true, treats the Non-Repudiation bit as an
	// acceptable substitute for Digital Signature on certificates that carry
	// both, rather than a strict requirement on its own.
	AllowNonRepudiationKU bool

	// UseEmbeddedTimestamp when true, prefers the RFC 3161 timestamp embedded
	// in the signature (if present) as the trusted signing time for
	// revocation-timing decisions.
	UseEmbeddedTimestamp bool

	// FallbackToCurrentTime when true, allows verification to proceed using
	// the current time when UseEmbeddedTimestamp is set but no timestamp is
	// present. When false, verification fails in that case.
	FallbackToCurrentTime bool

	// UseSignatureTimeAsFallback when true, uses the unauthenticated /M entry
	// from the signature dictionary as the signing time when no timestamp is
	// available. This time is supplied by the signer and must be considered
	// untrusted; it is disabled by default.
	UseSignatureTimeAsFallback bool

	// ValidateTimestampCertificates when true, performs basic sanity checks
	// on the certificate embedded in an RFC 3161 timestamp token.
	ValidateTimestampCertificates bool

	// AllowUntrustedRoots when true, allows using certificates embedded in
	// the PDF as trusted roots.
	// WARNING: this makes signatures appear valid even if they're
	// self-signed or issued by an untrusted CA. Only enable for testing or
	// when the embedded certificates are explicitly trusted.
	AllowUntrustedRoots bool

	// AllowEmbeddedCertificatesAsRoots is the certificate-chain-building
	// counterpart of AllowUntrustedRoots: when true, a chain that fails
	// against the system trust store is retried using the PDF's own
	// embedded certificates as trust anchors.
	AllowEmbeddedCertificatesAsRoots bool

	// ValidateFullChain when true, applies algorithm/key-size policy to
	// every certificate in the chain rather than just the leaf signer.
	ValidateFullChain bool

	// AllowedAlgorithms restricts accepted public key algorithms. Empty
	// means no restriction.
	AllowedAlgorithms []x509.PublicKeyAlgorithm

	// MinRSAKeySize and MinECDSAKeySize set minimum accepted key sizes in
	// bits. Zero means no minimum.
	MinRSAKeySize   int
	MinECDSAKeySize int

	// EnableExternalRevocationCheck when true, performs external OCSP and
	// CRL checks using the URLs found in certificate extensions.
	EnableExternalRevocationCheck bool

	// HTTPClient specifies the HTTP client used for external revocation
	// checking. If nil, a client with HTTPTimeout is constructed on demand.
	HTTPClient *http.Client

	// HTTPTimeout specifies the timeout for HTTP requests during external
	// revocation checking. If zero, a default timeout of 10 seconds is used.
	HTTPTimeout time.Duration
}

// Signer captures everything learned about a single signature field found in
// a PDF: who signed it, whether the cryptographic signature and its
// certificate chain check out, and any timestamp/revocation-timing evidence.
type Signer struct {
	Name        string
	Reason      string
	Location    string
	ContactInfo string

	ValidSignature     bool
	TrustedIssuer      bool
	RevokedCertificate bool

	Certificates []Certificate
	TimeStamp    *timestamp.Timestamp

	// SignatureTime is the unauthenticated /M entry on the signature
	// dictionary. It is only trusted as a revocation-timing reference when
	// VerifyOptions.UseSignatureTimeAsFallback is set.
	SignatureTime *time.Time

	// VerificationTime and TimeSource record which time value (and its
	// provenance) was actually used to judge revocation timing:
	// "embedded_timestamp", "signature_time", or "current_time".
	VerificationTime *time.Time
	TimeSource       string

	// ValidationErrors accumulates non-fatal problems found while
	// processing this signature (DocMDP violations, chain failures,
	// algorithm policy violations, ...). A non-empty slice does not
	// necessarily mean ValidSignature is false.
	ValidationErrors []error

	// TimeWarnings accumulates informational notices that don't invalidate
	// the signature, such as a certificate revoked after a trusted signing
	// time.
	TimeWarnings []string
}

// NewSigner returns a zero-value Signer ready to be populated by
// VerifySignature.
func NewSigner() *Signer {
	return &Signer{}
}

// Certificate is one certificate in a signer's chain, together with the
// outcome of verifying it.
type Certificate struct {
	Certificate      *x509.Certificate
	VerifyError      string
	KeyUsageValid    bool
	KeyUsageError    string
	ExtKeyUsageValid bool
	ExtKeyUsageError string

	OCSPResponse *ocsp.Response
	OCSPEmbedded bool
	OCSPExternal bool

	CRLRevoked  time.Time
	CRLEmbedded bool
	CRLExternal bool

	RevocationWarning string

	// RevocationTime and RevokedBeforeSigning record when this certificate
	// was revoked (if at all) and whether that revocation happened before
	// the signature's verification time.
	RevocationTime       *time.Time
	RevokedBeforeSigning bool
}

// DocumentInfo mirrors the PDF's /Info dictionary.
type DocumentInfo struct {
	Author     string
	Creator    string
	Hash       string
	Name       string
	Permission string
	Producer   string
	Subject    string
	Title      string

	Pages        int
	Keywords     []string
	ModDate      time.Time
	CreationDate time.Time
}

// Response is the result of verifying every signature field in a PDF.
type Response struct {
	Error string

	DocumentInfo DocumentInfo
	Signers      []Signer
}
