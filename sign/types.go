package sign

import (
	"crypto"
	"crypto/x509"
	"io"
	"time"

	"github.com/digitorus/pdf"
	"github.com/veridoc/pdfseal/revocation"
	"github.com/mattetti/filebuffer"
)

type CatalogData struct {
	ObjectId   uint32
	RootString string
}

type TSA struct {
	URL      string
	Username string
	Password string
}

type RevocationFunction func(cert, issuer *x509.Certificate, i *revocation.InfoArchival) error

type SignData struct {
	Signature          SignDataSignature
	Signer             crypto.Signer
	DigestAlgorithm    crypto.Hash
	Certificate        *x509.Certificate
	CertificateChains  [][]*x509.Certificate
	TSA                TSA
	RevocationData     revocation.InfoArchival
	RevocationFunction RevocationFunction
	Appearance         Appearance

	// Updates contains raw byte updates for existing PDF objects.
	// The key is the object ID, use it with SignContext.UpdateObject.
	Updates map[uint32][]byte

	// PreSignCallback is called before the signature object is written.
	// It allows adding additional objects (e.g., initials) using the SignContext.
	// PreSignCallback is called before the signature object is written.
	// It allows adding additional objects (e.g., initials) using the SignContext.
	PreSignCallback func(context *SignContext) error

	// CompressLevel determines compression level (zlib) for stream objects.
	CompressLevel int

	// SignatureSizeOverride, when non-zero, replaces the key-type-based
	// estimate used to size the /Contents placeholder. Set this when the
	// signer is a remote/HSM-backed crypto.Signer whose actual signature
	// size can't be derived from the certificate's public key alone.
	SignatureSizeOverride int

	// Deferred, when true, reserves the /ByteRange and /Contents placeholder
	// exactly as a normal signature would but stops before computing the
	// actual signature: /Contents is left zero-padded. Signer and
	// Certificate are still required to size the placeholder correctly.
	// Pair with DeferSign to complete the signature later, once an external
	// (possibly asynchronous) signing backend is available. See deferred.go.
	Deferred bool

	objectId uint32
}

// Appearance represents the appearance of the signature
type Appearance struct {
	Visible bool

	Page        uint32
	LowerLeftX  float64
	LowerLeftY  float64
	UpperRightX float64
	UpperRightY float64

	Image            []byte // Image data to use as signature appearance
	ImageAsWatermark bool   // If true, the text will be drawn over the image

	// SignerUID identifies this signer for the purpose of matching
	// pre-placed `initials_page_${page}_signer_${uid}` fields; see
	// fillInitialsFields.
	SignerUID string

	// Renderer allows providing a custom function to generate the appearance stream.
	// This is used by the pdf package to support complex appearances with multiple elements.
	Renderer func(context *SignContext, rect [4]float64) ([]byte, error)
}

type VisualSignData struct {
	pageObjectId uint32
	objectId     uint32
}

type InfoData struct {
	ObjectId uint32
}

//go:generate stringer -type=CertType
type CertType uint

const (
	CertificationSignature CertType = iota + 1
	ApprovalSignature
	UsageRightsSignature
	TimeStampSignature
)

//go:generate stringer -type=DocMDPPerm
type DocMDPPerm uint

const (
	DoNotAllowAnyChangesPerms DocMDPPerm = iota + 1
	AllowFillingExistingFormFieldsAndSignaturesPerms
	AllowFillingExistingFormFieldsAndSignaturesAndCRUDAnnotationsPerms
)

type SignDataSignature struct {
	CertType   CertType
	DocMDPPerm DocMDPPerm
	Info       SignDataSignatureInfo

	// FieldMDPAction and FieldMDPFields configure a FieldMDP /Reference
	// entry on an ApprovalSignature, restricting which form fields may
	// still be changed after this signature is applied. FieldMDPAction is
	// one of "All", "Include", "Exclude"; leave it empty to omit FieldMDP.
	// When the signature binds to a pre-existing field that itself carries
	// a /Lock (see the C4 Field Binder in fieldbinder.go), the field's own
	// lock takes precedence over these two.
	FieldMDPAction string
	FieldMDPFields []string

	// FieldName is the signature form field this signature binds to (C4
	// Field Binder). If a field with this name already exists it must be
	// an unsigned /FT /Sig field; its widget's page and rectangle are
	// reused rather than creating a new widget. Must not contain '.', the
	// AcroForm field-name hierarchy separator. Defaults to "Signature".
	FieldName string
}

type SignDataSignatureInfo struct {
	Name        string
	Location    string
	Reason      string
	ContactInfo string
	Date        time.Time
}

// signerState tracks the C5 Signer State Machine: a SignContext moves
// OPEN -> PRE_CLOSED -> CLOSED and no other transition is legal. preClose
// reserves the placeholder and assembles every object the signature needs;
// close fills the reserved placeholders (the raw signature bytes, or an
// external container's output) and streams the final document.
type signerState int

const (
	stateOpen signerState = iota
	statePreClosed
	stateClosed
)

// reservedPlaceholder records where in OutputBuffer a byte-exact value can
// still be overwritten in place after preClose, and how many bytes of room
// were reserved for it.
type reservedPlaceholder struct {
	offset int64
	length uint32
}

type SignContext struct {
	InputFile              io.ReadSeeker
	OutputFile             io.Writer
	OutputBuffer           *filebuffer.Buffer
	SignData               SignData
	CatalogData            CatalogData
	VisualSignData         VisualSignData
	InfoData               InfoData
	PDFReader              *pdf.Reader
	NewXrefStart           int64
	ByteRangeValues        []int64
	SignatureMaxLength     uint32
	SignatureMaxLengthBase uint32

	// ByteRangeStartByte and SignatureContentsStartByte are absolute
	// offsets into OutputBuffer, computed once the signature placeholder
	// object has been written, that locate the /ByteRange literal and the
	// first hex digit of /Contents respectively.
	ByteRangeStartByte        int64
	SignatureContentsStartByte int64

	// byteRangeRelOffset and contentsRelOffset are offsets relative to the
	// start of the signature placeholder's body (i.e. not counting the
	// "id 0 obj\n" header), recorded by createSignaturePlaceholder /
	// createTimestampPlaceholder before the object's final file position
	// is known.
	byteRangeRelOffset int64
	contentsRelOffset  int64

	// retryCount tracks how many times SignPDF has recursed because the
	// actual signature didn't fit the estimated placeholder size.
	retryCount int

	existingSignatures []SignData
	lastXrefID         uint32
	newXrefEntries     []xrefEntry
	updatedXrefEntries []xrefEntry

	// Map of Page Object ID to list of Annotation Object IDs to add.
	// This allows pre-sign callbacks to register annotations for pages that are also being modified by the signing process.
	ExtraAnnots map[uint32][]uint32

	// CompressLevel determines compression level (zlib) for stream objects.
	CompressLevel int

	// state is the C5 Signer State Machine's current state: OPEN, PRE_CLOSED
	// or CLOSED. See preClose and close in close.go.
	state signerState

	// existingField is set by preClose when SignData.Signature.FieldName
	// resolves to a pre-existing, unsigned /FT /Sig field (C4 Field
	// Binder), so the visual signature step rebinds to it instead of
	// creating a new widget.
	existingField *existingSignatureField

	// externalContainer, when set, routes the final signing step through
	// SignExternalContainer's caller-supplied collaborator instead of the
	// package's own PKCS7 assembly (C6 Hashable Stream Producer / C7
	// Signature Container Assembly).
	externalContainer ExternalSignatureContainer
}
