package sign

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/digitorus/pdf"
)

// ExternalSignatureContainer is the C6/C7 collaborator for
// sign_external_container: a caller that owns its own signing backend (an
// HSM, a remote CAdES/PAdES service, a browser-side signer) rather than
// handing this package a crypto.Signer. It is given the chance to add its
// own entries to the signature dictionary before the document is
// serialized, then consumes the finished C6 Hashable Stream and returns the
// finished signature container (a detached CMS/CAdES SignedData, an RFC
// 3161 token, whatever its /SubFilter promises) to embed in /Contents.
type ExternalSignatureContainer interface {
	// MutateSigningDictionary is called while the signature placeholder is
	// being assembled, after /Type, /Filter, /SubFilter, /ByteRange and
	// /Contents have been written but before the dictionary is closed. It
	// may append additional entries (e.g. /Name, /M, or its own /SubFilter
	// override written earlier via a different mechanism); it must not
	// touch /ByteRange or /Contents.
	MutateSigningDictionary(dict *bytes.Buffer) error

	// Sign receives the C6 Hashable Stream and returns the finished
	// signature container to embed in /Contents. It is called once, after
	// the document (including the mutated signing dictionary) has been
	// fully serialized and /ByteRange resolved.
	Sign(hashable io.Reader) ([]byte, error)
}

// SignExternalContainer implements the C5 sign_external_container
// operation (§4.1/§6): it reserves a signature placeholder sized for
// estimatedSize (a hex-encoded byte count, matching
// SignData.SignatureSizeOverride's units), lets container mutate the
// signing dictionary, then hands container the hashable stream and embeds
// whatever it returns. Unlike the internal PKCS7 path, an oversized result
// is fatal: the caller committed to estimatedSize up front, so there is no
// placeholder to grow into. sign_data.Certificate may be left nil; the
// signature dictionary carries no certificate material of its own, only
// whatever container.MutateSigningDictionary adds.
func SignExternalContainer(input io.ReadSeeker, output io.Writer, rdr *pdf.Reader, size int64, sign_data SignData, container ExternalSignatureContainer, estimatedSize int) error {
	if container == nil {
		return fmt.Errorf("sign: external signature container is required")
	}
	if estimatedSize <= 0 {
		return fmt.Errorf("sign: estimatedSize must be positive")
	}

	sign_data.objectId = uint32(rdr.XrefInformation.ItemCount) + 2
	sign_data.SignatureSizeOverride = estimatedSize

	context := SignContext{
		PDFReader:  rdr,
		InputFile:  input,
		OutputFile: output,
		SignData:   sign_data,
		// No SignatureMaxLengthBase padding here: the reserved /Contents
		// hex body must be exactly 2*estimatedSize characters, the caller's
		// explicit contract, not the internal PKCS7 path's generous margin.
		externalContainer: container,
	}

	existingSignatures, err := context.fetchExistingSignatures()
	if err != nil {
		return err
	}
	context.existingSignatures = existingSignatures

	if err := context.preClose(); err != nil {
		return err
	}

	return context.closeWithExternalContainer()
}

// closeWithExternalContainer implements sign_external_container's own
// PRE_CLOSED -> CLOSED transition: it hands the C6 Hashable Stream to the
// external container and embeds the result, hard-failing with
// ErrNotEnoughSpace rather than retrying, since estimatedSize was an
// explicit contract with the caller.
func (context *SignContext) closeWithExternalContainer() error {
	if context.state != statePreClosed {
		return ErrMustBePreClosed
	}

	hashable, err := context.hashableStream()
	if err != nil {
		return err
	}

	signature, err := context.externalContainer.Sign(bytes.NewReader(hashable))
	if err != nil {
		return fmt.Errorf("external signature container failed: %w", err)
	}

	dst := make([]byte, hex.EncodedLen(len(signature)))
	hex.Encode(dst, signature)

	if uint32(len(dst)) > context.SignatureMaxLength {
		return ErrNotEnoughSpace
	}

	return context.close(map[string][]byte{"Contents": dst})
}
