package sign

import (
	"crypto"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/digitorus/pkcs7"
	"github.com/mattetti/filebuffer"
)

// reservedPlaceholders returns every byte-exact placeholder close can still
// overwrite, keyed by the signature dictionary entry it belongs to. The
// current placeholder layout reserves exactly one entry besides /ByteRange
// (which preClose finalizes itself, in updateByteRange): /Contents.
func (context *SignContext) reservedPlaceholders() map[string]reservedPlaceholder {
	if context.SignatureContentsStartByte == 0 {
		return nil
	}

	return map[string]reservedPlaceholder{
		"Contents": {
			offset: context.SignatureContentsStartByte,
			length: context.SignatureMaxLength,
		},
	}
}

// preClose implements the C5 Signer State Machine's OPEN -> PRE_CLOSED
// transition (§4.1): it binds or creates the signature field, assembles
// every object the signature needs, reserves the /Contents placeholder and
// resolves /ByteRange, then serializes the whole document into
// OutputBuffer. Once preClose returns successfully only close or
// closeWithExternalContainer may act on the context.
func (context *SignContext) preClose() error {
	if context.state == statePreClosed {
		return ErrAlreadyPreClosed
	}
	if context.state != stateOpen {
		return ErrAlreadyClosed
	}

	// set defaults
	if context.SignData.Signature.CertType == 0 {
		context.SignData.Signature.CertType = 1
	}
	if context.SignData.Signature.DocMDPPerm == 0 {
		context.SignData.Signature.DocMDPPerm = 1
	}
	if !context.SignData.DigestAlgorithm.Available() {
		context.SignData.DigestAlgorithm = crypto.SHA256
	}
	if context.SignData.Appearance.Page == 0 {
		context.SignData.Appearance.Page = 1
	}
	fieldName := context.SignData.Signature.FieldName
	if fieldName == "" {
		fieldName = "Signature"
	}

	// Reset state that accumulates during signing (important for retry).
	context.newXrefEntries = nil
	context.updatedXrefEntries = nil
	context.lastXrefID = uint32(context.PDFReader.XrefInformation.ItemCount) - 1
	context.ByteRangeValues = nil
	context.NewXrefStart = 0
	context.CatalogData = CatalogData{}
	context.VisualSignData = VisualSignData{}
	context.InfoData = InfoData{}
	context.existingField = nil

	context.OutputBuffer = filebuffer.New([]byte{})

	// Copy old file into new buffer.
	if _, err := context.InputFile.Seek(0, 0); err != nil {
		return err
	}
	if _, err := io.Copy(context.OutputBuffer, context.InputFile); err != nil {
		return err
	}

	// File always needs an empty line after %%EOF.
	if _, err := context.OutputBuffer.Write([]byte("\n")); err != nil {
		return err
	}

	if context.SignData.PreSignCallback != nil {
		if err := context.SignData.PreSignCallback(context); err != nil {
			return fmt.Errorf("pre-sign callback failed: %w", err)
		}
	}

	// C4 Field Binder: bind to a pre-existing unsigned /FT /Sig field named
	// fieldName if one exists, before anything that depends on its lock or
	// its widget's page/rect gets built.
	existing, err := context.findExistingSignatureField(fieldName)
	if err != nil {
		return err
	}
	context.existingField = existing
	if existing != nil {
		if action, fields, ok := existingFieldLock(existing.value); ok {
			context.SignData.Signature.FieldMDPAction = action
			context.SignData.Signature.FieldMDPFields = fields
		}
	}

	if err := context.fillInitialsFields(); err != nil {
		return fmt.Errorf("failed to fill initials fields: %w", err)
	}

	for id, content := range context.SignData.Updates {
		if err := context.updateObject(id, content); err != nil {
			return fmt.Errorf("failed to apply field update for object %d: %w", id, err)
		}
	}

	// Base size for signature.
	context.SignatureMaxLength = context.SignatureMaxLengthBase

	// If not a timestamp signature
	if context.SignData.Signature.CertType != TimeStampSignature {
		if context.SignData.Certificate == nil && context.externalContainer == nil {
			return fmt.Errorf("certificate is required")
		}

		if context.SignData.Signer != nil {
			if err := ValidateSignerCertificateMatch(context.SignData.Signer, context.SignData.Certificate); err != nil {
				return fmt.Errorf("signer/certificate validation failed: %w", err)
			}
		}

		var sigSize int
		switch {
		case context.SignData.SignatureSizeOverride > 0:
			sigSize = int(context.SignData.SignatureSizeOverride)
		case context.SignData.Certificate != nil:
			var err error
			sigSize, err = PublicKeySignatureSize(context.SignData.Certificate.PublicKey)
			if err != nil {
				sigSize = DefaultSignatureSize
			}
		default:
			sigSize = DefaultSignatureSize
		}
		context.SignatureMaxLength += uint32(hex.EncodedLen(sigSize))

		if context.SignData.Certificate != nil {
			// Add size of digest algorithm twice (for file digest and signing certificate attribute).
			context.SignatureMaxLength += uint32(hex.EncodedLen(context.SignData.DigestAlgorithm.Size() * 2))

			// Add size for my certificate.
			degenerated, err := pkcs7.DegenerateCertificate(context.SignData.Certificate.Raw)
			if err != nil {
				return fmt.Errorf("failed to degenerate certificate: %w", err)
			}

			context.SignatureMaxLength += uint32(hex.EncodedLen(len(degenerated)))

			// Add size of the raw issuer which is added by AddSignerChain
			context.SignatureMaxLength += uint32(hex.EncodedLen(len(context.SignData.Certificate.RawIssuer)))

			// Add size for certificate chain.
			var certificate_chain []*x509.Certificate
			if len(context.SignData.CertificateChains) > 0 && len(context.SignData.CertificateChains[0]) > 1 {
				certificate_chain = context.SignData.CertificateChains[0][1:]
			}

			if len(certificate_chain) > 0 {
				for _, cert := range certificate_chain {
					degenerated, err := pkcs7.DegenerateCertificate(cert.Raw)
					if err != nil {
						return fmt.Errorf("failed to degenerate certificate in chain: %w", err)
					}

					context.SignatureMaxLength += uint32(hex.EncodedLen(len(degenerated)))
				}
			}

			// Fetch revocation data before adding signature placeholder.
			if err := context.fetchRevocationData(); err != nil {
				return fmt.Errorf("failed to fetch revocation data: %w", err)
			}
		}
	}

	// Add estimated size for TSA.
	if context.SignData.TSA.URL != "" {
		context.SignatureMaxLength += uint32(hex.EncodedLen(9000))
	}

	// Create the signature object
	var signature_object []byte

	switch context.SignData.Signature.CertType {
	case TimeStampSignature:
		signature_object = context.createTimestampPlaceholder()
	default:
		signature_object, err = context.createSignaturePlaceholder()
		if err != nil {
			return fmt.Errorf("failed to create signature placeholder: %w", err)
		}
	}

	// Write the new signature object
	context.SignData.objectId, err = context.addObject(signature_object)
	if err != nil {
		return fmt.Errorf("failed to add signature object: %w", err)
	}
	signatureObjectOffset := context.lastObjectOffset()
	headerLen := int64(len(fmt.Sprintf("%d 0 obj\n", context.SignData.objectId)))
	context.ByteRangeStartByte = signatureObjectOffset + headerLen + context.byteRangeRelOffset
	context.SignatureContentsStartByte = signatureObjectOffset + headerLen + context.contentsRelOffset

	if len(context.reservedPlaceholders()) != 1 {
		return ErrSingleExclusionOnly
	}

	// Create visual signature (visible or invisible based on CertType)
	visible := false
	rectangle := [4]float64{0, 0, 0, 0}
	if context.SignData.Signature.CertType != ApprovalSignature && context.SignData.Appearance.Visible {
		return fmt.Errorf("visible signatures are only allowed for approval signatures")
	} else if context.SignData.Signature.CertType == ApprovalSignature && context.SignData.Appearance.Visible {
		visible = true
		rectangle = [4]float64{
			context.SignData.Appearance.LowerLeftX,
			context.SignData.Appearance.LowerLeftY,
			context.SignData.Appearance.UpperRightX,
			context.SignData.Appearance.UpperRightY,
		}
	}

	visual_signature, err := context.createVisualSignature(visible, context.SignData.Appearance.Page, rectangle)
	if err != nil {
		return fmt.Errorf("failed to create visual signature: %w", err)
	}

	if context.existingField != nil {
		context.VisualSignData.objectId = context.existingField.objectId
		if err := context.updateObject(context.existingField.objectId, visual_signature); err != nil {
			return fmt.Errorf("failed to rebind existing signature field: %w", err)
		}
	} else {
		context.VisualSignData.objectId, err = context.addObject(visual_signature)
		if err != nil {
			return fmt.Errorf("failed to add visual signature object: %w", err)
		}

		if context.SignData.Appearance.Visible {
			inc_page_update, err := context.createIncPageUpdate(context.SignData.Appearance.Page, context.VisualSignData.objectId)
			if err != nil {
				return fmt.Errorf("failed to create incremental page update: %w", err)
			}
			err = context.updateObject(context.VisualSignData.pageObjectId, inc_page_update)
			if err != nil {
				return fmt.Errorf("failed to add incremental page update object: %w", err)
			}
		}
	}

	if !context.PDFReader.Trailer().Key("Info").IsNull() {
		info, err := context.createInfo()
		if err != nil {
			return fmt.Errorf("failed to create info: %w", err)
		}
		context.InfoData.ObjectId, err = context.addObject([]byte(info))
		if err != nil {
			return fmt.Errorf("failed to add info object: %w", err)
		}
	}

	catalog, err := context.createCatalog()
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}

	context.CatalogData.ObjectId, err = context.addObject([]byte(catalog))
	if err != nil {
		return fmt.Errorf("failed to add catalog object: %w", err)
	}

	if err := context.writeXref(); err != nil {
		return fmt.Errorf("failed to write xref: %w", err)
	}

	if err := context.writeTrailer(); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}

	if err := context.updateByteRange(); err != nil {
		return fmt.Errorf("failed to update byte range: %w", err)
	}

	context.state = statePreClosed

	return nil
}

// close implements the C5 Signer State Machine's PRE_CLOSED -> CLOSED
// transition (§4.1). updates must supply exactly the keys reservedPlaceholders
// names (currently just "Contents"); each value is written at its recorded
// offset, right-padded with '0' bytes to the reserved length, and the
// completed document is streamed to OutputFile. The output is written (and,
// if OutputFile is an io.Closer, closed) even when a write fails partway,
// mirroring the "close sink unconditionally" requirement.
func (context *SignContext) close(updates map[string][]byte) (err error) {
	if context.state != statePreClosed {
		return ErrMustBePreClosed
	}

	reserved := context.reservedPlaceholders()
	if reserved == nil {
		return ErrNoCryptoDictionary
	}

	for key := range updates {
		if _, ok := reserved[key]; !ok {
			return ErrKeyNotReserved
		}
	}
	for key := range reserved {
		if _, ok := updates[key]; !ok {
			return ErrUpdateKeysMissing
		}
	}

	for key, value := range updates {
		placeholder := reserved[key]
		if uint32(len(value)) > placeholder.length {
			return ErrValueTooLarge
		}

		padded := make([]byte, placeholder.length)
		copy(padded, value)
		for i := len(value); i < len(padded); i++ {
			padded[i] = '0'
		}

		if _, err := context.OutputBuffer.Seek(placeholder.offset, io.SeekStart); err != nil {
			return err
		}
		if _, err := context.OutputBuffer.Write(padded); err != nil {
			return err
		}
	}

	if closer, ok := context.OutputFile.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if _, seekErr := context.OutputBuffer.Seek(0, io.SeekStart); seekErr != nil {
		return seekErr
	}
	if _, writeErr := context.OutputFile.Write(context.OutputBuffer.Buff.Bytes()); writeErr != nil {
		return writeErr
	}

	context.state = stateClosed

	return nil
}
