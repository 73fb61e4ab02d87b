package sign

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/digitorus/pdf"
)

func SignFile(input string, output string, sign_data SignData) error {
	input_file, err := os.Open(input)
	if err != nil {
		return err
	}
	defer func() {
		_ = input_file.Close()
	}()

	output_file, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		_ = output_file.Close()
	}()

	finfo, err := input_file.Stat()
	if err != nil {
		return err
	}
	size := finfo.Size()

	rdr, err := pdf.NewReader(input_file, size)
	if err != nil {
		return err
	}

	return Sign(input_file, output_file, rdr, size, sign_data)
}

func Sign(input io.ReadSeeker, output io.Writer, rdr *pdf.Reader, size int64, sign_data SignData) error {
	sign_data.objectId = uint32(rdr.XrefInformation.ItemCount) + 2

	context := SignContext{
		PDFReader:              rdr,
		InputFile:              input,
		OutputFile:             output,
		SignData:               sign_data,
		SignatureMaxLengthBase: uint32(hex.EncodedLen(512)),
	}

	// Fetch existing signatures
	existingSignatures, err := context.fetchExistingSignatures()
	if err != nil {
		return err
	}
	context.existingSignatures = existingSignatures

	err = context.SignPDF()
	if err != nil {
		return err
	}

	return nil
}

// SignPDF drives the C5 Signer State Machine end to end. preClose (see
// close.go) reserves the placeholder and serializes the document; then
// either close (Deferred: /Contents is left zero-padded for DeferSign to
// complete later) or replaceSignature (the normal path: build the CMS
// signature and close over it, retrying with a larger placeholder if it
// doesn't fit) drives the PRE_CLOSED -> CLOSED transition. Callers that need
// the preClose/close split directly (e.g. to inspect the pre-closed
// document before committing to a signature) can call those methods
// themselves instead of SignPDF; see SignExternalContainer.
func (context *SignContext) SignPDF() error {
	if context.state != stateOpen {
		return ErrAlreadyClosed
	}

	if err := context.preClose(); err != nil {
		return err
	}

	if context.SignData.Deferred {
		zeroPadded := bytes.Repeat([]byte("0"), int(context.SignatureMaxLength))
		return context.close(map[string][]byte{"Contents": zeroPadded})
	}

	if err := context.replaceSignature(); err != nil {
		return fmt.Errorf("failed to replace signature: %w", err)
	}

	return nil
}
