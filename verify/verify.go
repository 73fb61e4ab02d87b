// Package verify checks the digital signatures embedded in a PDF file: it
// parses each signature field's PKCS#7 SignedData, validates the signed byte
// range against the file's actual bytes, builds and verifies the signer's
// certificate chain, and reports revocation and timestamp status.
package verify

import (
	"fmt"
	"io"
	"os"

	"github.com/digitorus/pdf"
)

// Verify checks every signature field in the PDF read from file, which must
// support random access over exactly size bytes.
func Verify(file io.ReaderAt, size int64) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("failed to verify file: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	return VerifyReader(rdr, file, size, DefaultVerifyOptions())
}

// VerifyReader is like Verify but accepts an already-opened *pdf.Reader and
// explicit options, so callers that already hold a Reader (e.g. after
// signing) don't need to reopen the file.
func VerifyReader(rdr *pdf.Reader, file io.ReaderAt, size int64, options *VerifyOptions) (*Response, error) {
	if options == nil {
		options = DefaultVerifyOptions()
	}

	resp := &Response{}

	root := rdr.Trailer().Key("Root")
	if !root.Key("AcroForm").Key("SigFlags").IsNull() {
		parseDocumentInfo(root.Key("Info"), &resp.DocumentInfo)
	}
	// Info can also live directly on the trailer.
	if info := rdr.Trailer().Key("Info"); !info.IsNull() {
		parseDocumentInfo(info, &resp.DocumentInfo)
	}
	if pages := root.Key("Pages").Key("Count"); !pages.IsNull() {
		resp.DocumentInfo.Pages = int(pages.Int64())
	}

	sigFlags := root.Key("AcroForm").Key("SigFlags")
	if sigFlags.IsNull() {
		return nil, fmt.Errorf("no digital signature in document")
	}

	for _, x := range rdr.Xref() {
		v := rdr.Resolve(x.Ptr(), x.Ptr())
		if v.Key("Filter").Name() != "Adobe.PPKLite" {
			continue
		}

		signer, err := VerifySignature(v, file, size, options)
		if err != nil {
			resp.Error = err.Error()
			continue
		}
		resp.Signers = append(resp.Signers, *signer)
	}

	if len(resp.Signers) == 0 && resp.Error == "" {
		return nil, fmt.Errorf("document looks to have a signature but got no results")
	}

	return resp, nil
}

// VerifyFile opens path-less: it verifies an already-open *os.File.
func VerifyFile(file *os.File) (*Response, error) {
	return VerifyFileWithOptions(file, DefaultVerifyOptions())
}

// File is an alias for VerifyFile kept for callers that verify a single
// signature field and expect the shorter name.
func File(file *os.File) (*Response, error) {
	return VerifyFile(file)
}

// VerifyFileWithOptions verifies an already-open *os.File using explicit
// options.
func VerifyFileWithOptions(file *os.File, options *VerifyOptions) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("failed to verify file: %v", r)
		}
	}()

	finfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := finfo.Size()

	rdr, err := pdf.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	return VerifyReader(rdr, file, size, options)
}
