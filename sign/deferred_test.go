package sign

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"io"
	"testing"
	"time"

	"github.com/digitorus/pdf"
)

func mustDecodeStaticPDF(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(staticPDFFile)
	if err != nil {
		t.Fatalf("failed to decode static test PDF: %s", err.Error())
	}
	return data
}

func mustLoadSignCert(t *testing.T) (*x509.Certificate, *x509.Certificate) {
	t.Helper()

	certBlock, _ := pem.Decode([]byte(signCertPem))
	if certBlock == nil {
		t.Fatalf("failed to parse PEM block containing the certificate")
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		t.Fatalf("%s", err.Error())
	}
	return cert, cert
}

// signDeferredFixture signs the static test PDF with SignData.Deferred set,
// leaving /Contents zero-padded, and returns the resulting bytes.
func signDeferredFixture(t *testing.T) []byte {
	t.Helper()

	pdfBytes := mustDecodeStaticPDF(t)
	cert, _ := mustLoadSignCert(t)

	keyBlock, _ := pem.Decode([]byte(signKeyPem))
	if keyBlock == nil {
		t.Fatalf("failed to parse PEM block containing the private key")
	}
	pkey, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		t.Fatalf("%s", err.Error())
	}

	input := bytes.NewReader(pdfBytes)
	rdr, err := pdf.NewReader(input, int64(len(pdfBytes)))
	if err != nil {
		t.Fatalf("failed to open static test PDF: %s", err.Error())
	}

	var output bytes.Buffer
	err = Sign(input, &output, rdr, int64(len(pdfBytes)), SignData{
		Signature: SignDataSignature{
			Info: SignDataSignatureInfo{
				Name:     "John Doe",
				Location: "Somewhere",
				Reason:   "Test",
				Date:     time.Now().Local(),
			},
			CertType:   CertificationSignature,
			DocMDPPerm: AllowFillingExistingFormFieldsAndSignaturesPerms,
		},
		Signer:      pkey,
		Certificate: cert,
		Deferred:    true,
	})
	if err != nil {
		t.Fatalf("failed to sign with deferred placeholder: %s", err.Error())
	}

	return output.Bytes()
}

func TestDeferSignRoundTrip(t *testing.T) {
	placeholder := signDeferredFixture(t)
	size := int64(len(placeholder))

	var produced []byte
	producer := func(r io.Reader) ([]byte, error) {
		hashable, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if len(hashable) == 0 {
			t.Fatalf("expected a non-empty hashable stream")
		}
		produced = []byte("not-a-real-signature")
		return produced, nil
	}

	var final bytes.Buffer
	if err := DeferSign(bytes.NewReader(placeholder), &final, size, producer); err != nil {
		t.Fatalf("DeferSign failed: %s", err.Error())
	}

	finalBytes := final.Bytes()
	if len(finalBytes) != len(placeholder) {
		t.Fatalf("DeferSign must not change the document length, got %d want %d", len(finalBytes), len(placeholder))
	}

	// The produced signature bytes, hex-encoded, must appear somewhere in the
	// final document (inside the /Contents gap).
	hexEncoded := make([]byte, 0)
	for _, b := range produced {
		hexEncoded = append(hexEncoded, []byte(hexDigits(b))...)
	}
	if !bytes.Contains(finalBytes, hexEncoded) {
		t.Fatalf("expected hex-encoded signature to appear in the final document")
	}

	// Re-reading the result must still parse as a PDF with the same
	// /ByteRange, since DeferSign only touches the /Contents gap.
	if _, err := pdf.NewReader(bytes.NewReader(finalBytes), int64(len(finalBytes))); err != nil {
		t.Fatalf("result did not parse as a PDF: %s", err.Error())
	}
}

func hexDigits(b byte) string {
	const hextable = "0123456789abcdef"
	return string([]byte{hextable[b>>4], hextable[b&0x0f]})
}

func TestDeferSignInsufficientSpace(t *testing.T) {
	placeholder := signDeferredFixture(t)
	size := int64(len(placeholder))

	// The reserved /Contents gap is sized for a real signature (a few
	// hundred bytes); a producer returning something far larger must be
	// rejected rather than silently truncated or overflowing the gap.
	oversized := bytes.Repeat([]byte{0xAB}, len(placeholder))
	producer := func(r io.Reader) ([]byte, error) {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return nil, err
		}
		return oversized, nil
	}

	var final bytes.Buffer
	err := DeferSign(bytes.NewReader(placeholder), &final, size, producer)
	if err != ErrInsufficientSpace {
		t.Fatalf("expected ErrInsufficientSpace, got %v", err)
	}
}

func TestZeroContainerProducer(t *testing.T) {
	producer := ZeroContainerProducer(16)

	src := bytes.NewReader([]byte("arbitrary hashable stream content"))
	out, err := producer(src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if len(out) != 16 {
		t.Fatalf("expected 16 zero bytes, got %d", len(out))
	}
	for i, b := range out {
		if b != 0 {
			t.Fatalf("expected all-zero output, byte %d was %#x", i, b)
		}
	}
}

func TestDeferSignProducerError(t *testing.T) {
	placeholder := signDeferredFixture(t)
	size := int64(len(placeholder))

	boom := io.ErrUnexpectedEOF
	producer := func(r io.Reader) ([]byte, error) {
		return nil, boom
	}

	var final bytes.Buffer
	err := DeferSign(bytes.NewReader(placeholder), &final, size, producer)
	if err == nil {
		t.Fatalf("expected an error when the container producer fails")
	}
}
