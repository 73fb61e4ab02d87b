package sign

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"io"
	"testing"

	"github.com/digitorus/pdf"
)

type stubExternalContainer struct {
	signature   []byte
	signErr     error
	mutateCalls int
	signCalls   int
}

func (s *stubExternalContainer) MutateSigningDictionary(dict *bytes.Buffer) error {
	s.mutateCalls++
	dict.WriteString(" /Name (Stub Signer)")
	return nil
}

func (s *stubExternalContainer) Sign(hashable io.Reader) ([]byte, error) {
	s.signCalls++
	if s.signErr != nil {
		return nil, s.signErr
	}
	sum := sha256.Sum256(nil)
	if _, err := io.Copy(io.Discard, hashable); err != nil {
		return nil, err
	}
	if s.signature != nil {
		return s.signature, nil
	}
	return sum[:], nil
}

func openStaticPDF(t *testing.T) (*bytes.Reader, *pdf.Reader, int64) {
	t.Helper()
	pdfBytes := mustDecodeStaticPDF(t)
	input := bytes.NewReader(pdfBytes)
	rdr, err := pdf.NewReader(input, int64(len(pdfBytes)))
	if err != nil {
		t.Fatalf("failed to open static test PDF: %s", err.Error())
	}
	return input, rdr, int64(len(pdfBytes))
}

func TestSignExternalContainerRoundTrip(t *testing.T) {
	input, rdr, size := openStaticPDF(t)

	container := &stubExternalContainer{}

	var output bytes.Buffer
	err := SignExternalContainer(input, &output, rdr, size, SignData{
		Signature: SignDataSignature{
			Info: SignDataSignatureInfo{Name: "External Signer"},
			CertType: ApprovalSignature,
		},
	}, container, 256)
	if err != nil {
		t.Fatalf("SignExternalContainer failed: %s", err.Error())
	}

	if container.mutateCalls != 1 {
		t.Fatalf("expected MutateSigningDictionary to be called once, got %d", container.mutateCalls)
	}
	if container.signCalls != 1 {
		t.Fatalf("expected Sign to be called once, got %d", container.signCalls)
	}

	if _, err := pdf.NewReader(bytes.NewReader(output.Bytes()), int64(output.Len())); err != nil {
		t.Fatalf("result did not parse as a PDF: %s", err.Error())
	}
}

func TestSignExternalContainerNotEnoughSpace(t *testing.T) {
	input, rdr, size := openStaticPDF(t)

	container := &stubExternalContainer{signature: bytes.Repeat([]byte{0xAB}, 300)}

	var output bytes.Buffer
	err := SignExternalContainer(input, &output, rdr, size, SignData{
		Signature: SignDataSignature{
			Info: SignDataSignatureInfo{Name: "External Signer"},
		},
	}, container, 256)

	if err != ErrNotEnoughSpace {
		t.Fatalf("expected ErrNotEnoughSpace, got %v", err)
	}

	if output.Len() != 0 {
		t.Fatalf("expected the output sink to receive no bytes on overflow, got %d bytes", output.Len())
	}
}

func TestSignExternalContainerSignError(t *testing.T) {
	input, rdr, size := openStaticPDF(t)

	boom := errors.New("hsm unavailable")
	container := &stubExternalContainer{signErr: boom}

	var output bytes.Buffer
	err := SignExternalContainer(input, &output, rdr, size, SignData{
		Signature: SignDataSignature{
			Info: SignDataSignatureInfo{Name: "External Signer"},
		},
	}, container, 256)

	if err == nil {
		t.Fatalf("expected an error when the external container fails to sign")
	}
	if output.Len() != 0 {
		t.Fatalf("expected the output sink to receive no bytes on signing failure, got %d bytes", output.Len())
	}
}

func TestSignExternalContainerRequiresContainer(t *testing.T) {
	input, rdr, size := openStaticPDF(t)

	err := SignExternalContainer(input, io.Discard, rdr, size, SignData{}, nil, 256)
	if err == nil {
		t.Fatalf("expected an error when no container is supplied")
	}
}

func TestSignExternalContainerRequiresPositiveEstimate(t *testing.T) {
	input, rdr, size := openStaticPDF(t)

	container := &stubExternalContainer{}
	err := SignExternalContainer(input, io.Discard, rdr, size, SignData{}, container, 0)
	if err == nil {
		t.Fatalf("expected an error when estimatedSize is not positive")
	}
}
