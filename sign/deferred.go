package sign

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/digitorus/pdf"
)

// ContainerProducer is the external collaborator for deferred signing
// (C8 Deferred Signer). It receives the concatenation of the two byte
// ranges the reserved signature covers (the Hashable Stream Producer, C6)
// and returns the final signature container bytes (a detached CMS/CAdES
// SignedData, or a raw RFC 3161 token for a /DocTimeStamp) to embed.
type ContainerProducer func(r io.Reader) ([]byte, error)

// DeferSign completes a signature previously reserved with
// SignData.Deferred, without re-serializing the document. It locates the
// document's last signature (the one whose /ByteRange reaches end of file),
// streams the bytes that signature covers to produce, hex-encodes the
// result, and splices it into the reserved /Contents gap in place.
//
// input must be positioned so that reading from offset 0 yields the whole
// signed-with-placeholder PDF; size is its total length.
func DeferSign(input io.ReaderAt, output io.Writer, size int64, produce ContainerProducer) error {
	rdr, err := pdf.NewReader(input, size)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}

	gapStart, gapEnd, err := findDeferredGap(rdr, size)
	if err != nil {
		return err
	}

	if (gapEnd-gapStart)%2 != 0 {
		return ErrGapNotEven
	}

	stream := io.MultiReader(
		io.NewSectionReader(input, 0, gapStart),
		io.NewSectionReader(input, gapEnd, size-gapEnd),
	)

	container, err := produce(stream)
	if err != nil {
		return fmt.Errorf("container producer failed: %w", err)
	}

	reservedHexLen := gapEnd - gapStart
	encoded := make([]byte, hex.EncodedLen(len(container)))
	hex.Encode(encoded, container)

	if int64(len(encoded)) > reservedHexLen {
		return ErrInsufficientSpace
	}
	padded := make([]byte, reservedHexLen)
	copy(padded, encoded)
	for i := len(encoded); i < len(padded); i++ {
		padded[i] = '0'
	}

	if _, err := io.Copy(output, io.NewSectionReader(input, 0, gapStart)); err != nil {
		return fmt.Errorf("failed to copy prefix: %w", err)
	}
	if _, err := output.Write(padded); err != nil {
		return fmt.Errorf("failed to write signature contents: %w", err)
	}
	if _, err := io.Copy(output, io.NewSectionReader(input, gapEnd, size-gapEnd)); err != nil {
		return fmt.Errorf("failed to copy suffix: %w", err)
	}

	return nil
}

// findDeferredGap locates the /Contents hex payload (excluding the '<' '>'
// delimiters) of the signature whose /ByteRange reaches the end of the
// file. Per spec, only the most recently applied signature may be completed
// this way; any other target fails with ErrNotLastSignature.
func findDeferredGap(rdr *pdf.Reader, size int64) (gapStart, gapEnd int64, err error) {
	found := false

	for _, x := range rdr.Xref() {
		v := rdr.Resolve(x.Ptr(), x.Ptr())
		if v.Key("Filter").Name() != "Adobe.PPKLite" {
			continue
		}

		br := v.Key("ByteRange")
		if br.Len() != 4 {
			continue
		}

		a0 := br.Index(0).Int64()
		l0 := br.Index(1).Int64()
		a1 := br.Index(2).Int64()
		l1 := br.Index(3).Int64()

		if a0 != 0 {
			continue
		}
		if a1+l1 != size {
			// This signature doesn't reach EOF; it isn't the last one.
			continue
		}
		if a1 < l0 {
			return 0, 0, ErrOverlappingExclusions
		}

		// A later (higher xref generation) match wins: prefer the gap with
		// the largest start offset, i.e. the most recently appended signature.
		if !found || l0 > gapStart {
			gapStart, gapEnd = l0, a1
			found = true
		}
	}

	if !found {
		return 0, 0, ErrNotLastSignature
	}

	return gapStart, gapEnd, nil
}

// ZeroContainerProducer is a ContainerProducer that returns a container of
// exactly the given length filled with zero bytes. It is useful for
// producing a placeholder pass in tests: signing once with SignData.Deferred
// set writes an all-zero /Contents already, so this is mostly needed when
// exercising DeferSign directly against hand-built fixtures.
func ZeroContainerProducer(length int) ContainerProducer {
	return func(r io.Reader) ([]byte, error) {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return nil, err
		}
		return bytes.Repeat([]byte{0}, length), nil
	}
}
