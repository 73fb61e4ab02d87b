package sign

import (
	"fmt"
	"io"
)

// writeXref records the file offset where the incremental xref section
// begins (needed by writeTrailer's startxref line) and dispatches to the
// table or stream writer matching the original document's xref style.
func (context *SignContext) writeXref() error {
	pos, err := context.OutputBuffer.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	context.NewXrefStart = pos

	switch context.PDFReader.XrefInformation.Type {
	case "table":
		return context.writeIncrXrefTable()
	case "stream":
		return context.writeXrefStream()
	default:
		return fmt.Errorf("unknown xref type: %s", context.PDFReader.XrefInformation.Type)
	}
}
