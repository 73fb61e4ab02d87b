package sign

import "bytes"

// createTimestampPlaceholder builds a bare /DocTimeStamp object body, the
// pure-timestamp counterpart of createSignaturePlaceholder used when
// SignData.Signature.CertType == TimeStampSignature. The container is later
// filled in by createSignature, whose /SubFilter switch (see
// SignData.Signature.CertType handling in createSignature) picks
// ETSI.RFC3161 for this CertType so a validator cross-checks the DocTimeStamp
// dictionary against the embedded RFC 3161 token.
func (context *SignContext) createTimestampPlaceholder() []byte {
	var buf bytes.Buffer
	buf.WriteString("<< /Type /DocTimeStamp")
	buf.WriteString(" /Filter /Adobe.PPKLite")
	buf.WriteString(" /SubFilter /ETSI.RFC3161")

	context.byteRangeRelOffset = int64(buf.Len()) + 1
	buf.WriteString(" " + signatureByteRangePlaceholder)

	context.contentsRelOffset = int64(buf.Len()) + 11
	buf.WriteString(" /Contents<")
	buf.Write(bytes.Repeat([]byte("0"), int(context.SignatureMaxLength)))
	buf.WriteString(">")

	buf.WriteString(" /M ")
	buf.WriteString(pdfDateTime(context.SignData.Signature.Info.Date))
	buf.WriteString(" >>")

	return buf.Bytes()
}
