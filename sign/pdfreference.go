package sign

import (
	"bytes"
	"fmt"
)

// addDocMDP writes a DocMDP /Reference dictionary enforcing perm as the
// document's modification-detection-and-prevention level, as used by
// CertificationSignature.
func (context *SignContext) addDocMDP(buf *bytes.Buffer, perm DocMDPPerm) {
	buf.WriteString(" /Reference [")
	buf.WriteString(" << /Type /SigRef")
	buf.WriteString(" /TransformMethod /DocMDP")
	buf.WriteString(" /TransformParams <<")
	buf.WriteString(" /Type /TransformParams")
	fmt.Fprintf(buf, " /P %d", int(perm))
	buf.WriteString(" /V /1.2")
	buf.WriteString(" >>")
	context.writeLegacyDigestMethod(buf)
	buf.WriteString(" >>")
	buf.WriteString(" ]")
}

// addFieldMDP writes a FieldMDP /Reference dictionary restricting which
// form fields may still change after an ApprovalSignature. action is one of
// "All", "Include", "Exclude"; fields lists the affected field names for
// Include/Exclude.
func (context *SignContext) addFieldMDP(buf *bytes.Buffer, action string, fields []string) {
	buf.WriteString(" /Reference [")
	buf.WriteString(" << /Type /SigRef")
	buf.WriteString(" /TransformMethod /FieldMDP")
	buf.WriteString(" /TransformParams <<")
	buf.WriteString(" /Type /TransformParams")
	fmt.Fprintf(buf, " /Action /%s", action)
	if len(fields) > 0 {
		buf.WriteString(" /Fields [")
		for _, f := range fields {
			buf.WriteString(" " + pdfString(f))
		}
		buf.WriteString(" ]")
	}
	buf.WriteString(" >>")
	context.writeLegacyDigestMethod(buf)
	buf.WriteString(" >>")
	buf.WriteString(" ]")
}

// writeLegacyDigestMethod emits the /DigestMethod /MD5 entry that readers
// predating PDF 1.6 require inside a SigRef dictionary (ISO 32000-1 Table
// 253). PDF 1.6+ readers derive the digest method from the signature's own
// algorithm and don't need it; omitting it there avoids implying MD5 is
// actually used to hash the document.
func (context *SignContext) writeLegacyDigestMethod(buf *bytes.Buffer) {
	if context.PDFReader.PDFVersion >= "1.6" {
		return
	}
	buf.WriteString(" /DigestMethod /MD5")
}
