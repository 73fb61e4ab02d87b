package sign

import (
	"strings"

	"github.com/digitorus/pdf"
)

// existingSignatureField describes a pre-existing, unsigned /FT /Sig field
// found by findExistingSignatureField. A new signature binds to it (C4
// Field Binder, §4.7) instead of creating a fresh widget: the field's
// object id, page and rectangle are all reused.
type existingSignatureField struct {
	objectId uint32
	value    pdf.Value
}

// findExistingSignatureField implements the C4 Field Binder's lookup: it
// walks the AcroForm's top-level /Fields for one named name and, if found,
// verifies it is safe to bind to. A nil result with a nil error means no
// field by that name exists, so the caller creates one from scratch.
func (context *SignContext) findExistingSignatureField(name string) (*existingSignatureField, error) {
	if strings.Contains(name, ".") {
		return nil, ErrFieldNameContainsDot
	}

	root := context.PDFReader.Trailer().Key("Root")
	fields := root.Key("AcroForm").Key("Fields")
	if fields.IsNull() || fields.Kind() != pdf.Array {
		return nil, nil
	}

	for i := 0; i < fields.Len(); i++ {
		field := fields.Index(i)
		if field.Key("T").RawString() != name {
			continue
		}

		if field.Key("FT").Name() != "Sig" {
			return nil, ErrFieldTypeNotSignature
		}
		if !field.Key("V").IsNull() {
			return nil, ErrFieldAlreadySigned
		}

		ptr := field.GetPtr()
		return &existingSignatureField{
			objectId: ptr.GetID(),
			value:    field,
		}, nil
	}

	return nil, nil
}

// existingFieldLock extracts a field's /Lock /Action and /Fields, if any.
// A pre-existing field's own lock takes precedence over a caller-supplied
// FieldMDPAction/FieldMDPFields for the signature that binds to it.
func existingFieldLock(field pdf.Value) (action string, fieldNames []string, ok bool) {
	lock := field.Key("Lock")
	if lock.IsNull() {
		return "", nil, false
	}

	action = lock.Key("Action").Name()
	if action == "" {
		return "", nil, false
	}

	names := lock.Key("Fields")
	if names.Kind() == pdf.Array {
		for i := 0; i < names.Len(); i++ {
			fieldNames = append(fieldNames, names.Index(i).RawString())
		}
	}

	return action, fieldNames, true
}
