package sign

import (
	"bytes"
	"fmt"

	"github.com/digitorus/pdf"
)

// fetchExistingSignatures scans the AcroForm field tree for signature fields
// that already carry a value, so a subsequent signature can be added
// alongside them in the rebuilt catalog's /Fields array without disturbing
// their placement.
func (context *SignContext) fetchExistingSignatures() ([]SignData, error) {
	root := context.PDFReader.Trailer().Key("Root")
	acroForm := root.Key("AcroForm")
	if acroForm.IsNull() {
		return nil, nil
	}

	fields := acroForm.Key("Fields")
	if fields.IsNull() || fields.Kind() != pdf.Array {
		return nil, nil
	}

	var existing []SignData
	for i := 0; i < fields.Len(); i++ {
		field := fields.Index(i)
		if field.Key("FT").Name() != "Sig" {
			continue
		}
		if field.Key("V").IsNull() {
			continue
		}

		ptr := field.GetPtr()
		if ptr.GetID() == 0 {
			continue
		}

		existing = append(existing, SignData{objectId: ptr.GetID()})
	}

	return existing, nil
}

// findPageByNumber walks the page tree looking for the 1-indexed pageNumber,
// returning the remaining count when not yet found so callers can recurse
// across siblings.
func findPageByNumber(node pdf.Value, pageNumber uint32) (pdf.Value, uint32, error) {
	switch node.Key("Type").Name() {
	case "Page":
		if pageNumber == 1 {
			return node, 0, nil
		}
		return pdf.Value{}, pageNumber - 1, nil
	case "Pages":
		kids := node.Key("Kids")
		if kids.Kind() != pdf.Array {
			return pdf.Value{}, pageNumber, nil
		}
		for i := 0; i < kids.Len(); i++ {
			page, remaining, err := findPageByNumber(kids.Index(i), pageNumber)
			if err != nil {
				return pdf.Value{}, 0, err
			}
			if page.Kind() != 0 {
				return page, 0, nil
			}
			pageNumber = remaining
		}
	}
	return pdf.Value{}, pageNumber, nil
}

func (context *SignContext) findPage(pageNumber uint32) (pdf.Value, error) {
	root := context.PDFReader.Trailer().Key("Root")
	page, remaining, err := findPageByNumber(root.Key("Pages"), pageNumber)
	if err != nil {
		return pdf.Value{}, err
	}
	if page.Kind() == 0 {
		return pdf.Value{}, fmt.Errorf("page %d not found (only %d pages remaining in tree)", pageNumber, remaining)
	}
	return page, nil
}

// serializeCatalogEntry writes the PDF-syntax representation of an existing
// dictionary entry being carried over into a rebuilt object. parentID is
// accepted for callers that need to special-case self references; plain
// values and indirect references both round-trip correctly through
// pdf.Value's own String() representation.
func (context *SignContext) serializeCatalogEntry(buf *bytes.Buffer, parentID uint32, value pdf.Value) {
	buf.WriteString(value.String())
}

// createIncPageUpdate rebuilds the page dictionary for pageNumber, carrying
// over its existing keys and appending annotID (and any annotations staged
// via ExtraAnnots) to its /Annots array. Used to hook the visible signature
// widget, and any pending initials stamps for the same page, into the page
// that already exists in the original document.
func (context *SignContext) createIncPageUpdate(pageNumber uint32, annotID uint32) ([]byte, error) {
	page, err := context.findPage(pageNumber)
	if err != nil {
		return nil, err
	}

	ptr := page.GetPtr()
	context.VisualSignData.pageObjectId = ptr.GetID()

	var buf bytes.Buffer
	buf.WriteString("<<\n")

	for _, key := range page.Keys() {
		if key == "Annots" || key == "Type" {
			continue
		}
		buf.WriteString(" /")
		buf.WriteString(key)
		buf.WriteString(" ")
		context.serializeCatalogEntry(&buf, ptr.GetID(), page.Key(key))
		buf.WriteString("\n")
	}

	buf.WriteString(" /Type /Page\n")
	buf.WriteString(" /Annots [")

	annots := page.Key("Annots")
	switch {
	case annots.Kind() == pdf.Array:
		for i := 0; i < annots.Len(); i++ {
			aptr := annots.Index(i).GetPtr()
			if aptr.GetID() > 0 {
				fmt.Fprintf(&buf, " %d %d R", aptr.GetID(), aptr.GetGen())
			}
		}
	case annots.Kind() != 0:
		aptr := annots.GetPtr()
		if aptr.GetID() > 0 {
			fmt.Fprintf(&buf, " %d %d R", aptr.GetID(), aptr.GetGen())
		}
	}

	for _, extra := range context.ExtraAnnots[ptr.GetID()] {
		fmt.Fprintf(&buf, " %d 0 R", extra)
	}

	fmt.Fprintf(&buf, " %d 0 R", annotID)
	buf.WriteString(" ]\n")
	buf.WriteString(">>")

	return buf.Bytes(), nil
}
