package sign

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// createVisualSignature builds the signature widget annotation. When
// context.existingField is set (C4 Field Binder), it rebinds to that field
// instead: page, rect and every other key are carried over unchanged, and
// only /V is replaced. Otherwise a fresh widget is built; when visible is
// false it still exists (required so the /V reference is valid) but carries
// an empty /Rect and the hidden flag, and when visible it is placed on the
// given 1-indexed page at rect.
func (context *SignContext) createVisualSignature(visible bool, page uint32, rect [4]float64) ([]byte, error) {
	root := context.PDFReader.Trailer().Key("Root")
	if root.Key("Pages").IsNull() {
		return nil, errors.New("didn't find pages in PDF trailer Root")
	}

	rootPtr := root.GetPtr()
	context.CatalogData.RootString = strconv.Itoa(int(rootPtr.GetID())) + " " + strconv.Itoa(int(rootPtr.GetGen())) + " R"

	if context.existingField != nil {
		return context.rebindExistingSignatureField(context.existingField, visible, rect)
	}

	pageValue, err := context.findPage(page)
	if err != nil {
		return nil, err
	}
	pagePtr := pageValue.GetPtr()
	context.VisualSignData.pageObjectId = pagePtr.GetID()

	fieldName := context.SignData.Signature.FieldName
	if fieldName == "" {
		fieldName = "Signature"
	}

	var apObjectId uint32
	if visible {
		apObjectId, err = context.addAppearanceStream(rect)
		if err != nil {
			return nil, err
		}
	}

	var buf []byte
	buf = append(buf, []byte("<< /Type /Annot")...)
	buf = append(buf, []byte(" /Subtype /Widget")...)

	if visible {
		buf = append(buf, []byte(" /Rect ["+
			strconv.FormatFloat(rect[0], 'f', -1, 64)+" "+
			strconv.FormatFloat(rect[1], 'f', -1, 64)+" "+
			strconv.FormatFloat(rect[2], 'f', -1, 64)+" "+
			strconv.FormatFloat(rect[3], 'f', -1, 64)+"]")...)
		buf = append(buf, []byte(" /F 4")...)
		buf = append(buf, []byte(" /AP << /N "+strconv.Itoa(int(apObjectId))+" 0 R >>")...)
	} else {
		buf = append(buf, []byte(" /Rect [0 0 0 0]")...)
		buf = append(buf, []byte(" /F 2")...)
	}

	buf = append(buf, []byte(" /P "+strconv.Itoa(int(pagePtr.GetID()))+" "+strconv.Itoa(int(pagePtr.GetGen()))+" R")...)
	buf = append(buf, []byte(" /FT /Sig")...)
	buf = append(buf, []byte(" /T "+pdfString(fieldName))...)
	buf = append(buf, []byte(" /Ff 0")...)
	buf = append(buf, []byte(" /V "+strconv.Itoa(int(context.SignData.objectId))+" 0 R")...)
	buf = append(buf, []byte(" >>")...)

	return buf, nil
}

// addAppearanceStream renders the C-Appearance stream (see appearance.go,
// text or image depending on SignData.Appearance.Image) and adds it as an
// indirect object, returning its object id for embedding in /AP.
func (context *SignContext) addAppearanceStream(rect [4]float64) (uint32, error) {
	appearance, err := context.createAppearance(rect)
	if err != nil {
		return 0, fmt.Errorf("failed to create appearance stream: %w", err)
	}

	apObjectId, err := context.addObject(appearance)
	if err != nil {
		return 0, fmt.Errorf("failed to add appearance object: %w", err)
	}

	return apObjectId, nil
}

// rebindExistingSignatureField carries over an existing, unsigned signature
// field's dictionary unchanged except for /V (and /AP, when a visible
// appearance is requested for this signing), so its already-placed widget
// (page, rect, flags, /Lock) survives C4 field binding untouched.
func (context *SignContext) rebindExistingSignatureField(existing *existingSignatureField, visible bool, rect [4]float64) ([]byte, error) {
	if p := existing.value.Key("P"); !p.IsNull() {
		context.VisualSignData.pageObjectId = p.GetPtr().GetID()
	}

	var apObjectId uint32
	if visible {
		var err error
		apObjectId, err = context.addAppearanceStream(rect)
		if err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	buf.WriteString("<<\n")
	for _, key := range existing.value.Keys() {
		if key == "V" || (visible && key == "AP") {
			continue
		}
		buf.WriteString(" /")
		buf.WriteString(key)
		buf.WriteString(" ")
		context.serializeCatalogEntry(&buf, existing.objectId, existing.value.Key(key))
		buf.WriteString("\n")
	}
	buf.WriteString(" /V " + strconv.Itoa(int(context.SignData.objectId)) + " 0 R\n")
	if visible {
		buf.WriteString(" /AP << /N " + strconv.Itoa(int(apObjectId)) + " 0 R >>\n")
	}
	buf.WriteString(">>")

	return buf.Bytes(), nil
}
