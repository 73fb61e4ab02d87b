package sign

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/digitorus/pdf"
)

var signatureTests = []struct {
	file               string
	fieldMDPAction     string
	fieldMDPFields     []string
	expectedSignatures map[CertType]string
}{
	{
		file:           "../testfiles/testfile20.pdf",
		fieldMDPAction: "All",
		expectedSignatures: map[CertType]string{
			CertificationSignature: "<< /Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.pkcs7.detached /ByteRange[0 ********** ********** **********] /Contents<> /Reference [ << /Type /SigRef /TransformMethod /DocMDP /TransformParams << /Type /TransformParams /P 2 /V /1.2 >> >> ] /Name (John Doe) /Location (Somewhere) /Reason (Test) /ContactInfo (None) /M (D:20170923143900+03'00') >>",
			UsageRightsSignature:   "<< /Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.pkcs7.detached /ByteRange[0 ********** ********** **********] /Contents<> /Reference [ << /Type /SigRef /TransformMethod /UR3 /TransformParams << /Type /TransformParams /V /2.2 >> >> ] /Name (John Doe) /Location (Somewhere) /Reason (Test) /ContactInfo (None) /M (D:20170923143900+03'00') >>",
			ApprovalSignature:      "<< /Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.pkcs7.detached /ByteRange[0 ********** ********** **********] /Contents<> /Reference [ << /Type /SigRef /TransformMethod /FieldMDP /TransformParams << /Type /TransformParams /Action /All >> >> ] /Name (John Doe) /Location (Somewhere) /Reason (Test) /ContactInfo (None) /M (D:20170923143900+03'00') >>",
		},
	},
}

func TestCreateSignaturePlaceholder(t *testing.T) {
	for _, testFile := range signatureTests {
		for certType, expectedSignature := range testFile.expectedSignatures {
			t.Run(fmt.Sprintf("%s_certType-%d", testFile.file, certType), func(st *testing.T) {
				inputFile, err := os.Open(testFile.file)
				if err != nil {
					st.Errorf("Failed to load test PDF")
					return
				}

				finfo, err := inputFile.Stat()
				if err != nil {
					st.Errorf("Failed to load test PDF")
					return
				}
				size := finfo.Size()

				rdr, err := pdf.NewReader(inputFile, size)
				if err != nil {
					st.Errorf("Failed to load test PDF")
					return
				}

				timezone, _ := time.LoadLocation("Europe/Tallinn")
				now := time.Date(2017, 9, 23, 14, 39, 0, 0, timezone)

				sign_data := SignData{
					Signature: SignDataSignature{
						Info: SignDataSignatureInfo{
							Name:        "John Doe",
							Location:    "Somewhere",
							Reason:      "Test",
							ContactInfo: "None",
							Date:        now,
						},
						CertType:       certType,
						DocMDPPerm:     AllowFillingExistingFormFieldsAndSignaturesPerms,
						FieldMDPAction: testFile.fieldMDPAction,
						FieldMDPFields: testFile.fieldMDPFields,
					},
				}

				sign_data.objectId = uint32(rdr.XrefInformation.ItemCount) + 3

				context := SignContext{
					PDFReader: rdr,
					InputFile: inputFile,
					SignData:  sign_data,
				}

				signature, err := context.createSignaturePlaceholder()
				if err != nil {
					st.Fatalf("createSignaturePlaceholder failed: %s", err.Error())
				}

				if string(signature) != expectedSignature {
					st.Errorf("Signature mismatch, expected:\n%q\nbut got:\n%q", expectedSignature, signature)
				}
			})
		}
	}
}
