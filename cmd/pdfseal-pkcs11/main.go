// Command pdfseal-pkcs11 signs a PDF using a private key held on a PKCS#11
// token or HSM instead of a key file on disk.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	pdfsign "github.com/veridoc/pdfseal"
	"github.com/veridoc/pdfseal/signers/pkcs11"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -module <path> [-token label] [-key label] [-pin PIN] [-tsa url] input.pdf output.pdf\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var modulePath, tokenLabel, keyLabel, pin, tsaURL, reason, location string

	flag.StringVar(&modulePath, "module", "", "path to the PKCS#11 module (.so) to load")
	flag.StringVar(&tokenLabel, "token", "", "token label to select (first token if empty)")
	flag.StringVar(&keyLabel, "key", "", "label of the private key/certificate on the token (first match if empty)")
	flag.StringVar(&pin, "pin", "", "PIN used to log in to the token")
	flag.StringVar(&tsaURL, "tsa", "", "RFC 3161 Time Stamp Authority URL")
	flag.StringVar(&reason, "reason", "", "signing reason")
	flag.StringVar(&location, "location", "", "signer location")
	flag.Usage = usage
	flag.Parse()

	if modulePath == "" || flag.NArg() < 2 {
		usage()
		os.Exit(1)
	}

	input := flag.Arg(0)
	output := flag.Arg(1)

	cert, err := pkcs11.LoadCertificate(modulePath, tokenLabel, keyLabel, pin)
	if err != nil {
		log.Fatalf("pdfseal-pkcs11: loading certificate from token: %v", err)
	}

	signer, err := pkcs11.NewSigner(modulePath, tokenLabel, keyLabel, pin, cert.PublicKey)
	if err != nil {
		log.Fatalf("pdfseal-pkcs11: creating token signer: %v", err)
	}

	doc, err := pdfsign.OpenFile(input)
	if err != nil {
		log.Fatalf("pdfseal-pkcs11: opening %s: %v", input, err)
	}

	builder := doc.Sign(signer, cert).
		Type(pdfsign.ApprovalSignature).
		Reason(reason).
		Location(location).
		SignerName(cert.Subject.CommonName)

	if tsaURL != "" {
		builder = builder.Timestamp(tsaURL)
	}

	outputFile, err := os.Create(output)
	if err != nil {
		log.Fatalf("pdfseal-pkcs11: creating %s: %v", output, err)
	}
	defer func() {
		if err := outputFile.Close(); err != nil {
			log.Printf("pdfseal-pkcs11: warning: failed to close output file: %v", err)
		}
	}()

	if _, err := doc.Write(outputFile); err != nil {
		log.Fatalf("pdfseal-pkcs11: signing %s: %v", input, err)
	}

	log.Printf("Signed PDF written to %s", output)
}
