// Command pdfseal signs and verifies PDF digital signatures from the command line.
package main

import (
	"os"

	"github.com/veridoc/pdfseal/cli"
)

func main() {
	if len(os.Args) < 2 {
		cli.Usage()
		return
	}

	switch os.Args[1] {
	case "sign":
		cli.SignCommand()
	case "verify":
		cli.VerifyCommand()
	case "help", "-h", "--help":
		cli.Usage()
	default:
		cli.Usage()
	}
}
