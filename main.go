package main

import (
	"os"

	"github.com/scan-io-git/codemedic/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
