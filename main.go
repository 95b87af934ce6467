package main

import (
	"os"

	"github.com/kamusis/modelpub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
