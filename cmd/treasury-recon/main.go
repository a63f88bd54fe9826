// Package main is the entry point for treasury-recon CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/treasury-recon/cmd/treasury-recon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
