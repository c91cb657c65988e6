// Command spectra computes spectral fingerprints of graphs and indexes
// cospectral mates.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/spectra/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
