package main

import (
	"fmt"
	"os"

	"github.com/utafrali/TranscriptSearch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cvsearch:", err)
		os.Exit(1)
	}
}
